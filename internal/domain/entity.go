// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"errors"
	"time"
)

// Content provider contract.
const (
	Authority = "com.parent.accessibility_service.provider"

	TableApp  = "data_app"
	TableWork = "data_work"

	ColumnID       = "_id"
	ColumnPackages = "packages"
	ColumnFrom     = "work_from"
	ColumnTo       = "work_to"

	// CursorDirBaseType prefixes content types of multi-row targets.
	CursorDirBaseType = "vnd.android.cursor.dir"

	ContentURIApp  = "content://" + Authority + "/" + TableApp
	ContentURIWork = "content://" + Authority + "/" + TableWork
)

// Host intent contract.
const (
	LaunchMainAction = "com.phys.intent.action.ACTION_LAUNCH_MAIN"
	IntentBundleKey  = "INTENT_BUNDLE_KEY"
	ServiceDisabled  = "SERVICE_DISABLED"
)

var (
	ErrUnknownTarget = errors.New("unknown target")
	ErrUnknownColumn = errors.New("unknown column")
	ErrWriteFailed   = errors.New("write failed")
)

// Values is a single row keyed by column name.
type Values map[string]any

// Selection is a SQL WHERE fragment with positional arguments.
// The zero value selects every row.
type Selection struct {
	Where string
	Args  []any
}

// All selects every row.
var All = Selection{}

// BlockedPackage is an application identifier that is blocked during working time.
type BlockedPackage struct {
	ID      int64
	Package string
}

// WorkingWindow is the [From, To] interval, in epoch milliseconds, during
// which blocking is active. Ordering of From and To is not validated.
type WorkingWindow struct {
	From int64
	To   int64
}

// NewWorkingWindow builds a window from wall-clock times.
func NewWorkingWindow(from, to time.Time) WorkingWindow {
	return WorkingWindow{From: from.UnixMilli(), To: to.UnixMilli()}
}

// Contains reports whether t falls in the window, both ends inclusive.
func (w WorkingWindow) Contains(t time.Time) bool {
	ms := t.UnixMilli()
	return ms >= w.From && ms <= w.To
}

// FromTime returns From as a time in loc.
func (w WorkingWindow) FromTime(loc *time.Location) time.Time {
	return time.UnixMilli(w.From).In(loc)
}

// ToTime returns To as a time in loc.
func (w WorkingWindow) ToTime(loc *time.Location) time.Time {
	return time.UnixMilli(w.To).In(loc)
}

// AppSnapshot describes a launchable application. Never persisted.
type AppSnapshot struct {
	Package  string
	Name     string
	Icon     []byte
	Category string // optional
}

// EventKind identifies the type of UI event delivered by an EventSource.
type EventKind string

const (
	EventViewClicked          EventKind = "view_clicked"
	EventViewScrolled         EventKind = "view_scrolled"
	EventWindowStateChanged   EventKind = "window_state_changed"
	EventWindowContentChanged EventKind = "window_content_changed"
	EventViewFocused          EventKind = "view_focused"
	EventNotification         EventKind = "notification_state_changed"
)

// UIEvent is a single UI event observed system-wide.
type UIEvent struct {
	Kind    EventKind
	Package string
	Time    time.Time
}

// SignalKind distinguishes relay signals.
type SignalKind string

const (
	SignalBlocked  SignalKind = "blocked"
	SignalDisabled SignalKind = "disabled"
)

// Intent asks the host application to come to the foreground.
type Intent struct {
	ID     string            `json:"id"`
	Action string            `json:"action"`
	Kind   SignalKind        `json:"kind"`
	Extras map[string]string `json:"extras"`
	SentAt time.Time         `json:"sent_at"`
}

// Payload returns the value stored under IntentBundleKey.
func (i Intent) Payload() string {
	return i.Extras[IntentBundleKey]
}

// DaemonState is the persisted status of the running blocker daemon.
type DaemonState struct {
	PID           int
	AppVersion    string
	LastHeartbeat time.Time
	NextRearm     time.Time
}
