package domain

import "context"

// ContentProvider exposes the two blocker tables through content URIs.
// Implementation: infra.SQLProvider over a SQLCipher database.
type ContentProvider interface {
	// Query returns rows of the target, restricted to projection (all columns if empty).
	Query(ctx context.Context, uri string, projection []string, sel Selection) ([]Values, error)

	// Insert adds a row and returns its content URI.
	// Returns ErrWriteFailed (wrapped) if the row could not be written.
	Insert(ctx context.Context, uri string, values Values) (string, error)

	// Update changes matching rows and returns the affected count.
	Update(ctx context.Context, uri string, values Values, sel Selection) (int64, error)

	// Delete removes matching rows and returns the affected count.
	Delete(ctx context.Context, uri string, sel Selection) (int64, error)

	// TypeOf returns the content type of the target.
	TypeOf(uri string) (string, error)

	// ApplyBatch runs ops in a single transaction.
	// Returns ErrWriteFailed (wrapped) and commits nothing if a Required insert is rejected.
	ApplyBatch(ctx context.Context, ops []Operation) (BatchResult, error)

	// RegisterObserver calls fn whenever the target behind uri changes.
	RegisterObserver(uri string, fn func(uri string)) (unregister func())
}

// OperationType is the kind of a batch operation.
type OperationType int

const (
	OpInsert OperationType = iota
	OpDelete
)

// Operation is a single step of ContentProvider.ApplyBatch.
type Operation struct {
	Type      OperationType
	URI       string
	Values    Values
	Selection Selection

	// Required makes a rejected insert fail the whole batch instead of
	// being counted in BatchResult.Failed.
	Required bool
}

// BatchResult summarizes ApplyBatch.
type BatchResult struct {
	Inserted []string // URIs of inserted rows
	Failed   int      // inserts rejected by the store (e.g. duplicates)
	Deleted  int64
}

// EventSource produces UI events from the operating system.
type EventSource interface {
	// Events returns the channel events are delivered on.
	Events() <-chan UIEvent

	// Start begins producing events until ctx is canceled.
	// Returns when the source is interrupted or ctx is done.
	Start(ctx context.Context) error

	// Available reports whether the source can run on this system.
	Available() (bool, string)
}

// Foregrounder brings the host application to the foreground.
// Fire-and-forget: callers log errors and move on.
type Foregrounder interface {
	BringToForeground(ctx context.Context, intent Intent) error
}

// AppCatalog enumerates launchable applications.
type AppCatalog interface {
	List(ctx context.Context) ([]AppSnapshot, error)
	Find(ctx context.Context, pkg string) (*AppSnapshot, error)
}

// StateStore persists daemon status for the status command.
type StateStore interface {
	SaveState(ctx context.Context, state DaemonState) error
	LoadState(ctx context.Context) (*DaemonState, error)
	UpdateHeartbeat(ctx context.Context) error
	SetNextRearm(ctx context.Context, next int64) error
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// Names returns the names of all running processes.
	Names(ctx context.Context) ([]string, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
