package infra

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

const (
	stateKeyPID       = "pid"
	stateKeyVersion   = "app_version"
	stateKeyHeartbeat = "last_heartbeat"
	stateKeyNextRearm = "next_rearm"
)

// SQLStateStore implements domain.StateStore in the daemon_state table of the
// blocker database. Values are stored as text keyed by name.
type SQLStateStore struct {
	db             *sql.DB
	processManager domain.ProcessManager
}

// NewSQLStateStore creates a state store on an open blocker database.
func NewSQLStateStore(db *sql.DB, pm domain.ProcessManager) *SQLStateStore {
	return &SQLStateStore{db: db, processManager: pm}
}

// SaveState records the running daemon.
func (s *SQLStateStore) SaveState(ctx context.Context, state domain.DaemonState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	kv := map[string]string{
		stateKeyPID:       strconv.Itoa(state.PID),
		stateKeyVersion:   state.AppVersion,
		stateKeyHeartbeat: strconv.FormatInt(state.LastHeartbeat.UnixMilli(), 10),
	}
	if !state.NextRearm.IsZero() {
		kv[stateKeyNextRearm] = strconv.FormatInt(state.NextRearm.UnixMilli(), 10)
	}
	for k, v := range kv {
		if err := setState(ctx, tx, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadState returns the last recorded daemon state, or nil if none was saved.
func (s *SQLStateStore) LoadState(ctx context.Context) (*domain.DaemonState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM daemon_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := false
	state := &domain.DaemonState{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		found = true
		switch k {
		case stateKeyPID:
			state.PID, _ = strconv.Atoi(v)
		case stateKeyVersion:
			state.AppVersion = v
		case stateKeyHeartbeat:
			state.LastHeartbeat = parseMillis(v)
		case stateKeyNextRearm:
			state.NextRearm = parseMillis(v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return state, nil
}

// UpdateHeartbeat updates timestamp for liveness check.
func (s *SQLStateStore) UpdateHeartbeat(ctx context.Context) error {
	return setState(ctx, s.db, stateKeyHeartbeat, strconv.FormatInt(time.Now().UnixMilli(), 10))
}

// SetNextRearm records when the re-armer fires next (epoch milliseconds).
func (s *SQLStateStore) SetNextRearm(ctx context.Context, next int64) error {
	return setState(ctx, s.db, stateKeyNextRearm, strconv.FormatInt(next, 10))
}

// IsDaemonAlive checks if the recorded daemon PID is still running.
func (s *SQLStateStore) IsDaemonAlive(ctx context.Context) (bool, error) {
	state, err := s.LoadState(ctx)
	if err != nil {
		return false, err
	}
	if state == nil || state.PID == 0 {
		return false, nil
	}
	return s.processManager.IsRunning(state.PID), nil
}

// Clear removes all daemon state (for clean restart).
func (s *SQLStateStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM daemon_state`)
	return err
}

func setState(ctx context.Context, r sqlRunner, key, value string) error {
	_, err := r.ExecContext(ctx,
		`INSERT OR REPLACE INTO daemon_state (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write daemon state %q: %w", key, err)
	}
	return nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Ensure SQLStateStore implements domain.StateStore.
var _ domain.StateStore = (*SQLStateStore)(nil)
