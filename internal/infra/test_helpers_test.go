package infra

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	mu          sync.Mutex
	names       []string
	namesErr    error
	runningPIDs map[int]bool
}

func newMockProcessManager(names ...string) *mockProcessManager {
	return &mockProcessManager{
		names:       names,
		runningPIDs: make(map[int]bool),
	}
}

func (m *mockProcessManager) Names(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.namesErr != nil {
		return nil, m.namesErr
	}
	return append([]string(nil), m.names...), nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runningPIDs[pid]
}

func (m *mockProcessManager) GetCurrentPID() int {
	return os.Getpid()
}

func (m *mockProcessManager) SetRunning(pid int, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runningPIDs[pid] = running
}

func (m *mockProcessManager) SetNames(names []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = names
	m.namesErr = err
}

// newTestDB opens a fresh encrypted blocker database in a temp directory.
func newTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dataDir := t.TempDir()

	key, err := GenerateKey()
	require.NoError(t, err)

	db, err := OpenDatabase(context.Background(), dataDir, key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dataDir
}

// newTestProvider returns a provider over a fresh database.
func newTestProvider(t *testing.T) *SQLProvider {
	t.Helper()
	db, _ := newTestDB(t)
	return NewSQLProvider(db, zap.NewNop())
}
