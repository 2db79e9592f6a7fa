package usecase

import (
	"context"
	"sync"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// mockStore implements BlockerStore for testing
type mockStore struct {
	mu        sync.Mutex
	window    *domain.WorkingWindow
	packages  []string
	windowErr error
	pkgErr    error
	setErr    error
	sets      []domain.WorkingWindow
}

func (m *mockStore) WorkingWindow(ctx context.Context) (*domain.WorkingWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.windowErr != nil {
		return nil, m.windowErr
	}
	if m.window == nil {
		return nil, nil
	}
	w := *m.window
	return &w, nil
}

func (m *mockStore) SetWorkingWindow(ctx context.Context, w domain.WorkingWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.window = &w
	m.sets = append(m.sets, w)
	return nil
}

func (m *mockStore) BlockedPackages(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pkgErr != nil {
		return nil, m.pkgErr
	}
	return m.packages, nil
}

// mockForegrounder records every intent it is asked to deliver
type mockForegrounder struct {
	mu      sync.Mutex
	intents []domain.Intent
	err     error
}

func (m *mockForegrounder) BringToForeground(ctx context.Context, intent domain.Intent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, intent)
	return m.err
}

func (m *mockForegrounder) payloads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.intents))
	for i, in := range m.intents {
		out[i] = in.Payload()
	}
	return out
}

// mockProvider implements domain.ContentProvider for testing
type mockProvider struct {
	rows     map[string][]domain.Values
	queryErr error
	batchErr error
	result   domain.BatchResult
	batches  [][]domain.Operation
}

func (m *mockProvider) Query(ctx context.Context, uri string, projection []string, sel domain.Selection) ([]domain.Values, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.rows[uri], nil
}

func (m *mockProvider) Insert(ctx context.Context, uri string, values domain.Values) (string, error) {
	return uri + "/1", nil
}

func (m *mockProvider) Update(ctx context.Context, uri string, values domain.Values, sel domain.Selection) (int64, error) {
	return 0, nil
}

func (m *mockProvider) Delete(ctx context.Context, uri string, sel domain.Selection) (int64, error) {
	return 0, nil
}

func (m *mockProvider) TypeOf(uri string) (string, error) {
	return "", nil
}

func (m *mockProvider) ApplyBatch(ctx context.Context, ops []domain.Operation) (domain.BatchResult, error) {
	m.batches = append(m.batches, ops)
	if m.batchErr != nil {
		return domain.BatchResult{}, m.batchErr
	}
	return m.result, nil
}

func (m *mockProvider) RegisterObserver(uri string, fn func(uri string)) func() {
	return func() {}
}
