// Package fixtures provides test doubles for integration tests.
package fixtures

import (
	"context"
	"os"
	"sync"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// ScriptedProcesses is a domain.ProcessManager whose process table is set by the test.
type ScriptedProcesses struct {
	mu    sync.Mutex
	names []string
	err   error
}

// NewScriptedProcesses creates a process table holding names.
func NewScriptedProcesses(names ...string) *ScriptedProcesses {
	return &ScriptedProcesses{names: names}
}

// Set replaces the process table.
func (s *ScriptedProcesses) Set(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = names
	s.err = nil
}

// Fail makes every later listing return err.
func (s *ScriptedProcesses) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *ScriptedProcesses) Names(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]string(nil), s.names...), nil
}

func (s *ScriptedProcesses) IsRunning(pid int) bool {
	return pid == os.Getpid()
}

func (s *ScriptedProcesses) GetCurrentPID() int {
	return os.Getpid()
}

// FakeHost records the intents a host application would receive.
type FakeHost struct {
	mu      sync.Mutex
	intents []domain.Intent
}

func (h *FakeHost) BringToForeground(ctx context.Context, intent domain.Intent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.intents = append(h.intents, intent)
	return nil
}

// Payloads returns the bundle payload of every received intent, in order.
func (h *FakeHost) Payloads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.intents))
	for i, in := range h.intents {
		out[i] = in.Payload()
	}
	return out
}

var (
	_ domain.ProcessManager = (*ScriptedProcesses)(nil)
	_ domain.Foregrounder   = (*FakeHost)(nil)
)
