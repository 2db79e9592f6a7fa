package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// ProcessCatalog implements domain.AppCatalog from the running process table.
// Desktop processes carry no icon or category, so those fields stay empty.
type ProcessCatalog struct {
	processManager domain.ProcessManager
	self           string
}

// NewProcessCatalog creates a catalog that hides the current executable.
func NewProcessCatalog(pm domain.ProcessManager) *ProcessCatalog {
	self := ""
	if exe, err := os.Executable(); err == nil {
		self = filepath.Base(exe)
	}
	return &ProcessCatalog{processManager: pm, self: self}
}

// NewProcessCatalogWithSelf creates a catalog hiding a custom name (for testing).
func NewProcessCatalogWithSelf(pm domain.ProcessManager, self string) *ProcessCatalog {
	return &ProcessCatalog{processManager: pm, self: self}
}

// List returns one snapshot per distinct process name, sorted by name.
func (c *ProcessCatalog) List(ctx context.Context) ([]domain.AppSnapshot, error) {
	names, err := c.processManager.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	seen := make(map[string]bool, len(names))
	apps := make([]domain.AppSnapshot, 0, len(names))
	for _, name := range names {
		if seen[name] || name == c.self {
			continue
		}
		seen[name] = true
		apps = append(apps, domain.AppSnapshot{Package: name, Name: name})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Package < apps[j].Package })
	return apps, nil
}

// Find returns the snapshot for pkg, or nil if it is not running.
func (c *ProcessCatalog) Find(ctx context.Context, pkg string) (*domain.AppSnapshot, error) {
	apps, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].Package == pkg {
			return &apps[i], nil
		}
	}
	return nil, nil
}

// Ensure ProcessCatalog implements domain.AppCatalog.
var _ domain.AppCatalog = (*ProcessCatalog)(nil)
