package infra

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// changeNotifier is the part of SQLProvider the watcher re-broadcasts through.
type changeNotifier interface {
	NotifyChange(uri string)
}

// StoreWatcher turns writes to the database file made by other processes
// (for example `appblock block set` while the daemon runs) into provider
// change notifications. A file write cannot tell which table changed, so
// every target is notified.
type StoreWatcher struct {
	dataDir  string
	notifier changeNotifier
	debounce time.Duration
	logger   *zap.Logger
}

// NewStoreWatcher creates a watcher for the database inside dataDir.
func NewStoreWatcher(dataDir string, notifier changeNotifier, logger *zap.Logger) *StoreWatcher {
	return &StoreWatcher{
		dataDir:  dataDir,
		notifier: notifier,
		debounce: 250 * time.Millisecond,
		logger:   logger,
	}
}

// Run watches until ctx is done.
func (w *StoreWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dataDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dataDir, err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDatabaseFile(event.Name) || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending == nil {
				pending = time.After(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("store watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			w.logger.Debug("database changed on disk")
			w.notifier.NotifyChange(domain.ContentURIApp)
			w.notifier.NotifyChange(domain.ContentURIWork)
		}
	}
}

// isDatabaseFile matches the database and its journal/WAL siblings.
func isDatabaseFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), DatabaseName)
}
