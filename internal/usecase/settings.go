// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// BlockerStore is what the observer and re-armer read and write.
type BlockerStore interface {
	WorkingWindow(ctx context.Context) (*domain.WorkingWindow, error)
	SetWorkingWindow(ctx context.Context, w domain.WorkingWindow) error
	BlockedPackages(ctx context.Context) ([]string, error)
}

// Settings reads and replaces the blocked list and working window through
// the content provider.
type Settings struct {
	provider domain.ContentProvider
	logger   *zap.Logger
}

// NewSettings creates the settings use case.
func NewSettings(provider domain.ContentProvider, logger *zap.Logger) *Settings {
	return &Settings{provider: provider, logger: logger}
}

// ReplaceBlockedPackages clears the blocked list and inserts pkgs in one batch.
// Duplicates in pkgs are rejected by the store and counted in Failed.
func (s *Settings) ReplaceBlockedPackages(ctx context.Context, pkgs []string) (domain.BatchResult, error) {
	ops := make([]domain.Operation, 0, len(pkgs)+1)
	ops = append(ops, domain.Operation{Type: domain.OpDelete, URI: domain.ContentURIApp})
	for _, pkg := range pkgs {
		ops = append(ops, domain.Operation{
			Type:   domain.OpInsert,
			URI:    domain.ContentURIApp,
			Values: domain.Values{domain.ColumnPackages: pkg},
		})
	}

	result, err := s.provider.ApplyBatch(ctx, ops)
	if err != nil {
		return result, fmt.Errorf("failed to replace blocked packages: %w", err)
	}
	if result.Failed > 0 {
		s.logger.Debug("some blocked packages were not inserted",
			zap.Int("requested", len(pkgs)),
			zap.Int("failed", result.Failed))
	}
	s.logger.Info("blocked packages replaced", zap.Int("count", len(result.Inserted)))
	return result, nil
}

// BlockedPackages returns the blocked list. Empty entries are skipped.
func (s *Settings) BlockedPackages(ctx context.Context) ([]string, error) {
	rows, err := s.provider.Query(ctx, domain.ContentURIApp, []string{domain.ColumnPackages}, domain.All)
	if err != nil {
		return nil, err
	}

	pkgs := make([]string, 0, len(rows))
	for _, row := range rows {
		pkg, _ := row[domain.ColumnPackages].(string)
		if pkg != "" {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

// SetWorkingWindow replaces the stored window. If the new window cannot be
// written the previous one is kept.
func (s *Settings) SetWorkingWindow(ctx context.Context, w domain.WorkingWindow) error {
	result, err := s.provider.ApplyBatch(ctx, []domain.Operation{
		{Type: domain.OpDelete, URI: domain.ContentURIWork},
		{
			Type: domain.OpInsert,
			URI:  domain.ContentURIWork,
			Values: domain.Values{
				domain.ColumnFrom: w.From,
				domain.ColumnTo:   w.To,
			},
			Required: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set working window: %w", err)
	}
	if len(result.Inserted) == 0 {
		return fmt.Errorf("failed to set working window: %w", domain.ErrWriteFailed)
	}
	return nil
}

// WorkingWindow returns the first stored window with non-negative bounds,
// or nil if there is none.
func (s *Settings) WorkingWindow(ctx context.Context) (*domain.WorkingWindow, error) {
	rows, err := s.provider.Query(ctx, domain.ContentURIWork, []string{domain.ColumnFrom, domain.ColumnTo}, domain.All)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		from, okFrom := row[domain.ColumnFrom].(int64)
		to, okTo := row[domain.ColumnTo].(int64)
		if okFrom && okTo && from >= 0 && to >= 0 {
			return &domain.WorkingWindow{From: from, To: to}, nil
		}
	}
	return nil, nil
}

// Ensure Settings implements BlockerStore.
var _ BlockerStore = (*Settings)(nil)
