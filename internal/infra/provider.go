package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// tableColumns lists the addressable columns of each target table.
var tableColumns = map[string][]string{
	domain.TableApp:  {domain.ColumnID, domain.ColumnPackages},
	domain.TableWork: {domain.ColumnID, domain.ColumnFrom, domain.ColumnTo},
}

// sqlRunner is satisfied by both *sql.DB and *sql.Tx.
type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLProvider implements domain.ContentProvider on top of the blocker database.
// Targets are routed by content URI to exactly two tables.
type SQLProvider struct {
	db        *sql.DB
	authority string
	logger    *zap.Logger

	mu        sync.RWMutex
	observers map[string]map[int]func(string)
	nextObsID int
}

// NewSQLProvider creates a provider for the default authority.
func NewSQLProvider(db *sql.DB, logger *zap.Logger) *SQLProvider {
	return NewSQLProviderWithAuthority(db, domain.Authority, logger)
}

// NewSQLProviderWithAuthority creates a provider answering for a custom authority (for testing).
func NewSQLProviderWithAuthority(db *sql.DB, authority string, logger *zap.Logger) *SQLProvider {
	return &SQLProvider{
		db:        db,
		authority: authority,
		logger:    logger,
		observers: make(map[string]map[int]func(string)),
	}
}

// Query returns rows of the target ordered by row id.
func (p *SQLProvider) Query(ctx context.Context, uri string, projection []string, sel domain.Selection) ([]domain.Values, error) {
	table, err := p.table(uri)
	if err != nil {
		return nil, err
	}
	return p.query(ctx, p.db, table, projection, sel)
}

// Insert adds a row. A rejected write returns domain.ErrWriteFailed and sends no notification.
func (p *SQLProvider) Insert(ctx context.Context, uri string, values domain.Values) (string, error) {
	table, err := p.table(uri)
	if err != nil {
		return "", err
	}
	id, err := p.insert(ctx, p.db, table, values)
	if err != nil {
		return "", err
	}
	p.NotifyChange(p.contentURI(table))
	return p.contentURI(table) + "/" + strconv.FormatInt(id, 10), nil
}

// Update changes matching rows. Observers are notified only if a row changed.
func (p *SQLProvider) Update(ctx context.Context, uri string, values domain.Values, sel domain.Selection) (int64, error) {
	table, err := p.table(uri)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	cols, args, err := splitValues(table, values)
	if err != nil {
		return 0, err
	}

	assignments := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(assignments, ", "), where(sel))
	args = append(args, sel.Args...)

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		p.logger.Debug("update rejected", zap.String("table", table), zap.Error(err))
		return 0, nil
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		p.NotifyChange(p.contentURI(table))
	}
	return rows, nil
}

// Delete removes matching rows. Observers are notified only if a row was removed.
func (p *SQLProvider) Delete(ctx context.Context, uri string, sel domain.Selection) (int64, error) {
	table, err := p.table(uri)
	if err != nil {
		return 0, err
	}
	rows, err := p.delete(ctx, p.db, table, sel)
	if err != nil {
		p.logger.Debug("delete rejected", zap.String("table", table), zap.Error(err))
		return 0, nil
	}
	if rows > 0 {
		p.NotifyChange(p.contentURI(table))
	}
	return rows, nil
}

// TypeOf returns the directory content type of the target.
func (p *SQLProvider) TypeOf(uri string) (string, error) {
	table, err := p.table(uri)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", domain.CursorDirBaseType, p.authority, table), nil
}

// ApplyBatch runs ops in one transaction so readers never see a half-applied
// replace. Rejected inserts are counted in BatchResult.Failed and do not
// abort the batch unless the operation is Required. Any other error rolls
// everything back.
func (p *SQLProvider) ApplyBatch(ctx context.Context, ops []domain.Operation) (domain.BatchResult, error) {
	var result domain.BatchResult

	tables := make([]string, len(ops))
	for i, op := range ops {
		table, err := p.table(op.URI)
		if err != nil {
			return result, err
		}
		tables[i] = table
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	changed := make([]string, 0, 2)
	markChanged := func(table string) {
		for _, t := range changed {
			if t == table {
				return
			}
		}
		changed = append(changed, table)
	}

	for i, op := range ops {
		table := tables[i]
		switch op.Type {
		case domain.OpInsert:
			id, err := p.insert(ctx, tx, table, op.Values)
			if err != nil && op.Required {
				if errors.Is(err, domain.ErrWriteFailed) {
					return domain.BatchResult{}, fmt.Errorf("batch op %d: %w", i, err)
				}
				return domain.BatchResult{}, fmt.Errorf("%w: batch op %d: %w", domain.ErrWriteFailed, i, err)
			}
			if err != nil {
				p.logger.Debug("batch insert rejected",
					zap.String("table", table),
					zap.Error(err))
				result.Failed++
				continue
			}
			result.Inserted = append(result.Inserted, p.contentURI(table)+"/"+strconv.FormatInt(id, 10))
			markChanged(table)
		case domain.OpDelete:
			rows, err := p.delete(ctx, tx, table, op.Selection)
			if err != nil {
				return domain.BatchResult{}, fmt.Errorf("batch delete from %s: %w", table, err)
			}
			result.Deleted += rows
			if rows > 0 {
				markChanged(table)
			}
		default:
			return domain.BatchResult{}, fmt.Errorf("unsupported batch operation %d", op.Type)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	for _, table := range changed {
		p.NotifyChange(p.contentURI(table))
	}
	return result, nil
}

// RegisterObserver subscribes fn to changes of the target behind uri.
func (p *SQLProvider) RegisterObserver(uri string, fn func(uri string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextObsID
	p.nextObsID++
	if p.observers[uri] == nil {
		p.observers[uri] = make(map[int]func(string))
	}
	p.observers[uri][id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers[uri], id)
	}
}

// NotifyChange calls every observer registered for uri.
func (p *SQLProvider) NotifyChange(uri string) {
	p.mu.RLock()
	fns := make([]func(string), 0, len(p.observers[uri]))
	for _, fn := range p.observers[uri] {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(uri)
	}
}

// table maps a content URI to its table name.
func (p *SQLProvider) table(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "content" || u.Host != p.authority {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTarget, uri)
	}
	table := strings.TrimPrefix(u.Path, "/")
	if _, ok := tableColumns[table]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTarget, uri)
	}
	return table, nil
}

func (p *SQLProvider) contentURI(table string) string {
	return "content://" + p.authority + "/" + table
}

func (p *SQLProvider) query(ctx context.Context, r sqlRunner, table string, projection []string, sel domain.Selection) ([]domain.Values, error) {
	cols := projection
	if len(cols) == 0 {
		cols = tableColumns[table]
	}
	for _, c := range cols {
		if !hasColumn(table, c) {
			return nil, fmt.Errorf("%w: %s.%s", domain.ErrUnknownColumn, table, c)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(cols, ", "), table, where(sel), domain.ColumnID)
	rows, err := r.QueryContext(ctx, query, sel.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var result []domain.Values
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		row := make(domain.Values, len(cols))
		for i, c := range cols {
			if b, ok := dest[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = dest[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (p *SQLProvider) insert(ctx context.Context, r sqlRunner, table string, values domain.Values) (int64, error) {
	cols, args, err := splitValues(table, values)
	if err != nil {
		return 0, err
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)
	}

	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %s: %v", domain.ErrWriteFailed, table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %s: %v", domain.ErrWriteFailed, table, err)
	}
	return id, nil
}

func (p *SQLProvider) delete(ctx context.Context, r sqlRunner, table string, sel domain.Selection) (int64, error) {
	result, err := r.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s%s", table, where(sel)), sel.Args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// splitValues returns column names in sorted order with matching arguments.
func splitValues(table string, values domain.Values) ([]string, []any, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		if !hasColumn(table, c) {
			return nil, nil, fmt.Errorf("%w: %s.%s", domain.ErrUnknownColumn, table, c)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = values[c]
	}
	return cols, args, nil
}

func hasColumn(table, col string) bool {
	for _, c := range tableColumns[table] {
		if c == col {
			return true
		}
	}
	return false
}

func where(sel domain.Selection) string {
	if strings.TrimSpace(sel.Where) == "" {
		return ""
	}
	return " WHERE " + sel.Where
}

// Ensure SQLProvider implements domain.ContentProvider.
var _ domain.ContentProvider = (*SQLProvider)(nil)
