// Package migrations holds the blocker database schema as goose SQL migrations.
package migrations

import "embed"

// FS contains every *.sql migration, applied in version order.
//
//go:embed *.sql
var FS embed.FS
