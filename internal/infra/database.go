package infra

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mutecomm/go-sqlcipher/v4" // registers the sqlite3 driver
	"github.com/pressly/goose/v3"

	"github.com/eliteGoblin/focusd/app_block/internal/infra/migrations"
)

// DatabaseName is the file name of the blocker database inside the data directory.
const DatabaseName = "accessibility.db"

// OpenDatabase opens (or creates) the encrypted blocker database and brings
// its schema up to date. The key is used as the SQLCipher passphrase.
func OpenDatabase(ctx context.Context, dataDir string, key []byte) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// One connection: the store serializes its own reads and writes.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DatabasePath returns the database file path for dataDir.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, DatabaseName)
}
