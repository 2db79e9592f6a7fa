package infra

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabase_CreatesSchema(t *testing.T) {
	db, dataDir := newTestDB(t)

	_, err := os.Stat(DatabasePath(dataDir))
	require.NoError(t, err)

	for _, table := range []string{"data_app", "data_work", "daemon_state"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestOpenDatabase_Reopen(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	key, err := GenerateKey()
	require.NoError(t, err)

	db, err := OpenDatabase(ctx, dataDir, key)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO data_app (packages) VALUES ('steam')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDatabase(ctx, dataDir, key)
	require.NoError(t, err, "migrations are idempotent")
	defer db.Close()

	var pkg string
	require.NoError(t, db.QueryRow(`SELECT packages FROM data_app`).Scan(&pkg))
	assert.Equal(t, "steam", pkg)
}

func TestOpenDatabase_WrongKey(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	key, err := GenerateKey()
	require.NoError(t, err)
	db, err := OpenDatabase(ctx, dataDir, key)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	other, err := GenerateKey()
	require.NoError(t, err)
	_, err = OpenDatabase(ctx, dataDir, other)
	assert.Error(t, err, "database must not open with a different key")
}

func TestOpenDatabase_IsEncrypted(t *testing.T) {
	_, dataDir := newTestDB(t)

	data, err := os.ReadFile(DatabasePath(dataDir))
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.NotContains(t, string(data[:16]), "SQLite format 3")
}
