package infra

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// sqlcipherKeyLen is the raw key length SQLCipher takes via PRAGMA key = x'...'.
const sqlcipherKeyLen = 32

// ErrOrphanedDatabase is returned when the blocker database exists but the
// key file that unlocks it does not. A fresh key would never open it.
var ErrOrphanedDatabase = errors.New("database exists without its key file")

// KeyPath returns the key file paired with the blocker database in dataDir:
// a hidden file named after the database, outside the watcher's prefix.
func KeyPath(dataDir string) string {
	stem := strings.TrimSuffix(DatabaseName, filepath.Ext(DatabaseName))
	return filepath.Join(dataDir, "."+stem+".key")
}

// FileKeyProvider keeps the SQLCipher key hex-encoded in a 0600 file beside
// the database it unlocks.
type FileKeyProvider struct {
	path   string
	dbPath string
}

func NewFileKeyProvider(dataDir string) *FileKeyProvider {
	return &FileKeyProvider{
		path:   KeyPath(dataDir),
		dbPath: DatabasePath(dataDir),
	}
}

// GetKey loads the key.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key for %s: %w", filepath.Base(p.dbPath), err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key %s: %w", p.path, err)
	}
	if err := checkKeyLen(key); err != nil {
		return nil, err
	}
	return key, nil
}

// StoreKey replaces the key file atomically so a crash never leaves a
// truncated key next to an encrypted database.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if err := checkKeyLen(key); err != nil {
		return err
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to stage key: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage key: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to install key: %w", err)
	}
	return nil
}

func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// databaseExists reports whether the paired database has been created.
func (p *FileKeyProvider) databaseExists() bool {
	_, err := os.Stat(p.dbPath)
	return err == nil
}

func checkKeyLen(key []byte) error {
	if len(key) != sqlcipherKeyLen {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), sqlcipherKeyLen)
	}
	return nil
}

// GenerateKey returns a fresh random SQLCipher key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, sqlcipherKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the stored key, creating one on first use so the database
// made by the first command opens for every later one. A FileKeyProvider
// whose database already exists without a key yields ErrOrphanedDatabase.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	if fp, ok := provider.(*FileKeyProvider); ok && fp.databaseExists() {
		return nil, fmt.Errorf("%w: %s", ErrOrphanedDatabase, fp.dbPath)
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

var _ domain.KeyProvider = (*FileKeyProvider)(nil)
