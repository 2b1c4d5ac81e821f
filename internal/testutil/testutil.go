// Package testutil provides shared test helpers for vaults, journals, and
// deterministic clocks.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/laguz/internal/journal"
	"github.com/starford/laguz/internal/storage"
)

// FixedClock returns the same instant on every call.
type FixedClock struct {
	T time.Time
}

// Now implements cycle.Clock.
func (c FixedClock) Now() time.Time { return c.T }

// Vault creates a temporary vault directory with an FS provider.
func Vault(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// JournalDB creates a temporary SQLite journal that is cleaned up with the
// test.
func JournalDB(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
