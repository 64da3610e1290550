package testutil

import (
	"testing"

	"github.com/teamkonekt/konekt/internal/store"
)

// NewTestStore opens a throwaway in-memory database holding the seen-marker,
// page-snapshot and badge-event tables, closed again via t.Cleanup.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
