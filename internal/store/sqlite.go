package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/teamkonekt/konekt/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// LastChecked returns when the category's list was last checked for new
// items. The bool is false when it never was.
func (s *SQLiteStore) LastChecked(ctx context.Context, cat model.Category) (time.Time, bool, error) {
	var at time.Time
	err := s.db.GetContext(ctx, &at,
		"SELECT last_checked_at FROM seen_markers WHERE category = ?", string(cat),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading %s marker: %w", cat, err)
	}
	return at, true, nil
}

// MarkChecked stores the time the category's list was checked.
func (s *SQLiteStore) MarkChecked(ctx context.Context, cat model.Category, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seen_markers (category, last_checked_at) VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET last_checked_at = excluded.last_checked_at`,
		string(cat), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s marker: %w", cat, err)
	}
	return nil
}

// SaveSnapshot replaces the stored first page of a resource.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, resource string, payload []byte, totalPages int) error {
	if totalPages < 1 {
		totalPages = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO page_snapshots (resource, payload, total_pages, fetched_at)
		VALUES (?, ?, ?, ?)`,
		resource, payload, totalPages, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s snapshot: %w", resource, err)
	}
	return nil
}

// LoadSnapshot returns the stored first page of a resource, or a nil
// payload when there is none.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, resource string) ([]byte, int, error) {
	var row struct {
		Payload    []byte `db:"payload"`
		TotalPages int    `db:"total_pages"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT payload, total_pages FROM page_snapshots WHERE resource = ?", resource,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("loading %s snapshot: %w", resource, err)
	}
	return row.Payload, row.TotalPages, nil
}

// RecordBadgeChange appends a badge increase to the journal.
func (s *SQLiteStore) RecordBadgeChange(ctx context.Context, cat model.Category, previous, current int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO badge_events (id, category, previous_count, current_count, read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		uuid.NewString(), string(cat), previous, current, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s badge change: %w", cat, err)
	}
	return nil
}

// RecentBadgeEvents returns up to limit journal entries, newest first.
func (s *SQLiteStore) RecentBadgeEvents(ctx context.Context, limit int) ([]model.BadgeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []model.BadgeEvent
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, category, previous_count, current_count, read, created_at
		FROM badge_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying badge events: %w", err)
	}
	return events, nil
}

// MarkBadgeEventsRead marks every journal entry of a category as read.
func (s *SQLiteStore) MarkBadgeEventsRead(ctx context.Context, cat model.Category) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE badge_events SET read = 1 WHERE category = ? AND read = 0", string(cat),
	)
	if err != nil {
		return fmt.Errorf("marking %s badge events read: %w", cat, err)
	}
	return nil
}

// Clear deletes every cached row. The schema is kept.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"seen_markers", "page_snapshots", "badge_events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}
