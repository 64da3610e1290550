package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS seen_markers (
	category        TEXT PRIMARY KEY,
	last_checked_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS page_snapshots (
	resource    TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	total_pages INTEGER NOT NULL DEFAULT 1,
	fetched_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS badge_events (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	previous_count INTEGER NOT NULL,
	current_count  INTEGER NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_badge_events_created ON badge_events(created_at);
CREATE INDEX IF NOT EXISTS idx_badge_events_unread ON badge_events(category, read);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
