package services

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations, versions starting at 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id              TEXT NOT NULL,
	user_id         TEXT NOT NULL,
	type            TEXT NOT NULL,
	title           TEXT NOT NULL,
	message         TEXT NOT NULL DEFAULT '',
	data            TEXT NOT NULL DEFAULT '',
	is_read         INTEGER NOT NULL DEFAULT 0,
	is_archived     INTEGER NOT NULL DEFAULT 0,
	related_id      TEXT NOT NULL DEFAULT '',
	related_user_id TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_created
	ON notifications(user_id, created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_notifications_user_unread
	ON notifications(user_id, is_read, is_archived);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
