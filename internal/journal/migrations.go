package journal

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

CREATE TABLE IF NOT EXISTS save_attempts (
	id         TEXT PRIMARY KEY,
	stage_id   TEXT NOT NULL,
	item_count INTEGER NOT NULL DEFAULT 0,
	note_saved INTEGER NOT NULL DEFAULT 0 CHECK(note_saved IN (0, 1)),
	succeeded  INTEGER NOT NULL DEFAULT 0 CHECK(succeeded IN (0, 1)),
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attachment_events (
	id            TEXT PRIMARY KEY,
	draft_id      TEXT NOT NULL,
	check_item_id TEXT NOT NULL,
	state         TEXT NOT NULL,
	detail        TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_save_attempts_stage_id ON save_attempts(stage_id);
CREATE INDEX IF NOT EXISTS idx_save_attempts_created ON save_attempts(created_at);
CREATE INDEX IF NOT EXISTS idx_attachment_events_item ON attachment_events(check_item_id);
CREATE INDEX IF NOT EXISTS idx_attachment_events_draft ON attachment_events(draft_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
