// Package journal records what happened during the current editing
// session: save attempts and attachment lifecycle events. The default
// database path is ":memory:", so the journal lives and dies with the
// process; pointing it at a file is an explicit opt-in.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SaveAttempt is one recorded save batch.
type SaveAttempt struct {
	ID        string    `db:"id"`
	StageID   string    `db:"stage_id"`
	ItemCount int       `db:"item_count"`
	NoteSaved bool      `db:"note_saved"`
	Succeeded bool      `db:"succeeded"`
	Error     string    `db:"error"`
	CreatedAt time.Time `db:"created_at"`
}

// AttachmentEvent is one recorded attachment state transition.
type AttachmentEvent struct {
	ID          string    `db:"id"`
	DraftID     string    `db:"draft_id"`
	CheckItemID string    `db:"check_item_id"`
	State       string    `db:"state"`
	Detail      string    `db:"detail"`
	CreatedAt   time.Time `db:"created_at"`
}

// Journal is a SQLite-backed session activity log.
type Journal struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (or creates) the journal database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func Open(dbPath string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	j := &Journal{db: db, logger: logger}
	if err := j.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (j *Journal) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := j.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = j.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := j.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordSave logs a save attempt. It satisfies syncer.Recorder; failures
// to write the journal are logged and never block a save.
func (j *Journal) RecordSave(
	ctx context.Context,
	stageID string,
	itemCount int,
	noteSaved bool,
	saveErr error,
) {
	errText := ""
	if saveErr != nil {
		errText = saveErr.Error()
	}

	if err := j.InsertSaveAttempt(ctx, SaveAttempt{
		ID:        uuid.NewString(),
		StageID:   stageID,
		ItemCount: itemCount,
		NoteSaved: noteSaved,
		Succeeded: saveErr == nil,
		Error:     errText,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		j.logger.Warn("journal write failed", slog.String("error", err.Error()))
	}
}

// InsertSaveAttempt inserts a save attempt row.
func (j *Journal) InsertSaveAttempt(ctx context.Context, a SaveAttempt) error {
	const query = `
		INSERT INTO save_attempts (
			id, stage_id, item_count, note_saved, succeeded, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		a.ID, a.StageID, a.ItemCount, a.NoteSaved, a.Succeeded, a.Error, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting save attempt: %w", err)
	}
	return nil
}

// RecordAttachment logs an attachment state transition. Failures are
// logged, never surfaced.
func (j *Journal) RecordAttachment(
	ctx context.Context,
	draftID, checkItemID, state, detail string,
) {
	if err := j.InsertAttachmentEvent(ctx, AttachmentEvent{
		ID:          uuid.NewString(),
		DraftID:     draftID,
		CheckItemID: checkItemID,
		State:       state,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		j.logger.Warn("journal write failed", slog.String("error", err.Error()))
	}
}

// InsertAttachmentEvent inserts an attachment event row.
func (j *Journal) InsertAttachmentEvent(ctx context.Context, e AttachmentEvent) error {
	const query = `
		INSERT INTO attachment_events (
			id, draft_id, check_item_id, state, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		e.ID, e.DraftID, e.CheckItemID, e.State, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting attachment event: %w", err)
	}
	return nil
}

// RecentSaves returns the most recent save attempts, newest first.
func (j *Journal) RecentSaves(ctx context.Context, limit int) ([]SaveAttempt, error) {
	if limit <= 0 {
		limit = 20
	}

	var attempts []SaveAttempt
	err := j.db.SelectContext(ctx, &attempts,
		"SELECT * FROM save_attempts ORDER BY created_at DESC, id LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying save attempts: %w", err)
	}
	return attempts, nil
}

// AttachmentHistory returns all recorded events for one check item, oldest
// first.
func (j *Journal) AttachmentHistory(ctx context.Context, checkItemID string) ([]AttachmentEvent, error) {
	var events []AttachmentEvent
	err := j.db.SelectContext(ctx, &events,
		"SELECT * FROM attachment_events WHERE check_item_id = ? ORDER BY created_at, id",
		checkItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attachment events: %w", err)
	}
	return events, nil
}
