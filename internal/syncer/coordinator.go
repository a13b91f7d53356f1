// Package syncer converts a stage's draft state into the minimal batch of
// save requests and reduces their outcomes into one result for the UI.
package syncer

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/ybarda/stagekeeper/internal/api"
	"github.com/ybarda/stagekeeper/internal/draft"
)

// CommitState represents the coordinator's current activity.
type CommitState int

const (
	CommitIdle CommitState = iota
	CommitRunning
	CommitFailed
)

// SaveResultMsg is a tea.Msg sent when a commit completes. Err is nil only
// when every scheduled request succeeded.
type SaveResultMsg struct {
	StageID    string
	NoteSaved  bool
	ItemsSaved int
	Err        error
}

// Recorder receives a record of each save attempt for the session journal.
type Recorder interface {
	RecordSave(ctx context.Context, stageID string, itemCount int, noteSaved bool, saveErr error)
}

// commitTimeout is the maximum time allowed for one save batch.
const commitTimeout = 30 * time.Second

// Coordinator issues the save batch for a drafting session. The batch is
// dispatched concurrently and joined with abort-on-first-failure
// semantics: requests that already succeeded server-side are not rolled
// back, and re-saving the unchanged draft is safe because the server
// treats every request as an upsert or append.
type Coordinator struct {
	remote   api.Remote
	recorder Recorder
	logger   *slog.Logger

	mu       gosync.Mutex
	state    CommitState
	lastErr  error
	lastSave time.Time
}

// New creates a Coordinator. recorder may be nil when no journal is wired.
func New(remote api.Remote, recorder Recorder, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		remote:   remote,
		recorder: recorder,
		logger:   logger,
	}
}

// State returns the coordinator's current state and the last commit error.
func (c *Coordinator) State() (CommitState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.lastErr
}

// LastSave returns the completion time of the most recent successful commit.
func (c *Coordinator) LastSave() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSave
}

// CommitCmd returns a tea.Cmd that runs Commit on a background goroutine
// and delivers the outcome as a SaveResultMsg.
func (c *Coordinator) CommitCmd(s *draft.Session) tea.Cmd {
	note, noteDirty := s.DirtyGeneralNote()
	items := s.DirtyCheckItems()
	projectID := s.ProjectID()
	stageID := s.StageID()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()

		err := c.commit(ctx, projectID, stageID, note, noteDirty, items)
		return SaveResultMsg{
			StageID:    stageID,
			NoteSaved:  noteDirty && err == nil,
			ItemsSaved: len(items),
			Err:        err,
		}
	}
}

// Commit sends the dirty subset of the session to the server and waits for
// every request to settle. The session itself is never mutated: on success
// the caller reloads to pick up canonical server state, on failure the
// draft stays intact for retry.
func (c *Coordinator) Commit(ctx context.Context, s *draft.Session) error {
	note, noteDirty := s.DirtyGeneralNote()
	return c.commit(ctx, s.ProjectID(), s.StageID(), note, noteDirty, s.DirtyCheckItems())
}

func (c *Coordinator) commit(
	ctx context.Context,
	projectID, stageID string,
	note string,
	noteDirty bool,
	items []draft.DirtyCheckItem,
) error {
	c.setState(CommitRunning, nil)

	g, gCtx := errgroup.WithContext(ctx)

	if noteDirty {
		g.Go(func() error {
			return c.remote.CreateNote(gCtx, projectID, api.CreateNoteRequest{
				StageID: &stageID,
				Body:    note,
			})
		})
	}

	for _, item := range items {
		g.Go(func() error {
			return c.remote.UpsertCheck(gCtx, projectID, item.ItemID, api.UpsertCheckRequest{
				IsDone: item.IsDone,
				Note:   item.Note,
			})
		})
	}

	err := g.Wait()

	if c.recorder != nil {
		c.recorder.RecordSave(ctx, stageID, len(items), noteDirty, err)
	}

	if err != nil {
		c.setState(CommitFailed, err)
		c.logger.Warn("save failed",
			slog.String("stage_id", stageID),
			slog.Int("items", len(items)),
			slog.String("error", err.Error()))
		return err
	}

	c.setState(CommitIdle, nil)
	c.logger.Info("save completed",
		slog.String("stage_id", stageID),
		slog.Int("items", len(items)),
		slog.Bool("note_saved", noteDirty))
	return nil
}

func (c *Coordinator) setState(state CommitState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state
	c.lastErr = err
	if state == CommitIdle && err == nil {
		c.lastSave = time.Now()
	}
}
