// Package draft holds the in-memory editing state for one stage: the
// server snapshot merged with the user's unsaved changes. A Session is
// created when the stage screen loads and discarded when the screen closes
// or a fresh load supersedes it.
package draft

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ybarda/stagekeeper/internal/api"
	"github.com/ybarda/stagekeeper/internal/model"
)

// DirtyCheckItem is one check item's progress as it will be sent to the
// server. Note is nil when the draft note trims to empty.
type DirtyCheckItem struct {
	ItemID string
	IsDone bool
	Note   *string
}

// Session is the single source of truth for one stage's editable state.
// All mutations happen on the UI event loop; Session does no locking and
// must not be shared across goroutines.
type Session struct {
	projectID string
	stageID   string

	view *model.StageView

	checked     map[string]struct{}
	itemNotes   map[string]string
	generalNote string
}

// Load fetches the stage view and the stage's notes concurrently and seeds
// a new Session from them. If either fetch fails the whole load fails; a
// partial view is never shown.
func Load(
	ctx context.Context,
	remote api.Remote,
	projectID, stageID string,
) (*Session, error) {
	var (
		view  *model.StageView
		notes []model.Note
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := remote.FetchStageView(gCtx, projectID, stageID)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	g.Go(func() error {
		n, err := remote.ListNotes(gCtx, projectID, stageID)
		if err != nil {
			return err
		}
		notes = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Session{
		projectID: projectID,
		stageID:   stageID,
		view:      view,
		checked:   make(map[string]struct{}),
		itemNotes: make(map[string]string),
	}

	for _, item := range view.CheckItems {
		if item.IsDone {
			s.checked[item.ID] = struct{}{}
		}
		if item.Note != nil && *item.Note != "" {
			s.itemNotes[item.ID] = *item.Note
		}
	}

	if latest := model.LatestNote(notes); latest != nil {
		s.generalNote = latest.Body
	}

	return s, nil
}

// ProjectID returns the project this session edits.
func (s *Session) ProjectID() string { return s.projectID }

// StageID returns the stage this session edits.
func (s *Session) StageID() string { return s.stageID }

// View returns the server snapshot the session was seeded from.
func (s *Session) View() *model.StageView { return s.view }

// ToggleCheck flips the done state of a check item. Toggling twice in a
// row restores the original state.
func (s *Session) ToggleCheck(itemID string) {
	if _, ok := s.checked[itemID]; ok {
		delete(s.checked, itemID)
		return
	}
	s.checked[itemID] = struct{}{}
}

// IsChecked reports whether the user currently considers the item done.
func (s *Session) IsChecked(itemID string) bool {
	_, ok := s.checked[itemID]
	return ok
}

// CheckedCount returns the number of items currently marked done.
func (s *Session) CheckedCount() int { return len(s.checked) }

// SetItemNote overwrites the draft note for a check item.
func (s *Session) SetItemNote(itemID, text string) {
	s.itemNotes[itemID] = text
}

// ItemNote returns the current draft note for a check item.
func (s *Session) ItemNote(itemID string) string {
	return s.itemNotes[itemID]
}

// SetGeneralNote overwrites the draft stage-level note.
func (s *Session) SetGeneralNote(text string) {
	s.generalNote = text
}

// GeneralNote returns the current draft stage-level note.
func (s *Session) GeneralNote() string { return s.generalNote }

// DirtyCheckItems returns the check items worth persisting, in stage order:
// exactly those that are checked or carry a note that trims non-empty.
// An unchecked item with no note is excluded even when that differs from
// the last saved state; "nothing worth persisting" wins over diffing.
func (s *Session) DirtyCheckItems() []DirtyCheckItem {
	var dirty []DirtyCheckItem
	for _, item := range s.view.CheckItems {
		note := strings.TrimSpace(s.itemNotes[item.ID])
		done := s.IsChecked(item.ID)
		if !done && note == "" {
			continue
		}

		d := DirtyCheckItem{ItemID: item.ID, IsDone: done}
		if note != "" {
			d.Note = &note
		}
		dirty = append(dirty, d)
	}
	return dirty
}

// DirtyGeneralNote returns the trimmed stage-level note and true when it is
// non-empty, or "" and false when there is nothing to save.
func (s *Session) DirtyGeneralNote() (string, bool) {
	trimmed := strings.TrimSpace(s.generalNote)
	return trimmed, trimmed != ""
}
