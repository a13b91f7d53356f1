package model

import "time"

// Stage is a predefined phase of a construction project with its guidance
// text. Stages are authored server-side and never mutated by the client.
type Stage struct {
	// ID is the server-assigned unique identifier for the stage.
	ID string `json:"id"`

	// Slug is the stable machine-readable name (e.g., "foundations").
	Slug string `json:"slug"`

	// Title is the human-readable stage title.
	Title string `json:"title"`

	// ShortExplanation summarizes what the stage covers.
	ShortExplanation string `json:"short_explanation"`

	// CommonMistakes lists pitfalls to watch for during this stage.
	CommonMistakes string `json:"common_mistakes"`

	// MustDocument describes what the owner should photograph or record.
	MustDocument string `json:"must_document"`

	// OrderIndex is the stage's position within the project timeline.
	OrderIndex int `json:"order_index"`
}

// CheckItem is one checklist entry within a stage, combined with the
// current user's progress for it. The progress fields (IsDone, Note) are
// the only parts the client ever writes back.
type CheckItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	OrderIndex  int     `json:"order_index"`

	// IsDone is the server-recorded completion state for this project.
	IsDone bool `json:"is_done"`

	// Note is the server-recorded per-item note, nil when none exists.
	Note *string `json:"note"`

	// Media lists attachments already recorded against this item.
	Media []Media `json:"media,omitempty"`
}

// Media is a stored attachment reference returned by the server.
type Media struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	Caption *string `json:"caption,omitempty"`
}

// StageView is the server's merged view of one stage for one project:
// the stage definition, its check items with progress, and stage-level media.
type StageView struct {
	ProjectID  string      `json:"project_id"`
	Stage      Stage       `json:"stage"`
	CheckItems []CheckItem `json:"check_items"`
	Media      []Media     `json:"media,omitempty"`
}

// Note is a free-text note persisted server-side, scoped to a project and
// optionally to a stage. Notes are append-only: the client creates new ones
// and never edits or deletes existing records.
type Note struct {
	ID        string    `json:"id"`
	StageID   *string   `json:"stage_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// LatestNote returns the note with the most recent CreatedAt, or nil when
// the slice is empty. Used to seed the stage-level draft note.
func LatestNote(notes []Note) *Note {
	var latest *Note
	for i := range notes {
		if latest == nil || notes[i].CreatedAt.After(latest.CreatedAt) {
			latest = &notes[i]
		}
	}
	return latest
}
