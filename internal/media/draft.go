package media

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle position of an attachment draft. Transitions only
// move forward: Picked -> Negotiating -> Uploading -> Confirmed, with any
// step allowed to land in Failed instead. Failed is terminal; retrying
// means picking again.
type State int

const (
	StatePicked State = iota
	StateNegotiating
	StateUploading
	StateConfirmed
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StatePicked:
		return "picked"
	case StateNegotiating:
		return "negotiating"
	case StateUploading:
		return "uploading"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrCancelled is returned when the user dismisses the picker without
// choosing a file. It is swallowed by the UI, never shown.
var ErrCancelled = errors.New("image selection cancelled")

// PermissionError indicates the picked file could not be read due to
// filesystem permissions.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("no permission to read %s: %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// UploadError indicates the binary transfer leg returned a non-2xx status.
type UploadError struct {
	StatusCode int
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed with status %d", e.StatusCode)
}

// Selection describes a locally picked image file, validated for access.
type Selection struct {
	Path        string
	Filename    string
	ContentType string
}

// NewSelection checks that the file at path is readable and derives the
// filename and content type from it. A permission failure surfaces as
// *PermissionError; other stat failures are returned as-is.
func NewSelection(path string) (Selection, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return Selection{}, &PermissionError{Path: path, Err: err}
		}
		return Selection{}, fmt.Errorf("opening picked file: %w", err)
	}
	f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return Selection{
		Path:        path,
		Filename:    filepath.Base(path),
		ContentType: contentType,
	}, nil
}

// Draft is one attachment moving through the upload lifecycle. It is owned
// by its check item's pending list until confirmed, at which point the
// server-side media record is authoritative (and visible after a reload).
// The lifecycle fields carry their own lock: uploads mutate them on a
// background goroutine while the UI reads them to render the list.
type Draft struct {
	ID          string
	CheckItemID string
	Source      Selection

	mu          sync.Mutex
	state       State
	failReason  string
	uploadURL   string
	storagePath string
}

func newDraft(checkItemID string, sel Selection) *Draft {
	return &Draft{
		ID:          uuid.NewString(),
		CheckItemID: checkItemID,
		Source:      sel,
		state:       StatePicked,
	}
}

// State returns the draft's current lifecycle state.
func (d *Draft) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// FailReason returns the message recorded when the draft failed.
func (d *Draft) FailReason() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failReason
}

// StoragePath returns the server-assigned path, set once negotiation
// succeeds.
func (d *Draft) StoragePath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.storagePath
}

// claim moves the draft from Picked to Negotiating and reports whether it
// was still in Picked; a draft can be claimed for upload exactly once.
func (d *Draft) claim() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StatePicked {
		return false
	}
	d.state = StateNegotiating
	return true
}

func (d *Draft) setState(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
}

func (d *Draft) setTarget(uploadURL, storagePath string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploadURL = uploadURL
	d.storagePath = storagePath
}

func (d *Draft) markFailed(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateFailed
	d.failReason = reason
}
