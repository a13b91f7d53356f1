package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ybarda/stagekeeper/internal/model"
)

// DevLocalScheme marks a negotiated upload target that points at the
// server's local development storage. The server has already recorded the
// attachment by path; no binary transfer happens for these targets.
const DevLocalScheme = "DEV_LOCAL://"

// CreateNoteRequest is the body for creating a project note.
type CreateNoteRequest struct {
	StageID *string `json:"stage_id"`
	Body    string  `json:"body"`
}

// UpsertCheckRequest is the body for recording a check item's progress.
// Note is omitted-as-null when the draft note is empty.
type UpsertCheckRequest struct {
	IsDone bool    `json:"is_done"`
	Note   *string `json:"note"`
}

// NegotiateUploadRequest asks the server for a place to put an attachment's
// bytes. LocalURI is the client-side source path, which development servers
// use verbatim as the storage path.
type NegotiateUploadRequest struct {
	StageID     *string `json:"stage_id"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	LocalURI    string  `json:"local_uri"`
}

// UploadTarget is the server's answer to an upload negotiation: a presigned
// destination for the bytes and the storage path the server recorded.
type UploadTarget struct {
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
}

// IsDevLocal reports whether the target short-circuits the binary transfer.
func (t UploadTarget) IsDevLocal() bool {
	return len(t.UploadURL) >= len(DevLocalScheme) &&
		t.UploadURL[:len(DevLocalScheme)] == DevLocalScheme
}

// Remote is the I/O seam the progress, sync, and media layers depend on.
// *Client implements it against the real API; tests substitute fakes.
type Remote interface {
	FetchStageView(ctx context.Context, projectID, stageID string) (*model.StageView, error)
	ListNotes(ctx context.Context, projectID, stageID string) ([]model.Note, error)
	CreateNote(ctx context.Context, projectID string, req CreateNoteRequest) error
	UpsertCheck(ctx context.Context, projectID, checkItemID string, req UpsertCheckRequest) error
	NegotiateUpload(ctx context.Context, projectID string, req NegotiateUploadRequest) (*UploadTarget, error)
	TransferBytes(ctx context.Context, uploadURL, contentType string, payload []byte) (int, error)
}

// FetchStageView loads the merged stage view for a project.
func (c *Client) FetchStageView(
	ctx context.Context,
	projectID, stageID string,
) (*model.StageView, error) {
	var view model.StageView
	path := fmt.Sprintf("/stages/projects/%s/%s", projectID, stageID)
	if err := c.Get(ctx, path, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListNotes returns the project's notes filtered to one stage.
func (c *Client) ListNotes(
	ctx context.Context,
	projectID, stageID string,
) ([]model.Note, error) {
	var notes []model.Note
	path := fmt.Sprintf(
		"/projects/%s/notes?stage_id=%s",
		projectID, url.QueryEscape(stageID),
	)
	if err := c.Get(ctx, path, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote appends a new note to the project.
func (c *Client) CreateNote(
	ctx context.Context,
	projectID string,
	req CreateNoteRequest,
) error {
	path := fmt.Sprintf("/projects/%s/notes", projectID)
	return c.Post(ctx, path, req, nil)
}

// UpsertCheck records the done/note state of one check item.
func (c *Client) UpsertCheck(
	ctx context.Context,
	projectID, checkItemID string,
	req UpsertCheckRequest,
) error {
	path := fmt.Sprintf("/projects/%s/checks/%s", projectID, checkItemID)
	return c.Post(ctx, path, req, nil)
}

// NegotiateUpload asks the server for an upload destination.
func (c *Client) NegotiateUpload(
	ctx context.Context,
	projectID string,
	req NegotiateUploadRequest,
) (*UploadTarget, error) {
	var target UploadTarget
	path := fmt.Sprintf("/projects/%s/media/upload", projectID)
	if err := c.Post(ctx, path, req, &target); err != nil {
		return nil, err
	}
	return &target, nil
}

// TransferBytes performs the binary PUT leg of an upload.
func (c *Client) TransferBytes(
	ctx context.Context,
	uploadURL, contentType string,
	payload []byte,
) (int, error) {
	return c.PutBytes(ctx, uploadURL, contentType, payload)
}
