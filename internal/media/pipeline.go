// Package media manages the photo attachment lifecycle for check items:
// local pick, optimistic preview, presigned-upload negotiation, and the
// binary transfer.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ybarda/stagekeeper/internal/api"
)

// ErrUploadInFlight is returned when an attach is requested for a check
// item that already has an upload running. Items serialize their own
// uploads; different items upload independently.
var ErrUploadInFlight = errors.New("an upload is already running for this item")

// Pipeline tracks pending attachment drafts per check item and drives each
// one through negotiation and transfer. Uploads run on background
// goroutines while the UI reads pipeline state: the pipeline's mutex
// guards the draft maps, each Draft guards its own lifecycle fields.
type Pipeline struct {
	remote    api.Remote
	projectID string
	logger    *slog.Logger

	mu       sync.Mutex
	pending  map[string][]*Draft
	inFlight map[string]bool
}

// NewPipeline creates a pipeline for one project's attachments.
func NewPipeline(remote api.Remote, projectID string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		remote:    remote,
		projectID: projectID,
		logger:    logger,
		pending:   make(map[string][]*Draft),
		inFlight:  make(map[string]bool),
	}
}

// Attach registers a picked image against a check item and returns the new
// draft in the Picked state. The draft is immediately visible to the UI
// (optimistic preview) before any network work happens. Attach fails with
// ErrUploadInFlight while the item has an upload running.
func (p *Pipeline) Attach(checkItemID string, sel Selection) (*Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight[checkItemID] {
		return nil, ErrUploadInFlight
	}

	d := newDraft(checkItemID, sel)
	p.pending[checkItemID] = append(p.pending[checkItemID], d)
	return d, nil
}

// Pending returns the drafts attached to a check item this session, in
// pick order. Failed drafts stay in the list so the UI keeps showing their
// thumbnails.
func (p *Pipeline) Pending(checkItemID string) []*Draft {
	p.mu.Lock()
	defer p.mu.Unlock()

	drafts := p.pending[checkItemID]
	out := make([]*Draft, len(drafts))
	copy(out, drafts)
	return out
}

// InFlight reports whether the check item currently has an upload running.
// The UI disables the attach action while this is true.
func (p *Pipeline) InFlight(checkItemID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight[checkItemID]
}

// Upload drives a picked draft through negotiation and binary transfer.
// On any failure the draft lands in Failed with the reason recorded; the
// draft is not retried automatically. A successful upload leaves the draft
// Confirmed; the server-side media list reflects it after the next reload.
func (p *Pipeline) Upload(ctx context.Context, d *Draft, stageID string) error {
	p.mu.Lock()
	if p.inFlight[d.CheckItemID] {
		p.mu.Unlock()
		return ErrUploadInFlight
	}
	if !d.claim() {
		p.mu.Unlock()
		return fmt.Errorf("draft %s is %s, expected picked", d.ID, d.State())
	}
	p.inFlight[d.CheckItemID] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, d.CheckItemID)
		p.mu.Unlock()
	}()

	err := p.run(ctx, d, stageID)
	if err != nil {
		p.fail(d, err)
		return err
	}

	d.setState(StateConfirmed)

	p.logger.Info("attachment confirmed",
		slog.String("check_item_id", d.CheckItemID),
		slog.String("storage_path", d.StoragePath()))
	return nil
}

// run performs the negotiate and transfer legs.
func (p *Pipeline) run(ctx context.Context, d *Draft, stageID string) error {
	target, err := p.remote.NegotiateUpload(ctx, p.projectID, api.NegotiateUploadRequest{
		StageID:     &stageID,
		Filename:    d.Source.Filename,
		ContentType: d.Source.ContentType,
		LocalURI:    d.Source.Path,
	})
	if err != nil {
		return fmt.Errorf("negotiating upload: %w", err)
	}

	d.setTarget(target.UploadURL, target.StoragePath)

	// Development servers record the attachment by path alone; there is
	// no external store to transfer to.
	if target.IsDevLocal() {
		return nil
	}

	d.setState(StateUploading)

	payload, err := os.ReadFile(d.Source.Path)
	if err != nil {
		if os.IsPermission(err) {
			return &PermissionError{Path: d.Source.Path, Err: err}
		}
		return fmt.Errorf("reading picked file: %w", err)
	}

	status, err := p.remote.TransferBytes(
		ctx, target.UploadURL, d.Source.ContentType, payload,
	)
	if err != nil {
		return fmt.Errorf("transferring image: %w", err)
	}
	if status < 200 || status >= 300 {
		return &UploadError{StatusCode: status}
	}

	return nil
}

func (p *Pipeline) fail(d *Draft, err error) {
	d.markFailed(err.Error())

	p.logger.Warn("attachment failed",
		slog.String("check_item_id", d.CheckItemID),
		slog.String("reason", err.Error()))
}
