package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ybarda/stagekeeper/internal/api"
	"github.com/ybarda/stagekeeper/internal/model"
)

type transferCall struct {
	uploadURL   string
	contentType string
	size        int
}

type fakeRemote struct {
	target       *api.UploadTarget
	negotiateErr error
	putStatus    int
	putErr       error

	mu        sync.Mutex
	transfers []transferCall
}

func (f *fakeRemote) FetchStageView(ctx context.Context, projectID, stageID string) (*model.StageView, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRemote) ListNotes(ctx context.Context, projectID, stageID string) ([]model.Note, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRemote) CreateNote(ctx context.Context, projectID string, req api.CreateNoteRequest) error {
	return errors.New("not implemented")
}

func (f *fakeRemote) UpsertCheck(ctx context.Context, projectID, checkItemID string, req api.UpsertCheckRequest) error {
	return errors.New("not implemented")
}

func (f *fakeRemote) NegotiateUpload(ctx context.Context, projectID string, req api.NegotiateUploadRequest) (*api.UploadTarget, error) {
	if f.negotiateErr != nil {
		return nil, f.negotiateErr
	}
	return f.target, nil
}

func (f *fakeRemote) TransferBytes(ctx context.Context, uploadURL, contentType string, payload []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return 0, f.putErr
	}
	f.transfers = append(f.transfers, transferCall{
		uploadURL:   uploadURL,
		contentType: contentType,
		size:        len(payload),
	})
	return f.putStatus, nil
}

func (f *fakeRemote) transferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

func writeTempImage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "site.jpg")
	if err := os.WriteFile(path, []byte("jpegbytes"), 0o644); err != nil {
		t.Fatalf("writing temp image: %v", err)
	}
	return path
}

func pickTestImage(t *testing.T) Selection {
	t.Helper()

	sel, err := NewSelection(writeTempImage(t))
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	return sel
}

func TestNewSelectionDerivesContentType(t *testing.T) {
	sel := pickTestImage(t)

	if sel.Filename != "site.jpg" {
		t.Errorf("filename = %q", sel.Filename)
	}
	if sel.ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", sel.ContentType)
	}
}

func TestNewSelectionMissingFile(t *testing.T) {
	if _, err := NewSelection(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("NewSelection should fail for a missing file")
	}
}

func TestAttachIsOptimistic(t *testing.T) {
	p := NewPipeline(&fakeRemote{}, "p1", nil)

	d, err := p.Attach("c1", pickTestImage(t))
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	// Visible before any network work ran.
	pending := p.Pending("c1")
	if len(pending) != 1 || pending[0].ID != d.ID {
		t.Fatalf("pending = %v, want the new draft", pending)
	}
	if d.State() != StatePicked {
		t.Errorf("state = %s, want picked", d.State())
	}
}

func TestUploadDevLocalTargetSkipsTransfer(t *testing.T) {
	remote := &fakeRemote{
		target: &api.UploadTarget{
			UploadURL:   "DEV_LOCAL:///tmp/site.jpg",
			StoragePath: "/tmp/site.jpg",
		},
	}
	p := NewPipeline(remote, "p1", nil)

	d, err := p.Attach("c1", pickTestImage(t))
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := p.Upload(context.Background(), d, "s1"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if remote.transferCount() != 0 {
		t.Error("dev-local target must never issue a binary PUT")
	}
	if d.State() != StateConfirmed {
		t.Errorf("state = %s, want confirmed", d.State())
	}
	if d.StoragePath() != "/tmp/site.jpg" {
		t.Errorf("storage path = %q", d.StoragePath())
	}
}

func TestUploadTransfersBytesToNegotiatedTarget(t *testing.T) {
	remote := &fakeRemote{
		target: &api.UploadTarget{
			UploadURL:   "https://bucket.example.com/k?sig=abc",
			StoragePath: "p1/site.jpg",
		},
		putStatus: 200,
	}
	p := NewPipeline(remote, "p1", nil)

	d, _ := p.Attach("c1", pickTestImage(t))
	if err := p.Upload(context.Background(), d, "s1"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if remote.transferCount() != 1 {
		t.Fatalf("transfers = %d, want 1", remote.transferCount())
	}
	tr := remote.transfers[0]
	if tr.uploadURL != "https://bucket.example.com/k?sig=abc" {
		t.Errorf("upload URL = %q", tr.uploadURL)
	}
	if tr.contentType != "image/jpeg" {
		t.Errorf("content type = %q", tr.contentType)
	}
	if tr.size == 0 {
		t.Error("payload should not be empty")
	}
	if d.State() != StateConfirmed {
		t.Errorf("state = %s, want confirmed", d.State())
	}
}

func TestUploadNon2xxTransferFailsDraft(t *testing.T) {
	remote := &fakeRemote{
		target:    &api.UploadTarget{UploadURL: "https://bucket.example.com/k"},
		putStatus: 403,
	}
	p := NewPipeline(remote, "p1", nil)

	d, _ := p.Attach("c1", pickTestImage(t))
	err := p.Upload(context.Background(), d, "s1")
	if err == nil {
		t.Fatal("Upload should fail on non-2xx transfer")
	}

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) || uploadErr.StatusCode != 403 {
		t.Errorf("err = %v, want UploadError{403}", err)
	}
	if d.State() != StateFailed {
		t.Errorf("state = %s, want failed", d.State())
	}

	// The optimistic entry stays listed so the UI keeps the thumbnail.
	if len(p.Pending("c1")) != 1 {
		t.Error("failed draft must remain in the pending list")
	}
	// The item is no longer uploading; a fresh pick may start over.
	if p.InFlight("c1") {
		t.Error("failed upload must release the in-flight slot")
	}
}

func TestUploadNegotiationFailureFailsDraft(t *testing.T) {
	remote := &fakeRemote{negotiateErr: errors.New("bad gateway")}
	p := NewPipeline(remote, "p1", nil)

	d, _ := p.Attach("c1", pickTestImage(t))
	if err := p.Upload(context.Background(), d, "s1"); err == nil {
		t.Fatal("Upload should fail when negotiation fails")
	}
	if d.State() != StateFailed {
		t.Errorf("state = %s, want failed", d.State())
	}
	if remote.transferCount() != 0 {
		t.Error("no transfer may happen before negotiation succeeds")
	}
}

func TestUploadRejectsReusedDraft(t *testing.T) {
	remote := &fakeRemote{
		target: &api.UploadTarget{UploadURL: "DEV_LOCAL:///x", StoragePath: "/x"},
	}
	p := NewPipeline(remote, "p1", nil)

	d, _ := p.Attach("c1", pickTestImage(t))
	if err := p.Upload(context.Background(), d, "s1"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := p.Upload(context.Background(), d, "s1"); err == nil {
		t.Error("a confirmed draft must not be uploadable again")
	}
}

func TestDraftStateReadableDuringUpload(t *testing.T) {
	remote := &fakeRemote{
		target:    &api.UploadTarget{UploadURL: "https://b.example.com/k", StoragePath: "p1/site.jpg"},
		putStatus: 200,
	}
	p := NewPipeline(remote, "p1", nil)

	d, _ := p.Attach("c1", pickTestImage(t))

	// The UI reads lifecycle fields while the upload goroutine mutates
	// them; every access must go through the draft's lock.
	done := make(chan struct{})
	reads := make(chan struct{})
	go func() {
		defer close(reads)
		for {
			select {
			case <-done:
				return
			default:
				_ = d.State()
				_ = d.FailReason()
				_ = d.StoragePath()
			}
		}
	}()

	if err := p.Upload(context.Background(), d, "s1"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	close(done)
	<-reads

	if d.State() != StateConfirmed {
		t.Errorf("state = %s, want confirmed", d.State())
	}
}

func TestItemsUploadIndependently(t *testing.T) {
	remote := &fakeRemote{
		target:    &api.UploadTarget{UploadURL: "https://b.example.com/k"},
		putStatus: 200,
	}
	p := NewPipeline(remote, "p1", nil)

	d1, err := p.Attach("c1", pickTestImage(t))
	if err != nil {
		t.Fatalf("Attach c1: %v", err)
	}
	// A second item is free to attach and upload while c1 has a draft.
	d2, err := p.Attach("c2", pickTestImage(t))
	if err != nil {
		t.Fatalf("Attach c2: %v", err)
	}

	if err := p.Upload(context.Background(), d1, "s1"); err != nil {
		t.Fatalf("Upload c1: %v", err)
	}
	if err := p.Upload(context.Background(), d2, "s1"); err != nil {
		t.Fatalf("Upload c2: %v", err)
	}
	if remote.transferCount() != 2 {
		t.Errorf("transfers = %d, want 2", remote.transferCount())
	}
}
