package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ybarda/stagekeeper/internal/api"
	"github.com/ybarda/stagekeeper/internal/draft"
	"github.com/ybarda/stagekeeper/internal/model"
)

type fakeRemote struct {
	view  *model.StageView
	notes []model.Note
}

func (f *fakeRemote) FetchStageView(ctx context.Context, projectID, stageID string) (*model.StageView, error) {
	return f.view, nil
}

func (f *fakeRemote) ListNotes(ctx context.Context, projectID, stageID string) ([]model.Note, error) {
	return f.notes, nil
}

func (f *fakeRemote) CreateNote(ctx context.Context, projectID string, req api.CreateNoteRequest) error {
	return nil
}

func (f *fakeRemote) UpsertCheck(ctx context.Context, projectID, checkItemID string, req api.UpsertCheckRequest) error {
	return nil
}

func (f *fakeRemote) NegotiateUpload(ctx context.Context, projectID string, req api.NegotiateUploadRequest) (*api.UploadTarget, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRemote) TransferBytes(ctx context.Context, uploadURL, contentType string, payload []byte) (int, error) {
	return 0, errors.New("not implemented")
}

func testModel(t *testing.T) Model {
	t.Helper()

	cfg := &model.AppConfig{}
	cfg.Media.PickerDir = t.TempDir()
	return New(cfg, "", "", "s1", nil, nil)
}

func loadedModel(t *testing.T) Model {
	t.Helper()

	remote := &fakeRemote{
		view: &model.StageView{
			ProjectID: "p1",
			Stage:     model.Stage{ID: "s1", Title: "Foundations"},
			CheckItems: []model.CheckItem{
				{ID: "c1", Title: "Rebar spacing"},
			},
		},
	}
	s, err := draft.Load(context.Background(), remote, "p1", "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	m := testModel(t)
	updated, _ := m.Update(sessionLoadedMsg{session: s})
	return updated.(Model)
}

func TestFailedReloadKeepsDraft(t *testing.T) {
	m := loadedModel(t)

	m.session.ToggleCheck("c1")
	m.session.SetGeneralNote("slab poured before inspection")

	updated, _ := m.Update(sessionLoadedMsg{err: errors.New("network down")})
	m = updated.(Model)

	if m.session == nil {
		t.Fatal("a failed reload must not discard the existing draft")
	}
	if !m.session.IsChecked("c1") {
		t.Error("unsaved check was lost")
	}
	if m.session.GeneralNote() != "slab poured before inspection" {
		t.Error("unsaved general note was lost")
	}
	if !strings.Contains(m.stageView.View(), "Could not refresh") {
		t.Error("failed refresh should surface an alert")
	}
}

func TestFailedInitialLoadShowsErrorState(t *testing.T) {
	m := testModel(t)

	updated, _ := m.Update(sessionLoadedMsg{err: errors.New("network down")})
	m = updated.(Model)

	if m.session != nil {
		t.Fatal("no session existed; there is nothing to keep")
	}
	if !strings.Contains(m.stageView.View(), "Could not load") {
		t.Error("initial load failure should render the error state")
	}
}
