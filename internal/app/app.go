// Package app wires the application together: view routing, the drafting
// session lifecycle, and the save/upload orchestration glue between the
// UI and the sync layers.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ybarda/stagekeeper/internal/api"
	"github.com/ybarda/stagekeeper/internal/credential"
	"github.com/ybarda/stagekeeper/internal/draft"
	"github.com/ybarda/stagekeeper/internal/journal"
	"github.com/ybarda/stagekeeper/internal/keys"
	"github.com/ybarda/stagekeeper/internal/media"
	"github.com/ybarda/stagekeeper/internal/model"
	"github.com/ybarda/stagekeeper/internal/syncer"
	"github.com/ybarda/stagekeeper/internal/ui"
	"github.com/ybarda/stagekeeper/internal/ui/noteform"
	"github.com/ybarda/stagekeeper/internal/ui/picker"
	"github.com/ybarda/stagekeeper/internal/ui/setup"
	stageview "github.com/ybarda/stagekeeper/internal/ui/stage"
)

// loadTimeout bounds the concurrent stage-view/notes fetch.
const loadTimeout = 30 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewStage ViewState = iota
	ViewNoteForm
	ViewPicker
	ViewSetup
)

// sessionLoadedMsg carries the result of a stage load.
type sessionLoadedMsg struct {
	session *draft.Session
	err     error
}

// uploadFinishedMsg carries the result of one attachment upload.
type uploadFinishedMsg struct {
	checkItemID string
	filename    string
	err         error
}

// Model is the root Bubble Tea model.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap

	cfg        *model.AppConfig
	configPath string
	token      string
	stageID    string

	remote      api.Remote
	session     *draft.Session
	pipeline    *media.Pipeline
	coordinator *syncer.Coordinator
	journal     *journal.Journal
	logger      *slog.Logger

	stageView  stageview.Model
	noteForm   noteform.Model
	pickerView picker.Model
	setupView  setup.Model

	ready  bool
	saving bool
}

// New creates the root application model. token may be empty, in which
// case the app starts on the connection setup form.
func New(
	cfg *model.AppConfig,
	configPath string,
	token string,
	stageID string,
	j *journal.Journal,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewStage,
		keys:        k,
		cfg:         cfg,
		configPath:  configPath,
		token:       token,
		stageID:     stageID,
		journal:     j,
		logger:      logger,
		stageView:   stageview.New(k, 80, 24),
		noteForm:    noteform.New(80, 24),
		pickerView:  picker.New(cfg.Media.PickerDir, 80, 24),
		setupView:   setup.New(80, 24),
	}

	if m.configured() {
		m.connect()
	} else {
		m.currentView = ViewSetup
	}

	return m
}

func (m *Model) configured() bool {
	return m.token != "" &&
		m.cfg.Server.BaseURL != "" &&
		m.cfg.Server.ProjectID != ""
}

// connect builds the API client and the services that depend on it.
func (m *Model) connect() {
	client := api.NewClient(
		m.cfg.Server.BaseURL,
		m.token,
		time.Duration(m.cfg.Server.TimeoutSec)*time.Second,
	)
	m.remote = client
	m.pipeline = media.NewPipeline(client, m.cfg.Server.ProjectID, m.logger)
	var recorder syncer.Recorder
	if m.journal != nil {
		recorder = m.journal
	}
	m.coordinator = syncer.New(client, recorder, m.logger)
}

// Init starts the initial stage load, or the setup form when the app is
// not configured yet.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewSetup {
		return m.setupView.Start(m.cfg.Server.BaseURL, m.cfg.Server.ProjectID)
	}
	return m.loadStage()
}

// loadStage returns a command that loads the stage view and notes. Results
// for a session that was superseded in the meantime are discarded by the
// handler, never applied.
func (m Model) loadStage() tea.Cmd {
	remote := m.remote
	projectID := m.cfg.Server.ProjectID
	stageID := m.stageID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		s, err := draft.Load(ctx, remote, projectID, stageID)
		return sessionLoadedMsg{session: s, err: err}
	}
}

// uploadAttachment returns a command that drives one draft through the
// pipeline on a background goroutine.
func (m Model) uploadAttachment(d *media.Draft) tea.Cmd {
	pipeline := m.pipeline
	stageID := m.stageID
	j := m.journal
	return func() tea.Msg {
		ctx := context.Background()
		err := pipeline.Upload(ctx, d, stageID)
		if j != nil {
			detail := d.StoragePath()
			if err != nil {
				detail = err.Error()
			}
			j.RecordAttachment(ctx, d.ID, d.CheckItemID, d.State().String(), detail)
		}
		return uploadFinishedMsg{
			checkItemID: d.CheckItemID,
			filename:    d.Source.Filename,
			err:         err,
		}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.stageView.SetSize(contentWidth, contentHeight)
		m.noteForm.SetSize(contentWidth, contentHeight)
		m.pickerView.SetSize(contentWidth, contentHeight)
		m.setupView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can size themselves.
		return m.updateActiveView(msg)

	case sessionLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("stage load failed", slog.String("error", msg.err.Error()))
			m.stageView.SetLoading(false)
			// A failed refresh never discards an existing draft; the
			// user keeps their unsaved edits and sees the failure.
			if m.session != nil {
				m.stageView.SetAlert("Could not refresh the stage: " + msg.err.Error())
			}
			return m, nil
		}
		m.session = msg.session
		m.stageView.SetSession(m.session, m.pipeline)
		return m, nil

	case stageview.SaveRequestMsg:
		if m.session == nil || m.saving {
			return m, nil
		}
		m.saving = true
		m.stageView.SetSaving(true)
		return m, m.coordinator.CommitCmd(m.session)

	case syncer.SaveResultMsg:
		m.saving = false
		m.stageView.SetSaving(false)
		if msg.Err != nil {
			// The draft is untouched; saving again re-sends the same set.
			m.stageView.SetAlert("Save failed: " + msg.Err.Error())
			return m, nil
		}
		m.stageView.SetNotice("Saved. Your notes and checks are on your account.")
		// Reload to make the server's state the new baseline.
		m.stageView.SetLoading(true)
		return m, m.loadStage()

	case stageview.ReloadRequestMsg:
		if m.remote == nil {
			return m, nil
		}
		m.stageView.SetLoading(true)
		return m, m.loadStage()

	case stageview.ItemNoteRequestMsg:
		m.currentView = ViewNoteForm
		return m, m.noteForm.StartItemNote(
			msg.CheckItemID,
			m.itemTitle(msg.CheckItemID),
			msg.Current,
		)

	case stageview.GeneralNoteRequestMsg:
		m.currentView = ViewNoteForm
		return m, m.noteForm.StartGeneralNote(msg.Current)

	case noteform.NoteSubmittedMsg:
		m.currentView = ViewStage
		if m.session != nil {
			if msg.CheckItemID == "" {
				m.session.SetGeneralNote(msg.Text)
			} else {
				m.session.SetItemNote(msg.CheckItemID, msg.Text)
			}
			m.stageView.Refresh()
		}
		return m, nil

	case noteform.NoteCancelMsg:
		m.currentView = ViewStage
		return m, nil

	case stageview.AttachRequestMsg:
		m.currentView = ViewPicker
		return m, m.pickerView.Start(msg.CheckItemID)

	case picker.PickedMsg:
		m.currentView = ViewStage
		return m, m.attachPicked(msg.CheckItemID, msg.Path)

	case picker.CancelledMsg:
		// User backed out; pending attachments are untouched and no
		// error is shown.
		m.currentView = ViewStage
		return m, nil

	case uploadFinishedMsg:
		m.stageView.Refresh()
		if msg.err != nil {
			// The optimistic thumbnail stays listed; only the state
			// changes, so the user keeps the reference for a retry.
			m.stageView.SetAlert("Upload failed for " + msg.filename + ": " + msg.err.Error())
			return m, nil
		}
		m.stageView.SetNotice("Photo uploaded. It is kept with this check.")
		return m, nil

	case stageview.BackMsg:
		return m, tea.Quit

	case setup.DoneMsg:
		return m.applySetup(msg)

	case setup.CancelMsg:
		if m.configured() {
			m.currentView = ViewStage
			return m, nil
		}
		// Nothing to fall back to without a connection.
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m.updateActiveView(msg)
}

// attachPicked validates the picked file, registers the optimistic draft,
// and kicks off the upload.
func (m *Model) attachPicked(checkItemID, path string) tea.Cmd {
	sel, err := media.NewSelection(path)
	if err != nil {
		var permErr *media.PermissionError
		if errors.As(err, &permErr) {
			m.stageView.SetAlert(
				"No permission to read that photo. Allow access to the folder and try again.",
			)
		} else {
			m.stageView.SetAlert("Could not read the picked photo: " + err.Error())
		}
		return nil
	}

	d, err := m.pipeline.Attach(checkItemID, sel)
	if err != nil {
		// An upload is already running for this item; the attach action
		// is disabled in the UI, so this is a race we just report.
		m.stageView.SetAlert(err.Error())
		return nil
	}

	// Draft is visible immediately; negotiation and transfer follow.
	m.stageView.Refresh()
	return m.uploadAttachment(d)
}

// applySetup persists the connection settings and (re)connects.
func (m Model) applySetup(msg setup.DoneMsg) (tea.Model, tea.Cmd) {
	m.cfg.Server.BaseURL = msg.BaseURL
	m.cfg.Server.ProjectID = msg.ProjectID
	if err := model.SaveConfig(m.configPath, m.cfg); err != nil {
		m.logger.Warn("saving config failed", slog.String("error", err.Error()))
	}

	if msg.Token != "" {
		m.token = msg.Token
		if err := credential.StoreToken(msg.Token); err != nil {
			m.logger.Warn("storing token failed", slog.String("error", err.Error()))
		}
	}

	if !m.configured() {
		return m, m.setupView.Start(m.cfg.Server.BaseURL, m.cfg.Server.ProjectID)
	}

	m.connect()
	m.currentView = ViewStage
	m.stageView.SetLoading(true)
	return m, m.loadStage()
}

func (m Model) itemTitle(checkItemID string) string {
	if m.session == nil {
		return ""
	}
	for _, item := range m.session.View().CheckItems {
		if item.ID == checkItemID {
			return item.Title
		}
	}
	return ""
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewStage:
		m.stageView, cmd = m.stageView.Update(msg)
	case ViewNoteForm:
		m.noteForm, cmd = m.noteForm.Update(msg)
	case ViewPicker:
		m.pickerView, cmd = m.pickerView.Update(msg)
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Stagekeeper", m.stageCrumb(), m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewStage:
		return m.stageView.View()
	case ViewNoteForm:
		return m.noteForm.View()
	case ViewPicker:
		return m.pickerView.View()
	case ViewSetup:
		return m.setupView.View()
	default:
		return ""
	}
}

// stageCrumb returns the open stage's title for the header, empty until a
// stage is loaded.
func (m Model) stageCrumb() string {
	if m.session == nil {
		return ""
	}
	return m.session.View().Stage.Title
}

// syncStatus returns a short string describing the save state.
func (m Model) syncStatus() string {
	if m.coordinator == nil {
		return "not connected"
	}
	state, _ := m.coordinator.State()
	switch state {
	case syncer.CommitRunning:
		return "saving"
	case syncer.CommitFailed:
		return "save failed"
	}
	if last := m.coordinator.LastSave(); !last.IsZero() {
		return "saved " + last.Format("15:04")
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewNoteForm:
		return "enter submit | esc cancel"
	case ViewPicker:
		return "enter select | esc cancel"
	case ViewSetup:
		return "enter submit | esc cancel"
	default:
		return "space toggle | n note | g stage note | a photo | s save | r reload | q quit"
	}
}
