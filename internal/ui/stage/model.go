// Package stage implements the stage editor screen: the checklist with
// per-item notes and photo attachments, the stage guidance sections, and
// the stage-level note.
package stage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ybarda/stagekeeper/internal/draft"
	"github.com/ybarda/stagekeeper/internal/keys"
	"github.com/ybarda/stagekeeper/internal/media"
	"github.com/ybarda/stagekeeper/internal/theme"
)

// BackMsg signals the parent to leave the stage screen.
type BackMsg struct{}

// SaveRequestMsg asks the parent to commit the current draft.
type SaveRequestMsg struct{}

// ReloadRequestMsg asks the parent to re-load the stage from the server.
type ReloadRequestMsg struct{}

// AttachRequestMsg asks the parent to open the image picker for an item.
type AttachRequestMsg struct {
	CheckItemID string
}

// ItemNoteRequestMsg asks the parent to open the note editor for an item.
type ItemNoteRequestMsg struct {
	CheckItemID string
	Current     string
}

// GeneralNoteRequestMsg asks the parent to open the stage note editor.
type GeneralNoteRequestMsg struct {
	Current string
}

// Model is the stage editor view component.
type Model struct {
	session  *draft.Session
	pipeline *media.Pipeline
	viewport viewport.Model
	keys     *keys.KeyMap

	cursor  int
	width   int
	height  int
	loading bool
	saving  bool
	alert   string
	notice  string
}

// New creates a new stage editor model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
		loading:  true,
	}
}

// Init returns the initial command for the stage editor.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetSession installs a freshly loaded drafting session and re-renders.
// Any previous session (and its unsaved edits) is superseded.
func (m *Model) SetSession(s *draft.Session, p *media.Pipeline) {
	m.session = s
	m.pipeline = p
	m.loading = false
	m.saving = false
	if m.cursor >= len(s.View().CheckItems) {
		m.cursor = 0
	}
	m.refresh()
	m.viewport.GotoTop()
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSaving marks a commit in flight; the save key is ignored until the
// result arrives.
func (m *Model) SetSaving(saving bool) {
	m.saving = saving
	m.refresh()
}

// SetAlert shows a blocking, dismissible failure message.
func (m *Model) SetAlert(text string) {
	m.alert = text
	m.notice = ""
	m.refresh()
}

// SetNotice shows a transient success line.
func (m *Model) SetNotice(text string) {
	m.notice = text
	m.refresh()
}

// Refresh re-renders the viewport content; the parent calls this when
// pipeline state changes outside a key event (e.g., an upload settles).
func (m *Model) Refresh() {
	m.refresh()
}

// SetSize updates the editor dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}

// Update handles messages for the stage editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// A visible alert swallows the next key press to dismiss itself; the
	// thumbnail list underneath stays as it was.
	if m.alert != "" {
		m.alert = ""
		m.refresh()
		return m, nil
	}

	if m.session == nil {
		if key.Matches(keyMsg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		return m, nil
	}

	items := m.session.View().CheckItems

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Toggle):
		if len(items) > 0 {
			m.session.ToggleCheck(items[m.cursor].ID)
			m.notice = ""
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.ItemNote):
		if len(items) > 0 {
			id := items[m.cursor].ID
			current := m.session.ItemNote(id)
			return m, func() tea.Msg {
				return ItemNoteRequestMsg{CheckItemID: id, Current: current}
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.GeneralNote):
		current := m.session.GeneralNote()
		return m, func() tea.Msg {
			return GeneralNoteRequestMsg{Current: current}
		}

	case key.Matches(keyMsg, m.keys.Attach):
		if len(items) == 0 {
			return m, nil
		}
		id := items[m.cursor].ID
		// One upload at a time per item; other items are unaffected.
		if m.pipeline != nil && m.pipeline.InFlight(id) {
			return m, nil
		}
		return m, func() tea.Msg {
			return AttachRequestMsg{CheckItemID: id}
		}

	case key.Matches(keyMsg, m.keys.Save):
		if m.saving {
			return m, nil
		}
		return m, func() tea.Msg { return SaveRequestMsg{} }

	case key.Matches(keyMsg, m.keys.Reload):
		return m, func() tea.Msg { return ReloadRequestMsg{} }

	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the stage editor.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading stage...")
	}

	if m.session == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorRed).
			Render("Could not load the stage. Press r to retry.")
	}

	if m.alert != "" {
		alert := theme.AlertStyle.Width(min(m.width-4, 70)).Render(
			m.alert + "\n\n" + theme.HelpStyle.Render("press any key to dismiss"),
		)
		return lipgloss.Place(
			m.width, m.height, lipgloss.Center, lipgloss.Center, alert,
		)
	}

	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full editor content string for the viewport.
func (m Model) renderContent() string {
	if m.session == nil {
		return ""
	}

	view := m.session.View()
	stage := view.Stage
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(stage.Title))

	done := m.session.CheckedCount()
	total := len(view.CheckItems)
	progress := theme.ProgressStyle(done, total).Render(
		fmt.Sprintf("%d/%d checks done", done, total),
	)
	if m.saving {
		progress += theme.HelpStyle.Render("  saving...")
	} else if m.notice != "" {
		progress += "  " + lipgloss.NewStyle().
			Foreground(theme.ColorGreen).Render(m.notice)
	}
	sections = append(sections, progress)
	sections = append(sections, "")

	if stage.ShortExplanation != "" {
		sections = append(sections,
			theme.SectionHeaderStyle.Render("What this stage covers"))
		sections = append(sections, stage.ShortExplanation)
		sections = append(sections, "")
	}

	sections = append(sections,
		theme.SectionHeaderStyle.Render("Things to verify"))
	sections = append(sections, m.renderChecklist()...)

	if len(view.Media) > 0 {
		sections = append(sections, "")
		sections = append(sections, theme.SectionHeaderStyle.Render(
			fmt.Sprintf("Stage photos (%d)", len(view.Media)),
		))
		for _, md := range view.Media {
			sections = append(sections, "  "+md.URL)
		}
	}

	if stage.CommonMistakes != "" {
		sections = append(sections, "")
		sections = append(sections,
			theme.SectionHeaderStyle.Render("Common mistakes"))
		sections = append(sections, stage.CommonMistakes)
	}

	if stage.MustDocument != "" {
		sections = append(sections, "")
		sections = append(sections,
			theme.SectionHeaderStyle.Render("What to document"))
		sections = append(sections, stage.MustDocument)
	}

	sections = append(sections, "")
	sections = append(sections, theme.SectionHeaderStyle.Render("Stage note"))
	general := m.session.GeneralNote()
	if strings.TrimSpace(general) == "" {
		sections = append(sections, theme.HelpStyle.Render(
			"No note yet. Press g to write one; it is saved to your "+
				"account with the other changes.",
		))
	} else {
		sections = append(sections, general)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderChecklist renders one block per check item: marker and title,
// description, draft note, and this session's attachments.
func (m Model) renderChecklist() []string {
	var lines []string
	items := m.session.View().CheckItems

	for i, item := range items {
		checked := m.session.IsChecked(item.ID)

		mark := "[ ]"
		if checked {
			mark = "[✓]"
		}
		row := theme.CheckMarkStyle(checked).Render(mark) + " " + item.Title
		if i == m.cursor {
			row = theme.SelectedItemStyle.Render(row)
		} else {
			row = " " + row
		}
		lines = append(lines, row)

		if item.Description != nil && *item.Description != "" {
			lines = append(lines, "     "+theme.HelpStyle.Render(*item.Description))
		}

		if note := m.session.ItemNote(item.ID); strings.TrimSpace(note) != "" {
			lines = append(lines, "     note: "+strings.TrimSpace(note))
		}

		lines = append(lines, m.renderAttachments(item.ID)...)
	}

	if len(items) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No check items in this stage."))
	}

	return lines
}

// renderAttachments lists this session's pending drafts for an item.
// Failed drafts keep their row so the user retains the visual reference.
func (m Model) renderAttachments(checkItemID string) []string {
	if m.pipeline == nil {
		return nil
	}

	var lines []string
	for _, d := range m.pipeline.Pending(checkItemID) {
		state := d.State().String()
		line := fmt.Sprintf("     📷 %s  %s",
			d.Source.Filename,
			theme.AttachmentStyle(state).Render(state),
		)
		if d.State() == media.StateFailed && d.FailReason() != "" {
			line += theme.HelpStyle.Render(" (" + d.FailReason() + ")")
		}
		lines = append(lines, line)
	}
	return lines
}
