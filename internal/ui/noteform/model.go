// Package noteform implements the note editor form, used both for
// per-item notes and the stage-level note.
package noteform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ybarda/stagekeeper/internal/theme"
)

// NoteSubmittedMsg is dispatched when the user confirms the note text.
// CheckItemID is empty for the stage-level note.
type NoteSubmittedMsg struct {
	CheckItemID string
	Text        string
}

// NoteCancelMsg is dispatched when the user abandons the form; the draft
// keeps its previous text.
type NoteCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text string
}

// Model is the Bubble Tea model for the note editor form.
type Model struct {
	form        *huh.Form
	fb          *formBindings
	checkItemID string
	itemTitle   string
	width       int
	height      int
}

// New creates a new note form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartItemNote initializes the form for a check item's note.
func (m *Model) StartItemNote(checkItemID, itemTitle, current string) tea.Cmd {
	m.checkItemID = checkItemID
	m.itemTitle = itemTitle
	m.fb.text = current
	m.form = m.buildForm("Note for this check")
	return m.form.Init()
}

// StartGeneralNote initializes the form for the stage-level note.
func (m *Model) StartGeneralNote(current string) tea.Cmd {
	m.checkItemID = ""
	m.itemTitle = ""
	m.fb.text = current
	m.form = m.buildForm("Stage note")
	return m.form.Init()
}

// Update handles messages for the note form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		id := m.checkItemID
		text := m.fb.text
		return m, func() tea.Msg {
			return NoteSubmittedMsg{CheckItemID: id, Text: text}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return NoteCancelMsg{} }
	}

	return m, cmd
}

// View renders the note form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "Stage note"
	if m.itemTitle != "" {
		title = m.itemTitle
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(title) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm(fieldTitle string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fieldTitle).
				Placeholder("Things worth remembering about this...").
				Value(&m.fb.text),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}
