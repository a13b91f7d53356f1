// Package picker wraps the bubbles file picker for choosing a local photo
// to attach to a check item.
package picker

import (
	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ybarda/stagekeeper/internal/theme"
)

// PickedMsg is dispatched when the user selects a file.
type PickedMsg struct {
	CheckItemID string
	Path        string
}

// CancelledMsg is dispatched when the user closes the picker without
// choosing. It is a no-op for the attachment list, not an error.
type CancelledMsg struct{}

// Model is the image picker view component.
type Model struct {
	fp          filepicker.Model
	checkItemID string
	width       int
	height      int
}

// New creates a picker rooted at dir, filtered to image files.
func New(dir string, width, height int) Model {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = []string{".jpg", ".jpeg", ".png", ".heic", ".webp"}
	fp.ShowHidden = false
	fp.Height = height - 4

	return Model{
		fp:     fp,
		width:  width,
		height: height,
	}
}

// Start readies the picker for choosing an attachment for one check item.
func (m *Model) Start(checkItemID string) tea.Cmd {
	m.checkItemID = checkItemID
	return m.fp.Init()
}

// Update handles messages for the picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return CancelledMsg{} }
		}
	}

	var cmd tea.Cmd
	m.fp, cmd = m.fp.Update(msg)

	if didSelect, path := m.fp.DidSelectFile(msg); didSelect {
		id := m.checkItemID
		return m, func() tea.Msg {
			return PickedMsg{CheckItemID: id, Path: path}
		}
	}

	return m, cmd
}

// View renders the picker.
func (m Model) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Pick a photo to attach")

	hint := theme.HelpStyle.Render("enter select | esc cancel")

	return lipgloss.NewStyle().Padding(1, 2).Render(
		header + "\n\n" + m.fp.View() + "\n" + hint,
	)
}

// SetSize updates the picker dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.fp.Height = height - 4
}
