// Package setup implements the first-run connection form: server URL,
// project ID, and the API token (stored in the system keyring, not in the
// config file).
package setup

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ybarda/stagekeeper/internal/theme"
)

// DoneMsg is dispatched when the user completes the connection form.
type DoneMsg struct {
	BaseURL   string
	ProjectID string
	Token     string
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL   string
	projectID string
	token     string
}

// Model is the Bubble Tea model for the connection setup form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new setup form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form, pre-filled with the current settings.
func (m *Model) Start(baseURL, projectID string) tea.Cmd {
	m.fb.baseURL = baseURL
	m.fb.projectID = projectID
	m.fb.token = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the setup form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		fb := *m.fb
		return m, func() tea.Msg {
			return DoneMsg{
				BaseURL:   strings.TrimRight(strings.TrimSpace(fb.baseURL), "/"),
				ProjectID: strings.TrimSpace(fb.projectID),
				Token:     strings.TrimSpace(fb.token),
			}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the setup form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Connect to your project") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Placeholder("https://api.example.com").
				Value(&m.fb.baseURL).
				Validate(validateRequired("Server URL")),
			huh.NewInput().
				Title("Project ID").
				Placeholder("the project identifier from your invitation").
				Value(&m.fb.projectID).
				Validate(validateRequired("Project ID")),
			huh.NewInput().
				Title("API token").
				Placeholder("leave blank to keep the stored token").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.token),
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
