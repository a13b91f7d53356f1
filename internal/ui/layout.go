// Package ui provides the shared terminal chrome: the one-line header and
// status bar framing whichever screen is active.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ybarda/stagekeeper/internal/theme"
)

const (
	headerHeight    = 1
	statusBarHeight = 1

	// minContentWidth keeps the checklist readable on tiny terminals.
	minContentWidth = 40
)

// Layout holds the terminal dimensions and computes the space left for the
// active screen inside the frame.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width available to the active screen.
func (l Layout) ContentWidth() int {
	if l.Width < minContentWidth {
		return minContentWidth
	}
	return l.Width
}

// ContentHeight returns the height available between the header and the
// status bar, never negative.
func (l Layout) ContentHeight() int {
	h := l.Height - headerHeight - statusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title bar: the app name and the open stage on
// the left, the save status on the right.
func (l Layout) RenderHeader(title, stage, syncStatus string) string {
	left := title
	if stage != "" {
		left += " › " + stage
	}

	leftCell := theme.HeaderStyle.Render(left)
	rightCell := theme.HeaderStyle.Render(syncStatus)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftCell,
		l.fillBetween(leftCell, rightCell, theme.HeaderStyle),
		rightCell,
	)
}

// RenderStatusBar renders the bottom bar with the active keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	cell := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		cell,
		l.fillBetween(cell, "", theme.StatusBarStyle),
	)
}

// RenderWithFrame stacks the header, content area, and status bar into the
// full terminal view.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

// fillBetween pads the gap between two rendered cells with the bar's
// background color so the bar spans the full terminal width.
func (l Layout) fillBetween(left, right string, barStyle lipgloss.Style) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(barStyle.GetBackground()).
		Render("")
}
