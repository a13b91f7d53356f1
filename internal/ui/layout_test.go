package ui

import (
	"strings"
	"testing"
)

func TestContentDimensionsClamp(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		wantWidth  int
		wantHeight int
	}{
		{name: "normal terminal", w: 120, h: 40, wantWidth: 120, wantHeight: 38},
		{name: "narrow terminal", w: 20, h: 40, wantWidth: 40, wantHeight: 38},
		{name: "shorter than the frame", w: 80, h: 1, wantWidth: 80, wantHeight: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayout(tt.w, tt.h)
			if got := l.ContentWidth(); got != tt.wantWidth {
				t.Errorf("ContentWidth() = %d, want %d", got, tt.wantWidth)
			}
			if got := l.ContentHeight(); got != tt.wantHeight {
				t.Errorf("ContentHeight() = %d, want %d", got, tt.wantHeight)
			}
		})
	}
}

func TestRenderHeaderIncludesStageCrumb(t *testing.T) {
	l := NewLayout(80, 24)

	header := l.RenderHeader("Stagekeeper", "Foundations", "idle")
	if !strings.Contains(header, "Foundations") {
		t.Error("header should show the open stage")
	}
	if !strings.Contains(header, "idle") {
		t.Error("header should show the sync status")
	}

	bare := l.RenderHeader("Stagekeeper", "", "idle")
	if strings.Contains(bare, "›") {
		t.Error("no crumb separator without a stage")
	}
}
