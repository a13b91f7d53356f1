package model

import (
	"testing"
	"time"
)

func TestLatestNote(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 8, 1, h, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		notes []Note
		want  string // body of the expected note, "" means nil
	}{
		{
			name:  "empty",
			notes: nil,
			want:  "",
		},
		{
			name:  "single",
			notes: []Note{{ID: "n1", Body: "a", CreatedAt: at(9)}},
			want:  "a",
		},
		{
			name: "picks most recent regardless of order",
			notes: []Note{
				{ID: "n2", Body: "b", CreatedAt: at(12)},
				{ID: "n1", Body: "a", CreatedAt: at(9)},
				{ID: "n3", Body: "c", CreatedAt: at(10)},
			},
			want: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LatestNote(tt.notes)
			if tt.want == "" {
				if got != nil {
					t.Errorf("LatestNote() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Body != tt.want {
				t.Errorf("LatestNote() = %+v, want body %q", got, tt.want)
			}
		})
	}
}
