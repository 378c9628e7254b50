package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/lyroverlay/internal/lyricsync"
)

func TestRenderLineFiglet(t *testing.T) {
	r := NewTextRenderer(nil, nil, 120, 24)

	small := r.RenderLine(MarkupLine{Text: "hello", Size: 20}, true)
	if len(small) != 1 {
		t.Errorf("small line rendered as %d rows, want 1", len(small))
	}

	big := r.RenderLine(MarkupLine{Text: "hello", Size: 24}, true)
	if len(big) < 3 {
		t.Errorf("figlet line rendered as %d rows, want several", len(big))
	}
}

func TestRenderLineFigletFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		width int
		text  string
	}{
		{"non ascii text", 120, "こんにちは"},
		{"too wide for the screen", 30, "a rather long lyric line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTextRenderer(nil, nil, tt.width, 24)
			rows := r.RenderLine(MarkupLine{Text: tt.text, Size: 40}, true)
			joined := strings.Join(rows, " ")
			for _, word := range strings.Fields(tt.text) {
				if !strings.Contains(joined, word) {
					t.Errorf("fallback lost %q: %q", word, joined)
				}
			}
		})
	}
}

func TestRenderLineWraps(t *testing.T) {
	r := NewTextRenderer(nil, nil, 24, 0)
	rows := r.RenderLine(MarkupLine{Text: "one two three four five six seven"}, false)

	if len(rows) < 2 {
		t.Fatalf("expected wrapping, got %q", rows)
	}
	for _, row := range rows {
		if w := lipgloss.Width(row); w > 24-2*sideMargin {
			t.Errorf("row %q is %d wide", row, w)
		}
	}
}

func TestRenderLineBlank(t *testing.T) {
	r := NewTextRenderer(nil, nil, 80, 24)
	if rows := r.RenderLine(MarkupLine{Text: "   "}, true); len(rows) != 1 || rows[0] != "" {
		t.Errorf("blank line rendered as %q", rows)
	}
}

func TestPlace(t *testing.T) {
	tests := []struct {
		justify lyricsync.Justification
		want    int
	}{
		{lyricsync.JustifyLeft, sideMargin},
		{lyricsync.JustifyCenter, 8},
		{lyricsync.JustifyRight, 14},
	}

	for _, tt := range tests {
		t.Run(tt.justify.String(), func(t *testing.T) {
			got := Place("abcd", 20, tt.justify)
			if pad := len(got) - len(strings.TrimLeft(got, " ")); pad != tt.want {
				t.Errorf("padding = %d, want %d", pad, tt.want)
			}
		})
	}
}
