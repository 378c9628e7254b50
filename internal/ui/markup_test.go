package ui

import (
	"testing"

	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/lyricsync"
)

func TestParseMarkup(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []MarkupLine
	}{
		{"empty", "", nil},
		{"plain", "hello &amp; goodbye", []MarkupLine{{Text: "hello & goodbye"}}},
		{
			name:   "two spans",
			markup: "<span size=\"20pt\">a &lt;b&gt;</span>\n<span size=\"14pt\">it&apos;s</span>",
			want:   []MarkupLine{{Text: "a <b>", Size: 20}, {Text: "it's", Size: 14}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkup(tt.markup)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseMarkup(%q) = %+v, want %+v", tt.markup, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseMarkupRoundTripsFormat(t *testing.T) {
	primary := &lyrics.Line{Text: `"quoted" & <tagged>`}
	secondary := &lyrics.Line{Text: "l'autre"}

	got := ParseMarkup(lyricsync.Format(primary, secondary, 28, 12))
	if len(got) != 2 {
		t.Fatalf("expected two lines, got %+v", got)
	}
	if got[0].Text != primary.Text || got[0].Size != 28 {
		t.Errorf("primary = %+v", got[0])
	}
	if got[1].Text != secondary.Text || got[1].Size != 12 {
		t.Errorf("secondary = %+v", got[1])
	}
}
