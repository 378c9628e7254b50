package ui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"karolbroda.com/lyroverlay/internal/artwork"
	"karolbroda.com/lyroverlay/internal/colors"
	"karolbroda.com/lyroverlay/internal/lyricsync"
)

const (
	figletFont = "standard"
	sideMargin = 2
)

// TextRenderer turns parsed markup lines into styled terminal rows.
type TextRenderer struct {
	palette       *artwork.Palette
	anim          *AnimState
	screenWidth   int
	figletMinSize int
}

func NewTextRenderer(palette *artwork.Palette, anim *AnimState, screenWidth, figletMinSize int) *TextRenderer {
	if palette == nil {
		palette = artwork.DefaultPalette()
	}
	if anim == nil {
		anim = &AnimState{}
		anim.Reset()
	}
	return &TextRenderer{
		palette:       palette,
		anim:          anim,
		screenWidth:   screenWidth,
		figletMinSize: figletMinSize,
	}
}

// RenderLine renders one lyric line. The first line of a frame is the
// primary one and gets the palette gradient; later lines use the secondary
// color.
func (r *TextRenderer) RenderLine(line MarkupLine, primary bool) []string {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return []string{""}
	}

	if r.figletMinSize > 0 && line.Size >= r.figletMinSize {
		if rows := r.figlet(text); rows != nil {
			return r.paint(rows, primary)
		}
	}

	return r.paint(r.wrap(text), primary)
}

// RenderBanner renders text as figlet regardless of size, falling back to a
// single bold line when it does not fit.
func (r *TextRenderer) RenderBanner(text string) []string {
	if rows := r.figlet(text); rows != nil {
		return r.paint(rows, true)
	}
	return r.paint([]string{text}, true)
}

func (r *TextRenderer) figlet(text string) []string {
	if !isASCII(text) {
		return nil
	}

	rows := figure.NewFigure(text, figletFont, false).Slicify()
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		if lipgloss.Width(row) > r.screenWidth-2*sideMargin {
			return nil
		}
	}
	return rows
}

func (r *TextRenderer) paint(rows []string, primary bool) []string {
	out := make([]string, len(rows))

	if primary {
		gradient := r.gradient()
		for i, row := range rows {
			out[i] = colors.RenderGradient(row, gradient, true)
		}
		return out
	}

	color := colors.ParseHex(r.palette.Secondary).Scale(r.anim.Brightness())
	style := lipgloss.NewStyle().Foreground(color.Color()).Italic(true)
	for i, row := range rows {
		out[i] = style.Render(row)
	}
	return out
}

func (r *TextRenderer) gradient() []string {
	brightness := r.anim.Brightness()
	glow := r.anim.GlowIntensity * 0.5

	gradient := make([]string, len(r.palette.Gradient))
	for i, hex := range r.palette.Gradient {
		c := colors.ParseHex(hex).Scale(brightness)
		if glow > 0.05 {
			c = c.Glow(glow)
		}
		gradient[i] = c.Hex()
	}
	return gradient
}

// wrap breaks text into rows that fit between the side margins.
func (r *TextRenderer) wrap(text string) []string {
	maxWidth := r.screenWidth - 2*sideMargin
	if maxWidth < 10 {
		maxWidth = 10
	}

	var rows []string
	var current string
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}

		if lipgloss.Width(candidate) <= maxWidth {
			current = candidate
			continue
		}

		if current != "" {
			rows = append(rows, current)
		}
		current = word
		for lipgloss.Width(current) > maxWidth {
			head, tail := splitAtWidth(current, maxWidth)
			rows = append(rows, head)
			current = tail
		}
	}
	if current != "" {
		rows = append(rows, current)
	}

	return rows
}

func splitAtWidth(s string, width int) (string, string) {
	used := 0
	for i, ch := range s {
		w := lipgloss.Width(string(ch))
		if used+w > width {
			return s[:i], s[i:]
		}
		used += w
	}
	return s, ""
}

// Place positions a styled row within the screen width.
func Place(row string, width int, justify lyricsync.Justification) string {
	visible := lipgloss.Width(row)
	pad := 0
	switch justify {
	case lyricsync.JustifyLeft:
		pad = sideMargin
	case lyricsync.JustifyRight:
		pad = width - visible - sideMargin
	default:
		pad = (width - visible) / 2
	}
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + row
}

func isASCII(s string) bool {
	for _, ch := range s {
		if ch > unicode.MaxASCII || !unicode.IsPrint(ch) {
			return false
		}
	}
	return true
}
