package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/lyroverlay/internal/artwork"
	"karolbroda.com/lyroverlay/internal/colors"
	"karolbroda.com/lyroverlay/internal/lyricsync"
	"karolbroda.com/lyroverlay/internal/terminal"
)

const lineSpacing = 1

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	palette := m.snap.Palette
	if palette == nil {
		palette = artwork.DefaultPalette()
	}

	var lines []string
	if !m.hideHeader && m.snap.Track != nil {
		lines = append(lines, m.renderHeader(palette, width, height)...)
	}

	footer := m.renderFooter(palette, width)
	bodyHeight := height - len(lines) - len(footer)
	lines = append(lines, m.renderBody(palette, width, bodyHeight)...)
	lines = append(lines, footer...)

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderHeader(palette *artwork.Palette, width, height int) []string {
	lines := []string{""}

	artWidth, artHeight := 12, 6
	if width < 80 {
		artWidth, artHeight = 8, 4
	}
	if width < 50 || height < 25 || m.snap.Image == nil {
		artWidth, artHeight = 0, 0
	}

	info := m.renderTrackInfo(palette, width)

	if artWidth > 0 && m.termCaps.KittyGraphics {
		if encoded := terminal.EncodeImageForKitty(m.snap.Image, artWidth, artHeight); encoded != "" {
			lines = append(lines, "  "+encoded)
			for i := 1; i < artHeight; i++ {
				lines = append(lines, "")
			}
			for _, row := range info {
				lines = append(lines, "  "+row)
			}
			return append(lines, "", m.renderProgress(palette, width), "")
		}
	}

	art := artwork.RenderHalfBlockArt(m.snap.Image, artWidth, artHeight)
	rows := max(len(art), len(info))
	for i := 0; i < rows; i++ {
		var line strings.Builder
		if artWidth > 0 {
			line.WriteString("  ")
			if i < len(art) {
				line.WriteString(art[i])
			} else {
				line.WriteString(strings.Repeat(" ", artWidth))
			}
			line.WriteString("  ")
		} else {
			line.WriteString("  ")
		}
		if i < len(info) {
			line.WriteString(info[i])
		}
		lines = append(lines, line.String())
	}

	return append(lines, "", m.renderProgress(palette, width), "")
}

func (m Model) renderTrackInfo(palette *artwork.Palette, width int) []string {
	trk := m.snap.Track
	maxWidth := max(width-20, 20)

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Primary)).Bold(true)
	artistStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Secondary))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))

	lines := []string{
		titleStyle.Render(truncate(trk.Title, maxWidth)),
		artistStyle.Render(truncate(trk.Artist, maxWidth)),
	}
	if trk.Album != "" {
		lines = append(lines, dimStyle.Render(truncate(trk.Album, maxWidth)))
	}

	if m.ctrl != nil {
		cfg := m.ctrl.Display()
		status := fmt.Sprintf("%s · %+.1fs", cfg.Mode, cfg.SyncOffset.Seconds())
		if m.ctrl.Playback().Snapshot().Paused {
			status += " · paused"
		}
		lines = append(lines, dimStyle.Render(status))
	}

	return lines
}

func (m Model) renderProgress(palette *artwork.Palette, width int) string {
	trk := m.snap.Track
	if trk == nil || trk.Duration <= 0 || m.ctrl == nil {
		return ""
	}

	elapsed, ok := m.ctrl.Playback().Elapsed(m.now())
	if !ok {
		elapsed = 0
	}
	elapsed = min(elapsed, trk.Duration)

	barWidth := max(width-20, 20)
	filled := int(float64(barWidth) * float64(elapsed) / float64(trk.Duration))

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Primary))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Faint(true)
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			bar.WriteString(filledStyle.Render("━"))
		case i == filled:
			bar.WriteString(filledStyle.Render("●"))
		default:
			bar.WriteString(emptyStyle.Render("─"))
		}
	}

	return fmt.Sprintf("  %s  %s  %s",
		timeStyle.Render(colors.FormatDuration(elapsed)),
		bar.String(),
		timeStyle.Render(colors.FormatDuration(trk.Duration)))
}

func (m Model) renderBody(palette *artwork.Palette, width, height int) []string {
	if height <= 0 {
		return nil
	}

	renderer := NewTextRenderer(palette, &m.anim, width, m.figletMinSize)
	markup := ParseMarkup(m.snap.Markup)

	var rows []string
	switch {
	case m.snap.Track == nil && len(markup) > 0:
		// idle banner
		rows = renderer.RenderBanner(markup[0].Text)
	case m.snap.Track == nil:
		rows = m.renderWaiting(palette)
	case len(markup) == 0 && m.snap.Loading:
		rows = m.renderLoading(palette)
	case len(markup) == 0 && m.snap.LyricsErr != nil:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
		rows = []string{style.Render("no lyrics for this track")}
	case len(markup) == 0:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
		rows = []string{style.Render("♪")}
	default:
		rows = m.renderLyrics(renderer, markup)
	}

	justify := m.snap.Justify
	out := make([]string, 0, height)
	for i := 0; i < (height-len(rows))/2; i++ {
		out = append(out, "")
	}
	for _, row := range rows {
		out = append(out, Place(row, width, justify))
	}
	for len(out) < height {
		out = append(out, "")
	}
	return out
}

func (m Model) renderLyrics(renderer *TextRenderer, markup []MarkupLine) []string {
	primarySize := 0
	if m.ctrl != nil {
		primarySize = m.ctrl.Display().PrimaryFontSize
	}

	var rows []string
	for i, line := range markup {
		if line.Size == 0 {
			line.Size = primarySize
		}
		if i > 0 {
			for j := 0; j < lineSpacing; j++ {
				rows = append(rows, "")
			}
		}
		rows = append(rows, renderer.RenderLine(line, i == 0)...)
	}
	return rows
}

func (m Model) renderWaiting(palette *artwork.Palette) []string {
	waitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
	pulseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Secondary))

	pulse := []string{"·", "•", "●", "•"}
	return []string{
		waitStyle.Render("awaiting music"),
		pulseStyle.Render(pulse[(m.tickCount/4)%len(pulse)]),
	}
}

func (m Model) renderLoading(palette *artwork.Palette) []string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Secondary))
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
	return []string{spinnerStyle.Render(frames[m.tickCount%len(frames)]) + textStyle.Render(" loading")}
}

func (m Model) renderFooter(palette *artwork.Palette, width int) []string {
	if m.flash == "" {
		return nil
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Accent))
	return []string{Place(style.Render(m.flash), width, lyricsync.JustifyRight)}
}

func truncate(s string, maxWidth int) string {
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	head, _ := splitAtWidth(s, maxWidth-1)
	return head + "…"
}
