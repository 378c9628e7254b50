package artwork

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"karolbroda.com/lyroverlay/internal/colors"
)

// RenderHalfBlockArt draws img in width x height cells, two pixels per cell
// using the upper half block with foreground and background colors.
func RenderHalfBlockArt(img image.Image, width, height int) []string {
	if img == nil || width < 4 || height < 2 {
		return nil
	}

	resized := resize.Resize(uint(width), uint(height*2), img, resize.Lanczos3)
	bounds := resized.Bounds()

	pixel := func(x, y int) (colors.RGB, bool) {
		if y >= bounds.Dy() {
			y = bounds.Dy() - 1
		}
		r, g, b, a := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
		return colors.RGB{R: int(r >> 8), G: int(g >> 8), B: int(b >> 8)}, a>>8 >= 128
	}

	lines := make([]string, height)
	for row := range lines {
		var line strings.Builder
		for x := 0; x < bounds.Dx(); x++ {
			top, topOpaque := pixel(x, row*2)
			bottom, bottomOpaque := pixel(x, row*2+1)

			if !topOpaque && !bottomOpaque {
				line.WriteByte(' ')
				continue
			}

			style := lipgloss.NewStyle().Foreground(top.Color()).Background(bottom.Color())
			line.WriteString(style.Render("▀"))
		}
		lines[row] = line.String()
	}

	return lines
}
