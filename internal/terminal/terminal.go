// Package terminal holds the bits of terminal handling bubbletea does not do
// for us: restoring state after a crash and drawing cover art with the kitty
// graphics protocol.
package terminal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

// kitty cells are roughly 10x20 pixels
const (
	cellPixelWidth  = 10
	cellPixelHeight = 20
	kittyChunkSize  = 4096
)

type Capabilities struct {
	KittyGraphics bool
	TermProgram   string
}

// DetectCapabilities reports what the terminal can draw. Kitty graphics are
// opt-in since many terminals claim support and then misplace images.
func DetectCapabilities(kittyGraphics bool) *Capabilities {
	caps := &Capabilities{
		KittyGraphics: kittyGraphics,
		TermProgram:   os.Getenv("TERM_PROGRAM"),
	}
	if caps.KittyGraphics && caps.TermProgram == "" {
		caps.TermProgram = "kitty"
	}
	return caps
}

// Reset restores the cursor, attributes, main screen and mouse reporting.
func Reset(w io.Writer) {
	for _, seq := range []string{
		"\033[?25h",
		"\033[0m",
		"\033[?1049l",
		"\033[?1000l",
		"\033[?1002l",
		"\033[?1003l",
		"\033[?1006l",
	} {
		io.WriteString(w, seq)
	}
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}
}

// EncodeImageForKitty returns the escape sequence that draws img over cols x
// rows cells, keeping its aspect ratio.
func EncodeImageForKitty(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return ""
	}

	width, height := fitAspect(bounds.Dx(), bounds.Dy(), cols*cellPixelWidth, rows*cellPixelHeight)
	resized := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return ""
	}

	return kittyChunks(base64.StdEncoding.EncodeToString(buf.Bytes()), cols, rows)
}

func fitAspect(srcWidth, srcHeight, maxWidth, maxHeight int) (int, int) {
	aspect := float64(srcWidth) / float64(srcHeight)
	width, height := maxWidth, maxHeight
	if aspect > float64(maxWidth)/float64(maxHeight) {
		height = int(float64(maxWidth) / aspect)
	} else {
		width = int(float64(maxHeight) * aspect)
	}
	return max(width, 10), max(height, 10)
}

// kittyChunks splits the payload into protocol chunks; every chunk but the
// last carries m=1.
func kittyChunks(encoded string, cols, rows int) string {
	var out strings.Builder

	for start := 0; start < len(encoded); start += kittyChunkSize {
		end := min(start+kittyChunkSize, len(encoded))

		more := 1
		if end == len(encoded) {
			more = 0
		}

		if start == 0 {
			fmt.Fprintf(&out, "\x1b_Ga=T,f=100,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, encoded[start:end])
		} else {
			fmt.Fprintf(&out, "\x1b_Gm=%d;%s\x1b\\", more, encoded[start:end])
		}
	}

	return out.String()
}
