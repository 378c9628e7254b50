package terminal

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestKittyChunks(t *testing.T) {
	payload := strings.Repeat("A", kittyChunkSize*2+10)
	out := kittyChunks(payload, 12, 6)

	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,c=12,r=6,m=1;") {
		t.Errorf("unexpected first chunk header: %q", out[:40])
	}
	if got := strings.Count(out, "\x1b_G"); got != 3 {
		t.Errorf("chunk count = %d, want 3", got)
	}
	if got := strings.Count(out, "m=0;"); got != 1 {
		t.Errorf("final chunk markers = %d, want 1", got)
	}
	if !strings.HasSuffix(out, strings.Repeat("A", 10)+"\x1b\\") {
		t.Error("last chunk should carry the payload tail")
	}
}

func TestKittyChunksSingle(t *testing.T) {
	out := kittyChunks("abc", 4, 2)
	want := "\x1b_Ga=T,f=100,c=4,r=2,m=0;abc\x1b\\"
	if out != want {
		t.Errorf("kittyChunks = %q, want %q", out, want)
	}
}

func TestFitAspect(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"square into wide box", 100, 100, 120, 60, 60, 60},
		{"wide into square box", 200, 100, 100, 100, 100, 50},
		{"tiny result clamps", 1000, 10, 100, 100, 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitAspect(tt.srcW, tt.srcH, tt.maxW, tt.maxH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitAspect = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEncodeImageForKitty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	out := EncodeImageForKitty(img, 4, 2)
	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,c=4,r=2,") {
		t.Errorf("unexpected encoding prefix: %q", out)
	}

	if EncodeImageForKitty(nil, 4, 2) != "" {
		t.Error("nil image should encode to nothing")
	}
}

func TestReset(t *testing.T) {
	var buf bytes.Buffer
	Reset(&buf)
	if !strings.Contains(buf.String(), "\033[?25h") || !strings.Contains(buf.String(), "\033[?1049l") {
		t.Errorf("reset sequence incomplete: %q", buf.String())
	}
}

func TestDetectCapabilities(t *testing.T) {
	t.Setenv("TERM_PROGRAM", "")
	caps := DetectCapabilities(true)
	if !caps.KittyGraphics || caps.TermProgram != "kitty" {
		t.Errorf("unexpected capabilities %+v", caps)
	}

	if DetectCapabilities(false).KittyGraphics {
		t.Error("kitty graphics should stay off unless requested")
	}
}
