// Package colors does the color math behind the lyric gradients: hex
// parsing, perceptual (LCH) blending and simple brightness tweaks.
package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type RGB struct {
	R, G, B int
}

// lch is CIE LCh(ab) under a D65 white point.
type lch struct {
	L, C, H float64
}

var White = RGB{255, 255, 255}

// ParseHex reads "#RRGGBB" or "RRGGBB". Anything else yields White.
func ParseHex(hex string) RGB {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return White
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return White
	}

	return RGB{int(value >> 16 & 0xFF), int(value >> 8 & 0xFF), int(value & 0xFF)}
}

func (c RGB) Hex() string {
	c = c.clamp()
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) Color() lipgloss.Color {
	return lipgloss.Color(c.Hex())
}

// Scale multiplies every channel by factor.
func (c RGB) Scale(factor float64) RGB {
	return RGB{
		int(float64(c.R) * factor),
		int(float64(c.G) * factor),
		int(float64(c.B) * factor),
	}.clamp()
}

// Glow brightens c; intensity 1 is a 60% boost.
func (c RGB) Glow(intensity float64) RGB {
	return c.Scale(1 + intensity*0.6)
}

// Lightness is perceptual lightness on a 0-100 scale.
func (c RGB) Lightness() float64 {
	return c.lch().L
}

func (c RGB) clamp() RGB {
	return RGB{clampInt(c.R, 0, 255), clampInt(c.G, 0, 255), clampInt(c.B, 0, 255)}
}

// Blend interpolates from a to b in LCH space, taking the short way round
// the hue circle.
func Blend(a, b RGB, t float64) RGB {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	from, to := a.lch(), b.lch()

	hueDiff := to.H - from.H
	if hueDiff > 180 {
		hueDiff -= 360
	} else if hueDiff < -180 {
		hueDiff += 360
	}

	h := math.Mod(from.H+t*hueDiff+360, 360)
	return lch{
		L: from.L + t*(to.L-from.L),
		C: from.C + t*(to.C-from.C),
		H: h,
	}.rgb()
}

// BlendHex is Blend for hex strings.
func BlendHex(hex1, hex2 string, t float64) string {
	return Blend(ParseHex(hex1), ParseHex(hex2), t).Hex()
}

// Gradient returns steps colors from start to end. Very different endpoints
// get eased so the middle does not pass through mud.
func Gradient(startHex, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}

	start, end := ParseHex(startHex), ParseHex(endHex)
	from, to := start.lch(), end.lch()

	hueDistance := math.Abs(to.H - from.H)
	if hueDistance > 180 {
		hueDistance = 360 - hueDistance
	}
	ease := math.Abs(to.C-from.C) > 30 || math.Abs(to.L-from.L) > 30 || hueDistance > 60

	gradient := make([]string, steps)
	for i := range gradient {
		t := float64(i) / float64(steps-1)
		if ease {
			t = smoothStep(smoothStep(t))
		}
		gradient[i] = Blend(start, end, t).Hex()
	}

	return gradient
}

// Roughness is the largest perceptual jump between neighbouring gradient
// steps (redmean distance). Lower is smoother.
func Roughness(startHex, endHex string, steps int) float64 {
	gradient := Gradient(startHex, endHex, steps)

	worst := 0.0
	for i := 1; i < len(gradient); i++ {
		a, b := ParseHex(gradient[i-1]), ParseHex(gradient[i])
		rmean := (a.R + b.R) / 2
		dr, dg, db := a.R-b.R, a.G-b.G, a.B-b.B

		distance := math.Sqrt(float64((2+rmean/256)*dr*dr + 4*dg*dg + (2+(255-rmean)/256)*db*db))
		worst = math.Max(worst, distance)
	}

	return worst
}

// RenderGradient paints text rune by rune across gradient.
func RenderGradient(text string, gradient []string, bold bool) string {
	runes := []rune(text)
	if len(runes) == 0 || len(gradient) == 0 {
		return text
	}

	var out strings.Builder
	for i, r := range runes {
		idx := 0
		if len(runes) > 1 {
			idx = i * (len(gradient) - 1) / (len(runes) - 1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[idx])).Bold(bold)
		out.WriteString(style.Render(string(r)))
	}

	return out.String()
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func smoothStep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func (c RGB) lch() lch {
	linear := func(v int) float64 {
		f := float64(v) / 255
		if f > 0.04045 {
			return math.Pow((f+0.055)/1.055, 2.4)
		}
		return f / 12.92
	}
	r, g, b := linear(c.R), linear(c.G), linear(c.B)

	// xyz normalised to the d65 white
	x := (r*0.4124564 + g*0.3575761 + b*0.1804375) / 0.95047
	y := r*0.2126729 + g*0.7151522 + b*0.0721750
	z := (r*0.0193339 + g*0.1191920 + b*0.9503041) / 1.08883

	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116.0
	}
	fx, fy, fz := f(x), f(y), f(z)

	labA := 500 * (fx - fy)
	labB := 200 * (fy - fz)

	h := math.Atan2(labB, labA) * 180 / math.Pi
	if h < 0 {
		h += 360
	}

	return lch{L: 116*fy - 16, C: math.Hypot(labA, labB), H: h}
}

func (c lch) rgb() RGB {
	rad := c.H * math.Pi / 180
	labA, labB := c.C*math.Cos(rad), c.C*math.Sin(rad)

	fy := (c.L + 16) / 116
	fx := labA/500 + fy
	fz := fy - labB/200

	inv := func(t float64) float64 {
		if t3 := t * t * t; t3 > 0.008856 {
			return t3
		}
		return (t - 16.0/116.0) / 7.787
	}
	x, y, z := inv(fx)*0.95047, inv(fy), inv(fz)*1.08883

	gamma := func(v float64) int {
		if v > 0.0031308 {
			v = 1.055*math.Pow(v, 1/2.4) - 0.055
		} else {
			v *= 12.92
		}
		return clampInt(int(v*255+0.5), 0, 255)
	}

	return RGB{
		gamma(x*3.2404542 - y*1.5371385 - z*0.4985314),
		gamma(-x*0.9692660 + y*1.8760108 + z*0.0415560),
		gamma(x*0.0556434 - y*0.2040259 + z*1.0572252),
	}
}
