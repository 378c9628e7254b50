package artwork

import (
	"image"
	"math"
	"sort"

	"github.com/EdlinOrg/prominentcolor"

	"karolbroda.com/lyroverlay/internal/colors"
)

const gradientSteps = 20

// Palette colors the overlay. Primary and Accent drive the lyric gradient,
// Secondary the translation line and Dim everything in the background.
type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Gradient  []string
}

func DefaultPalette() *Palette {
	return &Palette{
		Primary:   "#8BA4E8",
		Secondary: "#E8A4C8",
		Accent:    "#B8A8E8",
		Dim:       "#6272A4",
		Gradient:  colors.Gradient("#8BA4E8", "#E8A4C8", gradientSteps),
	}
}

type swatch struct {
	rgb        colors.RGB
	saturation float64
	brightness float64
}

// score favours saturated colors of medium brightness.
func (s swatch) score() float64 {
	return s.saturation * (1 - math.Abs(s.brightness-0.6))
}

func newSwatch(item prominentcolor.ColorItem) swatch {
	r := float64(item.Color.R) / 255
	g := float64(item.Color.G) / 255
	b := float64(item.Color.B) / 255

	hi := math.Max(math.Max(r, g), b)
	lo := math.Min(math.Min(r, g), b)

	sat := 0.0
	if hi > 0 {
		sat = (hi - lo) / hi
	}

	return swatch{
		rgb:        colors.RGB{R: int(item.Color.R), G: int(item.Color.G), B: int(item.Color.B)},
		saturation: sat,
		brightness: hi,
	}
}

// readable lifts dark swatches and tames near-white ones so lyrics stay
// legible on a dark terminal.
func (s swatch) readable() colors.RGB {
	c := s.rgb
	if s.brightness > 0 && s.brightness < 0.4 {
		c = c.Scale(math.Min(0.4/s.brightness, 2.5))
	}
	if s.brightness > 0.85 {
		avg := (c.R + c.G + c.B) / 3
		pull := func(v int) int { return avg + int(float64(v-avg)*0.7) }
		c = colors.RGB{R: pull(c.R), G: pull(c.G), B: pull(c.B)}
	}
	return c
}

// ExtractPalette picks three prominent colors from img with k-means. Images
// too flat to yield three usable colors get the default palette.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	items, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(items) < 3 {
		return DefaultPalette()
	}

	swatches := make([]swatch, len(items))
	for i, item := range items {
		swatches[i] = newSwatch(item)
	}

	var picked []swatch
	pick := func(minSat, minBright float64, best bool) {
		var choice *swatch
		for i := range swatches {
			s := &swatches[i]
			if s.saturation <= minSat || s.brightness <= minBright || contains(picked, s.rgb) {
				continue
			}
			if choice == nil || (best && s.score() > choice.score()) {
				choice = s
			}
			if !best {
				break
			}
		}
		if choice != nil {
			picked = append(picked, *choice)
		}
	}

	pick(0.2, 0.3, true)
	pick(0.15, 0.3, false)
	pick(0.1, 0.25, false)

	if len(picked) < 3 {
		return DefaultPalette()
	}

	sort.SliceStable(picked, func(i, j int) bool { return picked[i].brightness > picked[j].brightness })

	palette := &Palette{
		Primary:   picked[0].readable().Hex(),
		Accent:    picked[1].readable().Hex(),
		Secondary: picked[2].readable().Hex(),
		Dim:       "#6272A4",
	}
	start, end := smoothestPair(palette.Primary, palette.Secondary, palette.Accent)
	palette.Gradient = colors.Gradient(start, end, gradientSteps)

	return palette
}

func contains(swatches []swatch, c colors.RGB) bool {
	for _, s := range swatches {
		if s.rgb == c {
			return true
		}
	}
	return false
}

// smoothestPair returns the ordered pair of palette colors with the least
// jarring gradient, preferring a brighter start when two are close.
func smoothestPair(candidates ...string) (string, string) {
	type pair struct {
		start, end string
		roughness  float64
	}

	var pairs []pair
	for _, a := range candidates {
		for _, b := range candidates {
			if a != b {
				pairs = append(pairs, pair{a, b, colors.Roughness(a, b, gradientSteps)})
			}
		}
	}
	if len(pairs) == 0 {
		return candidates[0], candidates[0]
	}

	best := pairs[0]
	for _, p := range pairs[1:] {
		if p.roughness < best.roughness {
			best = p
		}
	}
	for _, p := range pairs {
		if p.roughness-best.roughness < 5 &&
			colors.ParseHex(p.start).Lightness() > colors.ParseHex(best.start).Lightness() {
			best = p
		}
	}

	return best.start, best.end
}
