package ui

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// MarkupLine is one displayed line of engine markup. Size is in points; zero
// means the markup carried no size and the primary size applies.
type MarkupLine struct {
	Text string
	Size int
}

var spanPattern = regexp.MustCompile(`^<span size="(\d+)pt">(.*)</span>$`)

// ParseMarkup splits engine markup into lines and undoes its escaping.
func ParseMarkup(markup string) []MarkupLine {
	if markup == "" {
		return nil
	}

	var lines []MarkupLine
	for _, raw := range strings.Split(markup, "\n") {
		line := MarkupLine{Text: raw}
		if m := spanPattern.FindStringSubmatch(raw); m != nil {
			size, _ := strconv.Atoi(m[1])
			line = MarkupLine{Text: m[2], Size: size}
		}
		line.Text = html.UnescapeString(line.Text)
		lines = append(lines, line)
	}

	return lines
}
