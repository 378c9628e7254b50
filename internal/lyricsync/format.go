package lyricsync

import (
	"fmt"
	"strings"

	"karolbroda.com/lyroverlay/internal/lyrics"
)

type Justification int

const (
	JustifyLeft Justification = iota
	JustifyCenter
	JustifyRight
)

func (j Justification) String() string {
	switch j {
	case JustifyLeft:
		return "left"
	case JustifyRight:
		return "right"
	default:
		return "center"
	}
}

func ParseJustification(s string) (Justification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return JustifyLeft, nil
	case "center", "centre", "":
		return JustifyCenter, nil
	case "right", "end":
		return JustifyRight, nil
	}
	return JustifyCenter, fmt.Errorf("unknown alignment %q", s)
}

func (j *Justification) UnmarshalText(text []byte) error {
	parsed, err := ParseJustification(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// EscapeMarkup makes raw lyric text safe to embed in span markup.
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}

// Format renders the composed pair as markup. A missing or blank secondary
// line yields the escaped primary text alone; otherwise both lines are wrapped
// in spans carrying their point sizes and joined by a newline.
func Format(primary, secondary *lyrics.Line, primarySize, secondarySize int) string {
	primaryText := ""
	if primary != nil {
		primaryText = strings.TrimSpace(primary.Text)
	}

	secondaryText := ""
	if secondary != nil {
		secondaryText = strings.TrimSpace(secondary.Text)
	}

	if secondaryText == "" {
		return EscapeMarkup(primaryText)
	}

	return fmt.Sprintf(
		"<span size=\"%dpt\">%s</span>\n<span size=\"%dpt\">%s</span>",
		primarySize,
		EscapeMarkup(primaryText),
		secondarySize,
		EscapeMarkup(secondaryText),
	)
}
