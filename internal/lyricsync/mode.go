package lyricsync

import (
	"fmt"
	"strings"
)

// Mode selects how origin and translation lines fill the two display slots.
type Mode int

const (
	ModeShowBoth Mode = iota
	ModeShowBothRev
	ModeOrigin
	ModePreferTranslation
)

var modeNames = map[Mode]string{
	ModeShowBoth:          "show_both",
	ModeShowBothRev:       "show_both_rev",
	ModeOrigin:            "origin",
	ModePreferTranslation: "prefer_translation",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Next cycles through the modes in declaration order.
func (m Mode) Next() Mode {
	return (m + 1) % Mode(len(modeNames))
}

func ParseMode(s string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for mode, name := range modeNames {
		if name == normalized {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown display mode %q", s)
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
