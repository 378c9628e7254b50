package lyricsync

import "karolbroda.com/lyroverlay/internal/lyrics"

// Compose maps the current origin and translation lines onto the primary and
// secondary slots. ShowBoth only fills the secondary slot when both lines
// exist, so a lone translation is promoted to primary.
func Compose(mode Mode, origin, translation *lyrics.Line) (primary, secondary *lyrics.Line) {
	switch mode {
	case ModeShowBoth:
		if translation != nil && origin != nil {
			return translation, origin
		}
		if translation != nil {
			return translation, nil
		}
		return origin, nil
	case ModeShowBothRev:
		return origin, translation
	case ModeOrigin:
		return origin, nil
	case ModePreferTranslation:
		if translation != nil {
			return translation, nil
		}
		return origin, nil
	}
	return origin, nil
}
