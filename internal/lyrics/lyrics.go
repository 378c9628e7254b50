// Package lyrics holds lyric representations, the line locator used by the
// sync engine, the LRC parser and the lrclib client.
package lyrics

import (
	"sort"
	"strings"
	"time"
)

type Line struct {
	Timestamp time.Duration
	Text      string
}

// Lyric is one side (origin or translation) of a song's lyrics.
// A nil Lyric means the side is absent.
type Lyric interface {
	lyric()
	Len() int
}

// LineTimestamp is a track whose lines carry start offsets, ordered by
// non-decreasing timestamp. Only this variant takes part in live sync.
type LineTimestamp []Line

func (LineTimestamp) lyric()     {}
func (l LineTimestamp) Len() int { return len(l) }

// Unsynced is lyric text without timing information.
type Unsynced []string

func (Unsynced) lyric()     {}
func (u Unsynced) Len() int { return len(u) }

func NewUnsynced(raw string) Unsynced {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Unsynced(strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n"))
}

// Locate returns the most recently started line at elapsed, or nil when the
// track is empty or elapsed precedes its first line. Among lines sharing a
// timestamp the last one in sequence wins. lines must already be sorted.
func Locate(elapsed time.Duration, lines LineTimestamp) *Line {
	idx := sort.Search(len(lines), func(i int) bool {
		return lines[i].Timestamp > elapsed
	})
	if idx == 0 {
		return nil
	}
	return &lines[idx-1]
}

// IsSynced reports whether l is a non-nil line-timestamped track.
func IsSynced(l Lyric) bool {
	lines, ok := l.(LineTimestamp)
	return ok && lines != nil
}
