package track

import "time"

type Info struct {
	Title      string
	Artist     string
	Album      string
	Duration   time.Duration
	ArtworkURL string
	TrackID    string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != "" && t.Artist != ""
}

func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.TrackID != "" && other.TrackID != "" {
		return t.TrackID == other.TrackID
	}
	return t.Title == other.Title && t.Artist == other.Artist
}

// DurationSecs is the whole-second length used by lrclib queries.
func (t *Info) DurationSecs() int64 {
	if t == nil || t.Duration <= 0 {
		return 0
	}
	return int64(t.Duration / time.Second)
}

func (t *Info) String() string {
	if t == nil {
		return "<none>"
	}
	return t.Artist + " - " + t.Title
}
