package track

import (
	"testing"
	"time"
)

func TestIsValid(t *testing.T) {
	var nilInfo *Info
	if nilInfo.IsValid() {
		t.Error("nil info should not be valid")
	}
	if (&Info{Title: "Song"}).IsValid() {
		t.Error("info without artist should not be valid")
	}
	if !(&Info{Title: "Song", Artist: "Band"}).IsValid() {
		t.Error("info with title and artist should be valid")
	}
}

func TestIsSameTrack(t *testing.T) {
	tests := []struct {
		name string
		a, b *Info
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", &Info{Title: "a", Artist: "b"}, nil, false},
		{"same id", &Info{TrackID: "1", Title: "a"}, &Info{TrackID: "1", Title: "b"}, true},
		{"different id", &Info{TrackID: "1", Title: "a", Artist: "x"}, &Info{TrackID: "2", Title: "a", Artist: "x"}, false},
		{"title artist fallback", &Info{Title: "a", Artist: "x"}, &Info{TrackID: "2", Title: "a", Artist: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsSameTrack(tt.b); got != tt.want {
				t.Errorf("IsSameTrack() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDurationSecs(t *testing.T) {
	info := &Info{Duration: 3*time.Minute + 500*time.Millisecond}
	if got := info.DurationSecs(); got != 180 {
		t.Errorf("DurationSecs() = %d, want 180", got)
	}

	var nilInfo *Info
	if got := nilInfo.DurationSecs(); got != 0 {
		t.Errorf("nil DurationSecs() = %d, want 0", got)
	}
}
