package lyricsync

import (
	"sync"
	"testing"
	"time"

	"karolbroda.com/lyroverlay/internal/lyrics"
)

type surfaceCall struct {
	markup  string
	justify Justification
}

type recordingSurface struct {
	mu    sync.Mutex
	calls []surfaceCall
}

func (s *recordingSurface) SetMarkup(markup string, justify Justification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, surfaceCall{markup: markup, justify: justify})
}

func (s *recordingSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *recordingSurface) last(t *testing.T) surfaceCall {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		t.Fatal("surface was never written")
	}
	return s.calls[len(s.calls)-1]
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// newTestEngine returns an engine whose playback sits at elapsed.
func newTestEngine(t *testing.T, state State, cfg DisplayConfig, elapsed time.Duration) (*Engine, *fixedClock) {
	t.Helper()

	clock := &fixedClock{now: epoch.Add(elapsed)}
	engine := NewEngine(EngineConfig{
		Lyrics:  NewStore(),
		Display: NewDisplay(cfg),
		Now:     clock.Now,
	})
	engine.Lyrics().Replace(state)
	engine.Playback().Start(epoch, 0, true)

	return engine, clock
}

func configWithMode(mode Mode) DisplayConfig {
	cfg := DefaultDisplayConfig()
	cfg.Mode = mode
	return cfg
}

func TestRefreshScenarios(t *testing.T) {
	helloWorld := lyrics.LineTimestamp{{Timestamp: 0, Text: "Hello"}, {Timestamp: 2 * time.Second, Text: "World"}}
	origin := lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}, {Timestamp: 3 * time.Second, Text: "B"}}
	translation := lyrics.LineTimestamp{{Timestamp: 0, Text: "a"}, {Timestamp: 3 * time.Second, Text: "b"}}

	tests := []struct {
		name          string
		state         State
		mode          Mode
		elapsed       time.Duration
		wantPrimary   string
		wantSecondary string
		wantMarkup    string
	}{
		{
			name:        "origin only at 1.5s",
			state:       State{Origin: helloWorld},
			mode:        ModeOrigin,
			elapsed:     1500 * time.Millisecond,
			wantPrimary: "Hello",
			wantMarkup:  "Hello",
		},
		{
			name:          "show both puts translation first",
			state:         State{Origin: origin, Translation: translation},
			mode:          ModeShowBoth,
			elapsed:       4 * time.Second,
			wantPrimary:   "b",
			wantSecondary: "B",
			wantMarkup:    "<span size=\"20pt\">b</span>\n<span size=\"14pt\">B</span>",
		},
		{
			name:          "show both reversed",
			state:         State{Origin: origin, Translation: translation},
			mode:          ModeShowBothRev,
			elapsed:       4 * time.Second,
			wantPrimary:   "B",
			wantSecondary: "b",
			wantMarkup:    "<span size=\"20pt\">B</span>\n<span size=\"14pt\">b</span>",
		},
		{
			name:        "missing translation behaves as origin only",
			state:       State{Origin: origin},
			mode:        ModeShowBoth,
			elapsed:     time.Second,
			wantPrimary: "A",
			wantMarkup:  "A",
		},
		{
			name:        "missing translation with reversed mode",
			state:       State{Origin: origin},
			mode:        ModeShowBothRev,
			elapsed:     5 * time.Second,
			wantPrimary: "B",
			wantMarkup:  "B",
		},
		{
			name:        "unsynced origin with synced translation",
			state:       State{Origin: lyrics.NewUnsynced("A\nB"), Translation: translation},
			mode:        ModeShowBoth,
			elapsed:     4 * time.Second,
			wantPrimary: "b",
			wantMarkup:  "b",
		},
		{
			name:       "before first line",
			state:      State{Origin: lyrics.LineTimestamp{{Timestamp: 5 * time.Second, Text: "late"}}},
			mode:       ModeOrigin,
			elapsed:    time.Second,
			wantMarkup: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, tt.state, configWithMode(tt.mode), tt.elapsed)
			surface := &recordingSurface{}

			engine.Refresh(surface, false)

			call := surface.last(t)
			if call.markup != tt.wantMarkup {
				t.Errorf("markup = %q, want %q", call.markup, tt.wantMarkup)
			}
			if call.justify != JustifyCenter {
				t.Errorf("justify = %v, want center", call.justify)
			}

			frame := engine.Current()
			if frame.Primary != tt.wantPrimary || frame.Secondary != tt.wantSecondary {
				t.Errorf("frame = (%q, %q), want (%q, %q)",
					frame.Primary, frame.Secondary, tt.wantPrimary, tt.wantSecondary)
			}
			if frame.Mode != tt.mode {
				t.Errorf("frame mode = %v, want %v", frame.Mode, tt.mode)
			}
		})
	}
}

func TestRefreshPausedBlanks(t *testing.T) {
	state := State{
		Origin:      lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}},
		Translation: lyrics.LineTimestamp{{Timestamp: 0, Text: "a"}},
	}
	cfg := DefaultDisplayConfig()
	cfg.ShowLyricOnPause = false

	for _, elapsed := range []time.Duration{0, time.Second, time.Hour} {
		engine, _ := newTestEngine(t, state, cfg, elapsed)
		surface := &recordingSurface{}

		engine.Refresh(surface, true)

		if got := surface.last(t).markup; got != "" {
			t.Errorf("elapsed %v: markup = %q, want blank", elapsed, got)
		}
	}

	// blanking does not depend on tracks or a usable clock either
	engine := NewEngine(EngineConfig{Display: NewDisplay(cfg)})
	surface := &recordingSurface{}
	engine.Refresh(surface, true)
	if got := surface.last(t).markup; got != "" {
		t.Errorf("markup = %q, want blank", got)
	}
}

func TestRefreshPausedShowsFrozenLine(t *testing.T) {
	state := State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}, {Timestamp: 3 * time.Second, Text: "B"}}}
	engine, clock := newTestEngine(t, state, configWithMode(ModeOrigin), time.Second)

	engine.Playback().Pause(clock.Now())
	clock.Set(epoch.Add(time.Minute))

	surface := &recordingSurface{}
	engine.Refresh(surface, true)

	if got := surface.last(t).markup; got != "A" {
		t.Errorf("markup = %q, want frozen line %q", got, "A")
	}
}

func TestRefreshNoOpCases(t *testing.T) {
	synced := lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}}

	t.Run("no tracks", func(t *testing.T) {
		engine, _ := newTestEngine(t, State{}, DefaultDisplayConfig(), time.Second)
		surface := &recordingSurface{}
		engine.Refresh(surface, false)
		if surface.count() != 0 {
			t.Errorf("expected no writes, got %d", surface.count())
		}
	})

	t.Run("unsynced only", func(t *testing.T) {
		state := State{Origin: lyrics.NewUnsynced("a\nb"), Translation: lyrics.NewUnsynced("x\ny")}
		engine, _ := newTestEngine(t, state, DefaultDisplayConfig(), time.Second)
		surface := &recordingSurface{}
		engine.Refresh(surface, false)
		if surface.count() != 0 {
			t.Errorf("expected no writes, got %d", surface.count())
		}
	})

	t.Run("no anchor", func(t *testing.T) {
		engine := NewEngine(EngineConfig{Now: func() time.Time { return epoch }})
		engine.Lyrics().Replace(State{Origin: synced})
		surface := &recordingSurface{}
		engine.Refresh(surface, false)
		if surface.count() != 0 {
			t.Errorf("expected no writes, got %d", surface.count())
		}
	})

	t.Run("clock behind anchor", func(t *testing.T) {
		engine, clock := newTestEngine(t, State{Origin: synced}, DefaultDisplayConfig(), 0)
		clock.Set(epoch.Add(-time.Second))
		surface := &recordingSurface{}
		engine.Refresh(surface, false)
		if surface.count() != 0 {
			t.Errorf("expected no writes, got %d", surface.count())
		}
	})
}

func TestRefreshAppliesSyncOffset(t *testing.T) {
	state := State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}, {Timestamp: 3 * time.Second, Text: "B"}}}
	engine, _ := newTestEngine(t, state, configWithMode(ModeOrigin), 2500*time.Millisecond)
	surface := &recordingSurface{}

	engine.Refresh(surface, false)
	if got := surface.last(t).markup; got != "A" {
		t.Fatalf("markup = %q, want A", got)
	}

	if got := engine.AdjustSyncOffset(time.Second); got != time.Second {
		t.Errorf("AdjustSyncOffset = %v, want 1s", got)
	}
	engine.Refresh(surface, false)
	if got := surface.last(t).markup; got != "B" {
		t.Errorf("markup with offset = %q, want B", got)
	}

	engine.SetSyncOffset(-3 * time.Second)
	engine.Refresh(surface, false)
	if got := surface.last(t).markup; got != "" {
		t.Errorf("markup with negative offset = %q, want blank", got)
	}
}

func TestRefreshFollowsLiveSettings(t *testing.T) {
	state := State{
		Origin:      lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}},
		Translation: lyrics.LineTimestamp{{Timestamp: 0, Text: "a"}},
	}
	engine, _ := newTestEngine(t, state, DefaultDisplayConfig(), time.Second)
	surface := &recordingSurface{}

	engine.SetDisplayMode(ModePreferTranslation)
	engine.Refresh(surface, false)
	if got := surface.last(t).markup; got != "a" {
		t.Errorf("prefer_translation markup = %q, want a", got)
	}

	engine.SetDisplayMode(ModeShowBothRev)
	engine.SetFontSizes(30, 0)
	engine.Refresh(surface, false)
	want := "<span size=\"30pt\">A</span>\n<span size=\"1pt\">a</span>"
	if got := surface.last(t).markup; got != want {
		t.Errorf("markup = %q, want %q", got, want)
	}

	cfg := engine.Display()
	if cfg.PrimaryFontSize != 30 || cfg.SecondaryFontSize != 1 {
		t.Errorf("font sizes = %d/%d, want 30/1", cfg.PrimaryFontSize, cfg.SecondaryFontSize)
	}
}

func TestShowIdle(t *testing.T) {
	engine := NewEngine(EngineConfig{IdleText: "nothing & playing"})
	surface := &recordingSurface{}

	engine.ShowIdle(surface)
	if got := surface.last(t).markup; got != "nothing &amp; playing" {
		t.Errorf("idle markup = %q", got)
	}

	cfg := DefaultDisplayConfig()
	cfg.ShowDefaultTextOnIdle = false
	engine = NewEngine(EngineConfig{Display: NewDisplay(cfg)})
	engine.ShowIdle(surface)
	if got := surface.last(t).markup; got != "" {
		t.Errorf("idle markup without default text = %q, want blank", got)
	}
}

func TestRefreshNilSurfaceRecordsFrame(t *testing.T) {
	engine, _ := newTestEngine(t, State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}}}, DefaultDisplayConfig(), time.Second)

	engine.Refresh(nil, false)

	if got := engine.Current().Primary; got != "A" {
		t.Errorf("frame primary = %q, want A", got)
	}
}

func TestClearBlanksFrameAndSurface(t *testing.T) {
	engine, _ := newTestEngine(t, State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "old song"}}}, DefaultDisplayConfig(), time.Second)
	surface := &recordingSurface{}

	engine.Refresh(surface, false)
	if got := engine.Current().Primary; got != "old song" {
		t.Fatalf("frame primary = %q, want old song", got)
	}

	engine.Lyrics().Clear()
	engine.Clear(surface)

	if got := engine.Current().Primary; got != "" {
		t.Errorf("frame primary after Clear = %q, want blank", got)
	}
	if got := surface.last(t).markup; got != "" {
		t.Errorf("surface markup after Clear = %q, want blank", got)
	}

	// a refresh with nothing loaded leaves the blank frame alone
	engine.Refresh(surface, false)
	if got := engine.Current().Primary; got != "" {
		t.Errorf("frame primary after refresh = %q, want blank", got)
	}
}

func TestFontSizeUpdates(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	cfg := engine.ResizeFonts(2, -1)
	if cfg.PrimaryFontSize != DefaultPrimaryFontSize+2 || cfg.SecondaryFontSize != DefaultSecondaryFontSize-1 {
		t.Errorf("after resize = %d/%d", cfg.PrimaryFontSize, cfg.SecondaryFontSize)
	}

	engine.SetSecondaryFontSize(9)
	cfg = engine.SetPrimaryFontSize(40)
	if cfg.PrimaryFontSize != 40 || cfg.SecondaryFontSize != 9 {
		t.Errorf("after single-size updates = %d/%d, want 40/9", cfg.PrimaryFontSize, cfg.SecondaryFontSize)
	}

	cfg = engine.ResizeFonts(-100, 0)
	if cfg.PrimaryFontSize != 1 {
		t.Errorf("primary clamped to %d, want 1", cfg.PrimaryFontSize)
	}
}
