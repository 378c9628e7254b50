package lyricsync

import (
	"testing"
	"time"

	"karolbroda.com/lyroverlay/internal/lyrics"
)

func TestSchedulerTickTerminatesWhenSurfaceGone(t *testing.T) {
	engine, _ := newTestEngine(t, State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}}}, DefaultDisplayConfig(), time.Second)
	surface := &recordingSurface{}
	handle := NewHandle(surface)

	s := engine.newScheduler(handle, time.Hour)

	for i := 0; i < 3; i++ {
		if !s.Tick() {
			t.Fatalf("tick %d stopped while surface alive", i)
		}
	}
	if surface.count() != 3 {
		t.Errorf("expected 3 writes, got %d", surface.count())
	}

	handle.Release()

	if s.Tick() {
		t.Error("expected tick to stop after release")
	}
	select {
	case <-s.Done():
	default:
		t.Error("expected Done to be closed")
	}

	// further ticks are harmless and never write
	if s.Tick() {
		t.Error("expected terminated scheduler to stay terminated")
	}
	if surface.count() != 3 {
		t.Errorf("expected no writes after release, got %d", surface.count())
	}
}

func TestSchedulerTickWithoutMetadata(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	engine.Lyrics().Replace(State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}}})
	surface := &recordingSurface{}

	s := engine.newScheduler(NewHandle(surface), 0)
	if s.interval != DefaultInterval {
		t.Errorf("interval = %v, want default %v", s.interval, DefaultInterval)
	}

	if !s.Tick() {
		t.Fatal("expected scheduling to continue without metadata")
	}
	if surface.count() != 0 {
		t.Errorf("expected no writes without metadata, got %d", surface.count())
	}
}

func TestSchedulerPassesPausedFlag(t *testing.T) {
	cfg := DefaultDisplayConfig()
	cfg.ShowLyricOnPause = false
	engine := NewEngine(EngineConfig{Display: NewDisplay(cfg)})
	engine.Lyrics().Replace(State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}}})
	engine.Playback().Start(time.Now(), 0, false)
	surface := &recordingSurface{}

	s := engine.newScheduler(NewHandle(surface), time.Hour)
	s.Tick()

	if got := surface.last(t).markup; got != "" {
		t.Errorf("markup = %q, want blank while paused", got)
	}
}

func TestRegisterStopsAfterRelease(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	engine.Lyrics().Replace(State{Origin: lyrics.LineTimestamp{{Timestamp: 0, Text: "A"}}})
	engine.Playback().Start(time.Now(), 0, true)

	surface := &recordingSurface{}
	handle := NewHandle(surface)
	s := engine.Register(handle, 5*time.Millisecond)

	if s.ID() == "" {
		t.Error("expected scheduler id")
	}

	deadline := time.After(2 * time.Second)
	for surface.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler never refreshed the surface")
		case <-time.After(5 * time.Millisecond):
		}
	}

	handle.Release()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not terminate after release")
	}

	written := surface.count()
	time.Sleep(30 * time.Millisecond)
	if surface.count() != written {
		t.Error("surface written after termination")
	}
}

func TestHandle(t *testing.T) {
	surface := &recordingSurface{}
	h := NewHandle(surface)

	if got, ok := h.Upgrade(); !ok || got != surface {
		t.Fatal("expected live handle to upgrade")
	}

	h.Release()
	h.Release()

	if h.Alive() {
		t.Error("expected released handle to be dead")
	}
	if NewHandle(nil).Alive() {
		t.Error("expected handle around nil surface to be dead")
	}
}
