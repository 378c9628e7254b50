package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyroverlay/internal/lyricsync"
)

type testHarness struct {
	model  Model
	engine *lyricsync.Engine
	board  *Board
	handle *lyricsync.Handle
	saves  int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		engine: lyricsync.NewEngine(lyricsync.EngineConfig{}),
		board:  newTestBoard(lyricsync.JustifyCenter),
	}
	h.handle = lyricsync.NewHandle(h.board)
	h.model = NewModel(ModelConfig{
		Board:      h.board,
		Handle:     h.handle,
		Controller: h.engine,
		SaveOffset: func() error {
			h.saves++
			return nil
		},
		FigletMinSize: 24,
		Now:           func() time.Time { return epoch },
	})
	return h
}

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func (h *testHarness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestQuitReleasesHandle(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !h.model.IsQuitting() {
		t.Error("model should be quitting")
	}
	if h.handle.Alive() {
		t.Error("handle should be released so the scheduler stops")
	}
	if h.model.View() != "" {
		t.Error("quitting model should render nothing")
	}
}

func TestModeKeyCycles(t *testing.T) {
	h := newHarness(t)
	start := h.engine.Display().Mode

	h.send(runes("m"))
	if got := h.engine.Display().Mode; got != start.Next() {
		t.Errorf("mode = %v, want %v", got, start.Next())
	}
	if !strings.HasPrefix(h.model.Flash(), "mode ") {
		t.Errorf("flash = %q", h.model.Flash())
	}
}

func TestFontSizeKeys(t *testing.T) {
	h := newHarness(t)
	before := h.engine.Display()

	h.send(runes("+"))
	h.send(runes("]"))
	h.send(runes("]"))

	after := h.engine.Display()
	if after.PrimaryFontSize != before.PrimaryFontSize+1 {
		t.Errorf("primary = %d, want %d", after.PrimaryFontSize, before.PrimaryFontSize+1)
	}
	if after.SecondaryFontSize != before.SecondaryFontSize+2 {
		t.Errorf("secondary = %d, want %d", after.SecondaryFontSize, before.SecondaryFontSize+2)
	}

	h.send(runes("-"))
	h.send(runes("["))
	if got := h.engine.Display().PrimaryFontSize; got != before.PrimaryFontSize {
		t.Errorf("primary after shrink = %d, want %d", got, before.PrimaryFontSize)
	}
}

func TestOffsetKeysPersist(t *testing.T) {
	h := newHarness(t)

	h.send(tea.KeyMsg{Type: tea.KeyUp})
	h.send(tea.KeyMsg{Type: tea.KeyRight})
	h.send(tea.KeyMsg{Type: tea.KeyDown})

	if got := h.engine.Display().SyncOffset; got != 500*time.Millisecond {
		t.Errorf("offset = %v, want 500ms", got)
	}
	if h.saves != 3 {
		t.Errorf("saves = %d, want 3", h.saves)
	}

	h.send(runes("0"))
	if got := h.engine.Display().SyncOffset; got != 0 {
		t.Errorf("offset after reset = %v", got)
	}
	if h.saves != 4 {
		t.Errorf("reset should persist too, saves = %d", h.saves)
	}
}

func TestPauseToggleAndHeader(t *testing.T) {
	h := newHarness(t)
	show := h.engine.Display().ShowLyricOnPause

	h.send(runes("p"))
	if h.engine.Display().ShowLyricOnPause == show {
		t.Error("p should toggle show-on-pause")
	}

	hidden := h.model.HideHeader()
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	if h.model.HideHeader() == hidden {
		t.Error("tab should toggle the header")
	}
}

func TestFramePicksUpBoard(t *testing.T) {
	h := newHarness(t)

	h.board.SetMarkup("first line", lyricsync.JustifyCenter)
	cmd := h.send(FrameMsg(epoch))
	if cmd == nil {
		t.Error("frame should schedule the next frame")
	}
	if got := h.model.Snapshot().Markup; got != "first line" {
		t.Errorf("markup = %q", got)
	}
	if anim := h.model.AnimState(); anim.GlowIntensity == 0 {
		t.Error("a new line should start the glow")
	}

	h.send(FrameMsg(epoch))
	glow := h.model.AnimState().GlowIntensity
	h.send(FrameMsg(epoch))
	if h.model.AnimState().GlowIntensity >= glow {
		t.Error("glow should decay while the line is unchanged")
	}
}

func TestFlashExpires(t *testing.T) {
	h := newHarness(t)
	h.send(runes("m"))

	h.send(FrameMsg(epoch.Add(time.Second)))
	if h.model.Flash() == "" {
		t.Error("flash cleared too early")
	}
	h.send(FrameMsg(epoch.Add(3 * time.Second)))
	if h.model.Flash() != "" {
		t.Error("flash should expire")
	}
}

func TestViewShowsLyricsAndTrack(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})

	trk := testTrack("song title")
	h.board.TrackChanged(trk)
	h.engine.Playback().Start(epoch, 30*time.Second, true)
	h.board.SetMarkup("sing along", lyricsync.JustifyCenter)
	h.send(FrameMsg(epoch))

	view := h.model.View()
	for _, want := range []string{"song title", "artist", "0:30", "3:00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := strings.Count(view, "\n") + 1; got != 30 {
		t.Errorf("view height = %d, want 30", got)
	}
}

func TestViewIdleBanner(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})

	h.board.SetMarkup("", lyricsync.JustifyCenter)
	h.send(FrameMsg(epoch))
	if !strings.Contains(h.model.View(), "awaiting music") {
		t.Error("expected waiting screen without idle text")
	}

	h.board.SetMarkup(lyricsync.DefaultIdleText, lyricsync.JustifyCenter)
	h.send(FrameMsg(epoch))
	if strings.Contains(h.model.View(), "awaiting music") {
		t.Error("idle text should replace the waiting screen")
	}
}
