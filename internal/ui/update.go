package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	fineOffsetStep   = 100 * time.Millisecond
	coarseOffsetStep = 500 * time.Millisecond
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case FrameMsg:
		return m.handleFrame(time.Time(msg))
	}

	return m, nil
}

func (m Model) handleFrame(now time.Time) (tea.Model, tea.Cmd) {
	m.tickCount++

	if m.board != nil {
		snap := m.board.Snapshot()
		newLine := snap.Version != m.snap.Version
		m.snap = snap
		m.anim.Update(newLine, transitionTicks)
	}

	if m.flash != "" && now.After(m.flashUntil) {
		m.flash = ""
	}

	return m, m.frameCmd()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.Close()
		return m, tea.Quit

	case "tab", "i":
		m.hideHeader = !m.hideHeader
		return m, nil
	}

	if m.ctrl == nil {
		return m, nil
	}

	switch key {
	case "m":
		mode := m.ctrl.Display().Mode.Next()
		m.ctrl.SetDisplayMode(mode)
		m.setFlash("mode " + mode.String())

	case "+", "=":
		m.resizeFonts(1, 0)
	case "-", "_":
		m.resizeFonts(-1, 0)
	case "]":
		m.resizeFonts(0, 1)
	case "[":
		m.resizeFonts(0, -1)

	case "up", "k":
		m.shiftOffset(fineOffsetStep)
	case "down", "j":
		m.shiftOffset(-fineOffsetStep)
	case "right", "l":
		m.shiftOffset(coarseOffsetStep)
	case "left", "h":
		m.shiftOffset(-coarseOffsetStep)

	case "0":
		m.ctrl.SetSyncOffset(0)
		m.persistOffset()
		m.setFlash("offset reset")

	case "p":
		show := !m.ctrl.Display().ShowLyricOnPause
		m.ctrl.SetShowLyricOnPause(show)
		if show {
			m.setFlash("lyrics stay on pause")
		} else {
			m.setFlash("lyrics hide on pause")
		}
	}

	return m, nil
}

func (m *Model) resizeFonts(primaryDelta, secondaryDelta int) {
	cfg := m.ctrl.ResizeFonts(primaryDelta, secondaryDelta)
	m.setFlash(fmt.Sprintf("size %dpt / %dpt", cfg.PrimaryFontSize, cfg.SecondaryFontSize))
}

func (m *Model) shiftOffset(delta time.Duration) {
	offset := m.ctrl.AdjustSyncOffset(delta)
	m.persistOffset()
	m.setFlash(fmt.Sprintf("offset %+.1fs", offset.Seconds()))
}

func (m *Model) persistOffset() {
	if m.saveOffset == nil {
		return
	}
	if err := m.saveOffset(); err != nil {
		m.logger.WithError(err).Warn("failed to save sync offset")
	}
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashUntil = m.now().Add(flashDuration)
}
