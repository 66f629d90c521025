package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/rigid2d/internal/scene"
	"github.com/san-kum/rigid2d/internal/world"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel("pyramid", func() (*world.World, error) {
		return scene.Build("pyramid", scene.Params{"rows": 2})
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTickAdvancesWorld(t *testing.T) {
	m := newTestModel(t)
	m.Update(tickMsg(time.Now()))
	m.Update(tickMsg(time.Now()))

	if m.World().StepCount() != 2 {
		t.Errorf("StepCount = %d, want 2", m.World().StepCount())
	}
	if len(m.history) != 2 {
		t.Errorf("history length = %d", len(m.history))
	}
}

func TestPauseAndSingleStep(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.paused {
		t.Fatal("space should pause")
	}

	m.Update(tickMsg(time.Now()))
	if m.World().StepCount() != 0 {
		t.Errorf("paused model stepped")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if m.World().StepCount() != 1 {
		t.Errorf("n should step once, StepCount = %d", m.World().StepCount())
	}
}

func TestSpeedAndReset(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	m.Update(tickMsg(time.Now()))
	if m.World().StepCount() != 2 {
		t.Errorf("double speed should take 2 steps, got %d", m.World().StepCount())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.World().StepCount() != 0 {
		t.Errorf("reset should rebuild the world")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m.Update(tickMsg(time.Now()))
	out := m.View()

	if !strings.Contains(out, "pyramid") || !strings.Contains(out, "bodies=") {
		t.Errorf("view missing header or stats:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{0, 1}, 10); got != "▁█" {
		t.Errorf("sparkline = %q", got)
	}
}
