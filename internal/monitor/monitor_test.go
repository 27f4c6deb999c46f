package monitor

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixel-swarm/internal/events"
	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/metrics"
	"pixel-swarm/internal/palette"
)

func TestMosaicCells(t *testing.T) {
	cells := MosaicCells(100, 0)
	if len(cells) != 100 {
		t.Fatalf("expected 100 cells, got %d", len(cells))
	}

	if got := cells[grid.Coordinate{X: 0, Y: 0}]; got != palette.Gradient(0, 100) {
		t.Errorf("cell {0, 0} = %s, want %s", got, palette.Gradient(0, 100))
	}
	if got := cells[grid.Coordinate{X: 9, Y: 9}]; got != palette.Gradient(99, 100) {
		t.Errorf("cell {9, 9} = %s, want %s", got, palette.Gradient(99, 100))
	}

	odd := MosaicCells(100, 1)
	if got := odd[grid.Coordinate{X: 9, Y: 9}]; got != palette.Yellow(99, 100) {
		t.Errorf("odd cycle cell {9, 9} = %s, want %s", got, palette.Yellow(99, 100))
	}
}

func TestRenderMosaicShape(t *testing.T) {
	tests := []struct {
		total  int
		width  int
		height int
	}{
		{100, 10, 10},
		{9, 3, 3},
		{10, 3, 4},
		{1, 1, 1},
	}

	for _, tt := range tests {
		out := RenderMosaic(tt.total, 0)
		rows := strings.Split(out, "\n")
		if len(rows) != tt.height {
			t.Errorf("total=%d: expected %d rows, got %d", tt.total, tt.height, len(rows))
			continue
		}
		for i, row := range rows {
			if w := lipgloss.Width(row); w != tt.width*cellWidth {
				t.Errorf("total=%d row %d: width = %d, want %d", tt.total, i, w, tt.width*cellWidth)
			}
		}
	}
}

func TestRenderMarksEmptyCells(t *testing.T) {
	cells := Cells{{X: 0, Y: 0}: palette.Max}
	out := Render(cells, 2, 1)
	if !strings.Contains(out, "··") {
		t.Errorf("expected placeholder for empty cell, got %q", out)
	}
}

func newTestModel(ch <-chan events.Event, cancel func()) Model {
	snapshot := func() *metrics.Snapshot {
		return &metrics.Snapshot{SentCommands: 3, ActiveWorkers: 2}
	}
	return NewModel("test", 4, ch, snapshot, cancel)
}

func TestModelAppliesPixelEvents(t *testing.T) {
	ch := make(chan events.Event)
	m := newTestModel(ch, nil)

	c := grid.Coordinate{X: 1, Y: 1}
	colour := palette.Colour(0xFF7F00)
	updated, cmd := m.Update(eventMsg(events.NewPixelSentEvent(3, c, colour, 0)))
	if cmd == nil {
		t.Error("expected a command waiting for the next event")
	}

	got := updated.(Model)
	if got.cells[c] != colour {
		t.Errorf("cell %s = %s, want %s", c, got.cells[c], colour)
	}
}

func TestModelTracksFailures(t *testing.T) {
	ch := make(chan events.Event)
	m := newTestModel(ch, nil)

	c := grid.Coordinate{X: 0, Y: 1}
	updated, _ := m.Update(eventMsg(events.NewSendFailedEvent(2, c, errors.New("broken pipe"))))
	updated, _ = updated.Update(eventMsg(events.NewWorkerStoppedEvent(2, 5, errors.New("broken pipe"))))

	got := updated.(Model)
	if !got.failed[c] {
		t.Error("expected cell to be marked failed")
	}
	if got.stopped != 1 {
		t.Errorf("expected 1 stopped worker, got %d", got.stopped)
	}
	if !strings.Contains(got.View(), "broken pipe") {
		t.Error("expected last error in view")
	}
}

func TestModelRefreshesMetrics(t *testing.T) {
	m := newTestModel(make(chan events.Event), nil)

	updated, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Error("expected next tick to be scheduled")
	}

	view := updated.(Model).View()
	if !strings.Contains(view, "sent 3") {
		t.Errorf("expected metrics line in view, got:\n%s", view)
	}
}

func TestModelQuitCancelsSwarm(t *testing.T) {
	cancelled := false
	m := newTestModel(make(chan events.Event), func() { cancelled = true })

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("expected cancel to be called")
	}
	if !updated.(Model).quitting {
		t.Error("expected model to be quitting")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelIgnoresOtherKeys(t *testing.T) {
	cancelled := false
	m := newTestModel(make(chan events.Event), func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cancelled || cmd != nil {
		t.Error("unexpected reaction to unbound key")
	}
}

func TestModelQuitsWhenBusCloses(t *testing.T) {
	ch := make(chan events.Event)
	close(ch)
	m := newTestModel(ch, nil)

	msg := waitForEvent(ch)()
	if _, ok := msg.(closedMsg); !ok {
		t.Fatalf("expected closedMsg, got %T", msg)
	}

	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
