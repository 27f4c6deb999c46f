package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixel-swarm/internal/events"
	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/metrics"
)

const refreshInterval = 500 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "stop swarm"),
	),
}

// SnapshotFunc は現在のメトリクスを返す（未開始なら nil）
type SnapshotFunc func() *metrics.Snapshot

type eventMsg events.Event
type tickMsg time.Time
type closedMsg struct{}

// Model はスウォームのライブ表示
type Model struct {
	title    string
	total    int
	width    int
	height   int
	cells    Cells
	failed   map[grid.Coordinate]bool
	events   <-chan events.Event
	snapshot SnapshotFunc
	stats    *metrics.Snapshot
	stopped  int
	lastErr  string
	cancel   context.CancelFunc
	quitting bool
}

// NewModel はモデルを作成する
// cancel は q キーでスウォームを止めるために呼ばれる
func NewModel(title string, total int, ch <-chan events.Event, snapshot SnapshotFunc, cancel context.CancelFunc) Model {
	width, height := grid.Bounds(total)
	return Model{
		title:    title,
		total:    total,
		width:    width,
		height:   height,
		cells:    make(Cells, total),
		failed:   make(map[grid.Coordinate]bool),
		events:   ch,
		snapshot: snapshot,
		cancel:   cancel,
	}
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init は bubbletea の初期化
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

// Update はメッセージを処理する
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		m.apply(events.Event(msg))
		return m, waitForEvent(m.events)

	case tickMsg:
		if m.snapshot != nil {
			m.stats = m.snapshot()
		}
		return m, tick()

	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// apply はイベントを表示状態に反映する
func (m *Model) apply(ev events.Event) {
	c := grid.Coordinate{X: ev.Data.X, Y: ev.Data.Y}
	switch ev.Type {
	case events.EventPixelSent:
		m.cells[c] = ev.Data.Colour
		delete(m.failed, c)
	case events.EventSendFailed:
		m.failed[c] = true
		m.lastErr = ev.Data.Error
	case events.EventWorkerConnectFailed:
		m.lastErr = ev.Data.Error
	case events.EventWorkerStopped:
		m.stopped++
		if ev.Data.Error != "" {
			m.lastErr = ev.Data.Error
		}
	}
}

// View は画面を描画する
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("pixel-swarm · %s · %d workers (%dx%d)",
		m.title, m.total, m.width, m.height)))
	b.WriteString("\n\n")
	b.WriteString(Render(m.cells, m.width, m.height))
	b.WriteString("\n\n")

	if m.stats != nil {
		b.WriteString(statStyle.Render(fmt.Sprintf(
			"sent %d · failed %d · active %d · stopped %d · %.1f cmd/s · p99 %v",
			m.stats.SentCommands, m.stats.FailedCommands, m.stats.ActiveWorkers,
			m.stopped, m.stats.CPS, m.stats.P99Latency.Round(time.Microsecond))))
	} else {
		b.WriteString(statStyle.Render(fmt.Sprintf("stopped %d", m.stopped)))
	}
	b.WriteString("\n")

	if m.lastErr != "" {
		b.WriteString(errStyle.Render("last error: " + m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(keys.Quit.Help().Key + " " + keys.Quit.Help().Desc))
	b.WriteString("\n")

	return b.String()
}

// Run はライブ表示を実行し、終了するかctxがキャンセルされるまでブロックする
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
