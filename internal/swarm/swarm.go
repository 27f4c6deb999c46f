package swarm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixel-swarm/internal/events"
	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/logger"
	"pixel-swarm/internal/metrics"
	"pixel-swarm/internal/scheduler"
	"pixel-swarm/internal/transport"
	"pixel-swarm/internal/worker"
)

// DefaultAddress はキャンバスサービスの標準の接続先
const DefaultAddress = "ws://localhost:3001/ws"

// Config はスウォームの設定
type Config struct {
	Name        string // シナリオ名
	Description string // 説明

	// 接続設定
	Address string           // WebSocket アドレス
	Driver  transport.Driver // WebSocket 実装
	Origin  string           // Origin ヘッダ（空ならアドレスから導出）

	// ワーカー設定
	Workers       int           // ワーカー総数
	StartWindow   time.Duration // 初回送信を分散させる時間幅
	CycleInterval time.Duration // サイクル間隔
	MaxCycles     uint64        // ワーカーごとの最大サイクル数（0で無制限）

	Duration time.Duration // 実行時間（0で無制限）
}

// DefaultConfig はデフォルト設定（reference プリセット）を返す
func DefaultConfig() Config {
	return Config{
		Name:          "reference",
		Description:   "100 workers on a 10x10 grid, 9s start window, 9s cycle",
		Address:       DefaultAddress,
		Driver:        transport.DriverXNet,
		Workers:       100,
		StartWindow:   scheduler.DefaultStartWindow,
		CycleInterval: scheduler.DefaultCycleInterval,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Address == "" {
		return fmt.Errorf("address must not be empty")
	}
	if _, err := transport.ParseDriver(string(c.Driver)); err != nil {
		return err
	}
	if c.StartWindow < 0 {
		return fmt.Errorf("start window must be non-negative, got %v", c.StartWindow)
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("cycle interval must be positive, got %v", c.CycleInterval)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %v", c.Duration)
	}
	return nil
}

// schedulerConfig はワーカー用の設定に変換する
func (c Config) schedulerConfig() scheduler.Config {
	return scheduler.Config{
		StartWindow:   c.StartWindow,
		CycleInterval: c.CycleInterval,
		MaxCycles:     c.MaxCycles,
	}
}

// Result はスウォーム実行結果
type Result struct {
	RunID        string
	ScenarioName string
	Address      string
	Driver       transport.Driver
	Workers      int
	GridWidth    int
	GridHeight   int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration

	// 送信メトリクス
	TotalCommands  uint64
	SentCommands   uint64
	FailedCommands uint64
	ErrorRate      float64
	AvgLatency     time.Duration
	P99Latency     time.Duration
	OverallCPS     float64

	// ワーカー統計
	Connects         uint64
	ConnectFailures  uint64
	StoppedCleanly   uint64
	StoppedWithError uint64
	Errors           []string
}

// Engine はスウォーム実行エンジン
type Engine struct {
	config   Config
	eventBus *events.Bus
	dialer   transport.Dialer

	mu      sync.RWMutex
	running bool
	metrics *metrics.Metrics
	runID   string
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// SetDialer は接続方法を差し替える（テストやカスタムトランスポート用）
func (e *Engine) SetDialer(d transport.Dialer) {
	e.dialer = d
}

// Config は設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// Run はスウォームを実行する
// ctx のキャンセル、Duration の経過、全ワーカーの終了のいずれかで戻る
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dialer := e.dialer
	if dialer == nil {
		d, err := transport.NewDialer(e.config.Driver, e.config.Origin)
		if err != nil {
			return nil, fmt.Errorf("failed to create dialer: %w", err)
		}
		dialer = d
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("swarm is already running")
	}
	e.running = true
	e.metrics = metrics.New()
	e.runID = uuid.NewString()
	m := e.metrics
	runID := e.runID
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	width, height := grid.Bounds(e.config.Workers)
	logger.Info("", "=== Swarm '%s' started (run %s) ===", e.config.Name, runID)
	logger.Info("", "Target: %s (%s), workers: %d, grid: %dx%d",
		e.config.Address, e.config.Driver, e.config.Workers, width, height)

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if e.config.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.config.Duration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	result := &Result{
		RunID:        runID,
		ScenarioName: e.config.Name,
		Address:      e.config.Address,
		Driver:       e.config.Driver,
		Workers:      e.config.Workers,
		GridWidth:    width,
		GridHeight:   height,
	}

	// 全ワーカー起動前に一度だけ基準時刻を取得する
	start := time.Now()
	result.StartTime = start

	pool := worker.NewPool(e.config.Workers)
	pool.Start(runCtx)

	workerConfig := e.config.schedulerConfig()
	for i := range e.config.Workers {
		w := scheduler.New(scheduler.Identity{Index: i, Total: e.config.Workers},
			workerConfig, dialer, e.config.Address)
		w.SetMetrics(m)
		w.SetEventBus(e.eventBus)

		if !pool.SubmitWait(func(ctx context.Context) error {
			return w.Run(ctx, start)
		}) {
			logger.Warn("", "Swarm cancelled while launching workers (%d/%d)", i, e.config.Workers)
			break
		}
	}

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-runCtx.Done():
		logger.Info("", "Swarm stopping, waiting for workers...")
	case <-done:
		logger.Info("", "All workers finished")
	}

	pool.Stop()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	e.collectResults(result, m, pool)

	logger.Info("", "=== Swarm '%s' completed ===", e.config.Name)

	return result, nil
}

// collectResults は結果を収集する
func (e *Engine) collectResults(result *Result, m *metrics.Metrics, pool *worker.Pool) {
	snapshot := m.Snapshot()
	result.TotalCommands = snapshot.TotalCommands
	result.SentCommands = snapshot.SentCommands
	result.FailedCommands = snapshot.FailedCommands
	result.ErrorRate = snapshot.ErrorRate
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency
	if secs := result.Duration.Seconds(); secs > 0 {
		result.OverallCPS = float64(snapshot.TotalCommands) / secs
	}

	result.Connects = snapshot.Connects
	result.ConnectFailures = snapshot.ConnectFailures
	result.StoppedCleanly = pool.Completed()
	result.StoppedWithError = pool.Failed()

	if err := pool.Err(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			if line != "" {
				result.Errors = append(result.Errors, line)
			}
		}
	}
}

// maxReportedErrors はレポートに出すエラーの上限
const maxReportedErrors = 10

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	report := fmt.Sprintf(`
================================================================================
                         SWARM REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Run ID:         %s
  Target:         %s (%s)
  Workers:        %d (grid %dx%d)
  Start Time:     %s
  End Time:       %s
  Duration:       %v

EMISSION METRICS
----------------
  Total Commands:   %d
  Sent:             %d
  Failed:           %d
  Error Rate:       %.2f%%
  Avg Latency:      %v
  P99 Latency:      %v
  Commands/sec:     %.2f

WORKER STATISTICS
-----------------
  Connected:          %d
  Connect Failures:   %d
  Stopped Cleanly:    %d
  Stopped With Error: %d
`,
		r.ScenarioName,
		r.RunID,
		r.Address, r.Driver,
		r.Workers, r.GridWidth, r.GridHeight,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.TotalCommands,
		r.SentCommands,
		r.FailedCommands,
		r.ErrorRate*100,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
		r.OverallCPS,
		r.Connects,
		r.ConnectFailures,
		r.StoppedCleanly,
		r.StoppedWithError,
	)

	if len(r.Errors) > 0 {
		report += "\nERRORS\n------\n"
		for i, msg := range r.Errors {
			if i == maxReportedErrors {
				report += fmt.Sprintf("  ... and %d more\n", len(r.Errors)-maxReportedErrors)
				break
			}
			report += "  " + msg + "\n"
		}
	}

	report += "\n================================================================================"

	return report
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// RunID は現在（または直前）の実行IDを返す
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// Metrics は送信メトリクスのスナップショットを返す
func (e *Engine) Metrics() *metrics.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.metrics == nil {
		return nil
	}
	snapshot := e.metrics.Snapshot()
	return &snapshot
}
