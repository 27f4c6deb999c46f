package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pixel-swarm/internal/command"
	"pixel-swarm/internal/events"
	"pixel-swarm/internal/grid"
	"pixel-swarm/internal/logger"
	"pixel-swarm/internal/metrics"
	"pixel-swarm/internal/palette"
	"pixel-swarm/internal/transport"
)

// デフォルトのタイミング
const (
	DefaultStartWindow   = 9 * time.Second
	DefaultCycleInterval = 9 * time.Second
)

// Identity はワーカーの不変の識別情報
type Identity struct {
	Index int // [0, Total)
	Total int // ワーカー総数
}

// Validate は識別情報を検証する
func (id Identity) Validate() error {
	if id.Total <= 0 {
		return fmt.Errorf("total must be positive, got %d", id.Total)
	}
	if id.Index < 0 || id.Index >= id.Total {
		return fmt.Errorf("index %d out of range [0, %d)", id.Index, id.Total)
	}
	return nil
}

// Config はワーカーのタイミング設定
type Config struct {
	StartWindow   time.Duration // 初回送信を分散させる時間幅
	CycleInterval time.Duration // サイクル間の待機時間
	MaxCycles     uint64        // 最大サイクル数（0で無制限）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		StartWindow:   DefaultStartWindow,
		CycleInterval: DefaultCycleInterval,
		MaxCycles:     0,
	}
}

// StartDelay は初回送信までの待機時間を計算する
// window/total*index から開始時刻以降の経過時間を引いた値（負になりうる）
func StartDelay(window time.Duration, id Identity, elapsed time.Duration) time.Duration {
	if id.Total <= 0 {
		return -elapsed
	}
	slot := time.Duration(float64(window) / float64(id.Total) * float64(id.Index))
	return slot - elapsed
}

// Worker は1ワーカー分の送信ループ
type Worker struct {
	identity Identity
	config   Config
	dialer   transport.Dialer
	address  string
	id       string

	metrics  *metrics.Metrics
	eventBus *events.Bus
	now      func() time.Time

	coord  grid.Coordinate
	cycles atomic.Uint64
}

// New は新しいワーカーを作成する
func New(identity Identity, config Config, dialer transport.Dialer, address string) *Worker {
	return &Worker{
		identity: identity,
		config:   config,
		dialer:   dialer,
		address:  address,
		id:       logger.WorkerID(identity.Index),
		now:      time.Now,
		coord:    grid.Map(identity.Index, identity.Total),
	}
}

// SetMetrics はメトリクスを設定する
func (w *Worker) SetMetrics(m *metrics.Metrics) {
	w.metrics = m
}

// SetEventBus はイベントバスを設定する
func (w *Worker) SetEventBus(bus *events.Bus) {
	w.eventBus = bus
}

// Identity はワーカーの識別情報を返す
func (w *Worker) Identity() Identity {
	return w.identity
}

// Coordinate は担当セルを返す
func (w *Worker) Coordinate() grid.Coordinate {
	return w.coord
}

// Cycles は送信済みサイクル数を返す
func (w *Worker) Cycles() uint64 {
	return w.cycles.Load()
}

func (w *Worker) publishEvent(event events.Event) {
	if w.eventBus != nil {
		w.eventBus.Publish(event)
	}
}

// Run は接続・初回待機・送信ループを実行する
// start は全ワーカー起動前に一度だけ取得した共通の基準時刻
func (w *Worker) Run(ctx context.Context, start time.Time) (err error) {
	if err := w.identity.Validate(); err != nil {
		return fmt.Errorf("%s: %w", w.id, err)
	}

	// Init: 接続
	ch, err := w.dialer.Dial(ctx, w.address)
	if w.metrics != nil {
		w.metrics.RecordConnect(err)
	}
	if err != nil {
		logger.Error(w.id, "Connect failed: %v", err)
		w.publishEvent(events.NewWorkerConnectFailedEvent(w.identity.Index, err))
		return fmt.Errorf("%s: %w", w.id, err)
	}
	defer func() { _ = ch.Close() }()

	logger.Debug(w.id, "Connected to %s, cell %s", w.address, w.coord)
	w.publishEvent(events.NewWorkerConnectedEvent(w.identity.Index, w.coord))

	if w.metrics != nil {
		w.metrics.WorkerStarted()
		defer w.metrics.WorkerStopped()
	}
	defer func() {
		w.publishEvent(events.NewWorkerStoppedEvent(w.identity.Index, w.Cycles(), err))
	}()

	// Init: 初回送信タイミングの分散
	delay := StartDelay(w.config.StartWindow, w.identity, w.now().Sub(start))
	if delay > 0 {
		if !sleep(ctx, delay) {
			return nil
		}
	}

	return w.cycle(ctx, ch)
}

// cycle は送信ループ本体
func (w *Worker) cycle(ctx context.Context, ch transport.Channel) error {
	var count uint64

	for {
		if w.config.MaxCycles > 0 && count >= w.config.MaxCycles {
			logger.Debug(w.id, "Reached %d cycles", count)
			return nil
		}

		// パリティはインクリメント前の値で判定する
		colour := palette.Colorize(count, w.identity.Index, w.identity.Total)
		count++
		w.cycles.Store(count)

		if err := w.emit(ctx, ch, colour, count); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !sleep(ctx, w.config.CycleInterval) {
			return nil
		}
	}
}

// emit は1サイクル分のコマンドを送信する
func (w *Worker) emit(ctx context.Context, ch transport.Channel, colour palette.Colour, count uint64) error {
	frame, err := command.NewSetPixel(w.coord, colour).Encode()
	if err != nil {
		return fmt.Errorf("%s: %w", w.id, err)
	}

	logger.Debug(w.id, "%s, %s", w.coord, colour)

	start := time.Now()
	err = ch.Send(ctx, frame)
	latency := time.Since(start)

	if err != nil {
		if w.metrics != nil {
			w.metrics.RecordFailure(latency)
		}
		if ctx.Err() == nil {
			logger.Error(w.id, "Send failed: %v", err)
			w.publishEvent(events.NewSendFailedEvent(w.identity.Index, w.coord, err))
		}
		return fmt.Errorf("%s: %w", w.id, err)
	}

	if w.metrics != nil {
		w.metrics.RecordSent(latency)
	}
	w.publishEvent(events.NewPixelSentEvent(w.identity.Index, w.coord, colour, count))
	return nil
}

// sleep はキャンセル可能な待機。キャンセルされた場合は false を返す
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
