package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // P99計算用に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: 1000,
	}
}

// Metrics は送信コマンドのメトリクスを収集する
type Metrics struct {
	sentCommands   atomic.Uint64
	failedCommands atomic.Uint64
	totalLatencyNs atomic.Uint64

	connects       atomic.Uint64
	connectFailure atomic.Uint64
	activeWorkers  atomic.Int64

	mu                sync.RWMutex
	startTime         time.Time
	lastResetTime     time.Time
	windowCommands    uint64
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	samples := config.MaxLatencySamples
	if samples <= 0 {
		samples = DefaultConfig().MaxLatencySamples
	}
	now := time.Now()
	return &Metrics{
		startTime:         now,
		lastResetTime:     now,
		latencies:         make([]time.Duration, 0, samples),
		maxLatencySamples: samples,
	}
}

// RecordSent は送信成功を記録する
func (m *Metrics) RecordSent(latency time.Duration) {
	m.sentCommands.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	m.windowCommands++
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()
}

// RecordFailure は送信失敗を記録する
func (m *Metrics) RecordFailure(latency time.Duration) {
	m.failedCommands.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	m.windowCommands++
	m.mu.Unlock()
}

// RecordConnect は接続結果を記録する
func (m *Metrics) RecordConnect(err error) {
	if err != nil {
		m.connectFailure.Add(1)
		return
	}
	m.connects.Add(1)
}

// WorkerStarted はアクティブワーカー数を増やす
func (m *Metrics) WorkerStarted() {
	m.activeWorkers.Add(1)
}

// WorkerStopped はアクティブワーカー数を減らす
func (m *Metrics) WorkerStopped() {
	m.activeWorkers.Add(-1)
}

// TotalCommands は送信を試みたコマンド総数を返す
func (m *Metrics) TotalCommands() uint64 {
	return m.sentCommands.Load() + m.failedCommands.Load()
}

// SentCommands は送信成功数を返す
func (m *Metrics) SentCommands() uint64 {
	return m.sentCommands.Load()
}

// FailedCommands は送信失敗数を返す
func (m *Metrics) FailedCommands() uint64 {
	return m.failedCommands.Load()
}

// Connects は接続成功数を返す
func (m *Metrics) Connects() uint64 {
	return m.connects.Load()
}

// ConnectFailures は接続失敗数を返す
func (m *Metrics) ConnectFailures() uint64 {
	return m.connectFailure.Load()
}

// ActiveWorkers は現在送信ループ中のワーカー数を返す
func (m *Metrics) ActiveWorkers() int64 {
	return m.activeWorkers.Load()
}

// CPS は現在のウィンドウでの Commands Per Second を返す
func (m *Metrics) CPS() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.lastResetTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.windowCommands) / elapsed
}

// OverallCPS は開始からの平均CPSを返す
func (m *Metrics) OverallCPS() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.TotalCommands()) / elapsed
}

// AverageLatency は平均送信レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.TotalCommands()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// P99Latency はP99送信レイテンシを返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (m *Metrics) ErrorRate() float64 {
	total := m.TotalCommands()
	if total == 0 {
		return 0
	}
	return float64(m.failedCommands.Load()) / float64(total)
}

// Reset はウィンドウメトリクスをリセットする
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windowCommands = 0
	m.lastResetTime = time.Now()
	m.latencies = m.latencies[:0]
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalCommands   uint64        `json:"total_commands"`
	SentCommands    uint64        `json:"sent_commands"`
	FailedCommands  uint64        `json:"failed_commands"`
	Connects        uint64        `json:"connects"`
	ConnectFailures uint64        `json:"connect_failures"`
	ActiveWorkers   int64         `json:"active_workers"`
	CPS             float64       `json:"cps"`
	OverallCPS      float64       `json:"overall_cps"`
	AverageLatency  time.Duration `json:"average_latency"`
	P99Latency      time.Duration `json:"p99_latency"`
	ErrorRate       float64       `json:"error_rate"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalCommands:   m.TotalCommands(),
		SentCommands:    m.SentCommands(),
		FailedCommands:  m.FailedCommands(),
		Connects:        m.Connects(),
		ConnectFailures: m.ConnectFailures(),
		ActiveWorkers:   m.ActiveWorkers(),
		CPS:             m.CPS(),
		OverallCPS:      m.OverallCPS(),
		AverageLatency:  m.AverageLatency(),
		P99Latency:      m.P99Latency(),
		ErrorRate:       m.ErrorRate(),
		Elapsed:         time.Since(m.startTime),
	}
}
