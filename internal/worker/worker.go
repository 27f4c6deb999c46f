package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"pixel-swarm/internal/logger"
)

// Task はワーカーが実行する長時間タスク
// ctx がキャンセルされたら速やかに戻ること
type Task func(ctx context.Context) error

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers  int // ゴルーチン数（0でCPU数）
	QueueFactor int // キューサイズ = NumWorkers * QueueFactor
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:  0,
		QueueFactor: 1,
	}
}

// Pool はゴルーチンのプールを管理する
type Pool struct {
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup // ワーカーゴルーチン
	pending    sync.WaitGroup // 投入済みで未完了のタスク
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	stopping   atomic.Bool
	mu         sync.Mutex

	completed atomic.Uint64
	failed    atomic.Uint64
	errMu     sync.Mutex
	errs      []error
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan Task, numWorkers*queueFactor),
	}
}

// Start はワーカープールを起動する
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for i := range p.numWorkers {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Debug("", "WorkerPool started with %d goroutines", p.numWorkers)
}

// worker は個々のワーカーゴルーチン
func (p *Pool) worker(_ int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			return
		case task := <-p.tasks:
			p.run(task)
		}
	}
}

// run はタスクを実行し結果を記録する
func (p *Pool) run(task Task) {
	defer p.pending.Done()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("", "Task panicked: %v", r)
			p.record(errors.New("task panicked"))
		}
	}()

	p.record(task(p.ctx))
}

func (p *Pool) record(err error) {
	if err == nil {
		p.completed.Add(1)
		return
	}
	p.failed.Add(1)
	p.errMu.Lock()
	p.errs = append(p.errs, err)
	p.errMu.Unlock()
}

// drain は未実行のタスクを破棄して pending を解放する
func (p *Pool) drain() {
	for {
		select {
		case <-p.tasks:
			p.pending.Done()
		default:
			return
		}
	}
}

// Submit はタスクをプールに送信する。キューが満杯なら false を返す
func (p *Pool) Submit(task Task) bool {
	if !p.accepting() {
		return false
	}

	p.pending.Add(1)
	select {
	case p.tasks <- task:
		return true
	default:
		p.pending.Done()
		return false
	}
}

// SubmitWait はタスクを送信し、キューに空きがなければブロックする
func (p *Pool) SubmitWait(task Task) bool {
	if !p.accepting() {
		return false
	}

	p.pending.Add(1)
	select {
	case <-p.ctx.Done():
		p.pending.Done()
		return false
	case p.tasks <- task:
		return true
	}
}

func (p *Pool) accepting() bool {
	if p.stopping.Load() {
		return false
	}
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return false
	}
	return p.ctx.Err() == nil
}

// Wait は投入済みの全タスクの完了を待つ
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop はワーカープールを停止する。実行中のタスクの終了を待つ
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.stopping.Store(true)
	p.cancel()
	p.wg.Wait()
	p.drain()

	p.mu.Lock()
	p.started = false
	p.mu.Unlock()

	logger.Debug("", "WorkerPool stopped")
}

// NumWorkers はゴルーチン数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// QueueSize は現在のキューサイズを返す
func (p *Pool) QueueSize() int {
	return len(p.tasks)
}

// Completed はエラーなく終了したタスク数を返す
func (p *Pool) Completed() uint64 {
	return p.completed.Load()
}

// Failed はエラーで終了したタスク数を返す
func (p *Pool) Failed() uint64 {
	return p.failed.Load()
}

// Err は失敗したタスクのエラーをまとめて返す
func (p *Pool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return errors.Join(p.errs...)
}
