package optimizer

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
)

// Task 는 배치 플러시 시점에 실행되는 작업이다.
type Task func()

// Batcher: 폭주 입력용 보조 경로입니다. 대기 작업이 배치 크기만큼 모이거나
// 지연 시간이 지나면 모아서 실행합니다. best-effort 이며 단건 흐름의
// 정합성과는 무관합니다.
type Batcher struct {
	logger   *slog.Logger
	maxBatch int
	delay    time.Duration

	mu      sync.Mutex
	pending []Task

	started atomic.Bool
	running atomic.Bool
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewBatcher(cfg config.OptimizerConfig, logger *slog.Logger) *Batcher {
	maxBatch := cfg.BatchSize
	if maxBatch <= 0 {
		maxBatch = 3
	}
	delay := time.Duration(cfg.BatchDelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = time.Second
	}
	return &Batcher{
		logger:   logger,
		maxBatch: maxBatch,
		delay:    delay,
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (b *Batcher) Start() {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	b.started.Store(true)
	go b.loop()
}

// Stop 는 루프를 멈추고 남은 작업을 마지막으로 플러시한다.
// 여러 곳에서 불려도 안전하며, 모든 호출자는 최종 플러시 완료까지 기다린다.
func (b *Batcher) Stop() {
	if !b.started.Load() {
		return
	}
	if b.running.CompareAndSwap(true, false) {
		close(b.stopCh)
	}
	<-b.doneCh
}

// Running 는 플러시 루프가 동작 중인지 반환한다.
func (b *Batcher) Running() bool {
	return b.running.Load()
}

// Enqueue 는 작업을 대기열에 넣는다. 배치가 가득 차면 즉시 플러시를 깨운다.
func (b *Batcher) Enqueue(task Task) {
	if task == nil {
		return
	}

	b.mu.Lock()
	b.pending = append(b.pending, task)
	full := len(b.pending) >= b.maxBatch
	b.mu.Unlock()

	if full {
		select {
		case b.wakeup <- struct{}{}:
		default:
		}
	}
}

// PendingCount 는 대기 중인 작업 수를 반환한다.
func (b *Batcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Batcher) loop() {
	defer close(b.doneCh)

	ticker := time.NewTicker(b.delay)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			b.flush()
			return
		case <-b.wakeup:
			b.flush()
		case <-ticker.C:
			b.flush()
		}
	}
}

func (b *Batcher) flush() {
	b.mu.Lock()
	tasks := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(tasks) == 0 {
		return
	}
	for _, task := range tasks {
		task()
	}
	b.logger.Debug("batch_flushed", "count", len(tasks))
}
