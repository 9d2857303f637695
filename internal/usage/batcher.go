package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
)

// usageDelta 일별 토큰 사용량 델타
type usageDelta struct {
	inputTokens   int64
	outputTokens  int64
	requestCount  int64
	fallbackCount int64
}

const defaultFlushTimeout = 5 * time.Second

// batcher 는 토큰 사용량을 배치로 DB에 플러시한다.
// 플러시 실패 시 지수 백오프로 물러나고, 실패 로그는 2의 거듭제곱 횟수에서만 남긴다.
type batcher struct {
	repo               *Repository
	logger             *slog.Logger
	flushInterval      time.Duration
	flushTimeout       time.Duration
	maxPendingRequests int
	maxBackoff         time.Duration

	mu                   sync.Mutex
	pending              map[time.Time]*usageDelta
	pendingRequestsTotal int

	wakeup chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	consecutiveFlushFailures int
	nextFlushAllowedAt       time.Time
}

func newBatcher(cfg config.DatabaseConfig, repo *Repository, logger *slog.Logger) *batcher {
	interval := time.Duration(cfg.UsageBatchFlushIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	maxBackoff := time.Duration(cfg.UsageBatchMaxBackoffSeconds) * time.Second
	if maxBackoff <= 0 {
		maxBackoff = interval
	}
	maxPending := cfg.UsageBatchMaxPendingRequests
	if maxPending <= 0 {
		maxPending = 1
	}
	flushTimeout := defaultFlushTimeout
	if cfg.UsageBatchFlushTimeoutSeconds > 0 {
		flushTimeout = time.Duration(cfg.UsageBatchFlushTimeoutSeconds) * time.Second
	}
	return &batcher{
		repo:               repo,
		logger:             logger,
		flushInterval:      interval,
		flushTimeout:       flushTimeout,
		maxPendingRequests: maxPending,
		maxBackoff:         maxBackoff,
		pending:            make(map[time.Time]*usageDelta),
		wakeup:             make(chan struct{}, 1),
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

func (b *batcher) start() {
	go b.loop()
}

func (b *batcher) stop() {
	close(b.stopCh)
	<-b.doneCh
}

func (b *batcher) add(inputTokens, outputTokens, requestCount, fallbackCount int64) {
	if inputTokens <= 0 && outputTokens <= 0 && requestCount <= 0 {
		return
	}

	targetDate := todayDate()
	b.mu.Lock()
	delta := b.pending[targetDate]
	if delta == nil {
		delta = &usageDelta{}
		b.pending[targetDate] = delta
	}
	delta.inputTokens += inputTokens
	delta.outputTokens += outputTokens
	delta.requestCount += requestCount
	delta.fallbackCount += fallbackCount
	b.pendingRequestsTotal += int(requestCount)
	shouldFlush := b.pendingRequestsTotal >= b.maxPendingRequests
	b.mu.Unlock()

	if shouldFlush {
		b.signal()
	}
}

func (b *batcher) signal() {
	select {
	case b.wakeup <- struct{}{}:
	default:
	}
}

func (b *batcher) loop() {
	ticker := time.NewTicker(b.flushInterval)
	defer func() {
		ticker.Stop()
		close(b.doneCh)
	}()

	for {
		select {
		case <-ticker.C:
			b.flush(false)
		case <-b.wakeup:
			b.flush(false)
		case <-b.stopCh:
			b.flush(true)
			return
		}
	}
}

func (b *batcher) flush(isShutdown bool) {
	if !isShutdown && !b.nextFlushAllowedAt.IsZero() && time.Now().Before(b.nextFlushAllowedAt) {
		return
	}

	snapshot := b.takeSnapshot()
	if len(snapshot) == 0 {
		return
	}

	var firstErr error
	for date, delta := range snapshot {
		ctx, cancel := context.WithTimeout(context.Background(), b.flushTimeout)
		err := b.repo.RecordUsage(ctx, delta.inputTokens, delta.outputTokens, delta.requestCount, delta.fallbackCount, date)
		cancel()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			// 종료 중에는 재적재할 곳이 없으므로 버린다.
			if !isShutdown {
				b.requeue(date, delta)
			}
		}
	}

	if firstErr != nil {
		b.registerFailure(firstErr)
		return
	}
	b.consecutiveFlushFailures = 0
	b.nextFlushAllowedAt = time.Time{}
}

func (b *batcher) takeSnapshot() map[time.Time]usageDelta {
	snapshot := make(map[time.Time]usageDelta)
	b.mu.Lock()
	for date, delta := range b.pending {
		snapshot[date] = *delta
	}
	b.pending = make(map[time.Time]*usageDelta)
	b.pendingRequestsTotal = 0
	b.mu.Unlock()
	return snapshot
}

func (b *batcher) requeue(date time.Time, delta usageDelta) {
	b.mu.Lock()
	existing := b.pending[date]
	if existing == nil {
		existing = &usageDelta{}
		b.pending[date] = existing
	}
	existing.inputTokens += delta.inputTokens
	existing.outputTokens += delta.outputTokens
	existing.requestCount += delta.requestCount
	existing.fallbackCount += delta.fallbackCount
	b.pendingRequestsTotal += int(delta.requestCount)
	b.mu.Unlock()
}

func (b *batcher) registerFailure(firstErr error) {
	b.consecutiveFlushFailures++
	backoff := b.flushInterval * time.Duration(1<<max(0, b.consecutiveFlushFailures-1))
	if backoff > b.maxBackoff {
		backoff = b.maxBackoff
	}
	b.nextFlushAllowedAt = time.Now().Add(backoff)

	if isPowerOfTwo(b.consecutiveFlushFailures) && b.logger != nil {
		b.logger.Warn(
			"usage_db_batch_flush_failed",
			"failures", b.consecutiveFlushFailures,
			"backoff", backoff,
			"err", firstErr,
		)
	}
}

// isPowerOfTwo 2의 거듭제곱인지 확인
func isPowerOfTwo(value int) bool {
	return value > 0 && (value&(value-1)) == 0
}
