package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
)

// Recorder 는 요청별 토큰 사용량을 저장하거나 배치로 적재한다.
type Recorder struct {
	repo    *Repository
	batcher *batcher
	logger  *slog.Logger
}

// NewRecorder 는 설정에 따라 배치 사용 여부를 결정해 Recorder를 생성한다.
func NewRecorder(cfg config.DatabaseConfig, repo *Repository, logger *slog.Logger) *Recorder {
	recorder := &Recorder{
		repo:   repo,
		logger: logger,
	}

	if cfg.UsageBatchEnabled {
		recorder.batcher = newBatcher(cfg, repo, logger)
		recorder.batcher.start()
		if logger != nil {
			logger.Info(
				"usage_db_batch_enabled",
				"flush_interval_seconds", cfg.UsageBatchFlushIntervalSeconds,
				"max_pending_requests", cfg.UsageBatchMaxPendingRequests,
			)
		}
	}

	return recorder
}

// Record 는 1회 요청의 토큰 사용량을 기록한다. fallback 이면 폴백 카운트도 올린다.
func (r *Recorder) Record(ctx context.Context, inputTokens, outputTokens int64, fallback bool) {
	if r == nil || r.repo == nil {
		return
	}

	fallbackCount := int64(0)
	if fallback {
		fallbackCount = 1
	}

	if r.batcher != nil {
		r.batcher.add(inputTokens, outputTokens, 1, fallbackCount)
		return
	}

	if err := r.repo.RecordUsage(ctx, inputTokens, outputTokens, 1, fallbackCount, time.Time{}); err != nil {
		if r.logger != nil {
			r.logger.Warn("usage_db_save_failed", "err", err)
		}
	}
}

// Close 는 배치 플러셔를 중지한다.
func (r *Recorder) Close() {
	if r == nil || r.batcher == nil {
		return
	}
	r.batcher.stop()
}
