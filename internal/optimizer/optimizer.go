package optimizer

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
	"github.com/cheonmabigo/fintext-nlu-go/internal/metrics"
)

const (
	cacheStoreKey   = "ai_cache"
	metricsStoreKey = "ai_metrics"

	maxSimilarResults = 5
)

// persistedState 는 영속 저장소에 기록하는 캐시 스냅샷이다.
type persistedState struct {
	Entries map[string]fintext.CachedResponse `json:"entries"`
	Queries map[string]string                 `json:"queries"`
}

// Optimizer: 응답 캐시와 지표 누적을 관리합니다.
// 항목은 의도별 TTL 정책을 따르고, 용량 초과 시 생성 시각이 가장 오래된
// 항목 하나를 내보냅니다.
type Optimizer struct {
	cfg     config.OptimizerConfig
	metrics *metrics.AIMetrics
	store   kvstore.Store
	logger  *slog.Logger
	batcher *Batcher

	mu      sync.Mutex
	entries map[string]*fintext.CachedResponse
	queries map[string]string
}

func New(cfg config.OptimizerConfig, aiMetrics *metrics.AIMetrics, store kvstore.Store, logger *slog.Logger) (*Optimizer, error) {
	if aiMetrics == nil {
		return nil, errors.New("metrics accumulator is nil")
	}
	if store == nil {
		return nil, errors.New("kv store is nil")
	}
	return &Optimizer{
		cfg:     cfg,
		metrics: aiMetrics,
		store:   store,
		logger:  logger,
		batcher: NewBatcher(cfg, logger),
		entries: make(map[string]*fintext.CachedResponse),
		queries: make(map[string]string),
	}, nil
}

// GetCached 는 지문으로 캐시를 조회한다. 만료 항목은 그 자리에서 지우고 nil 을 반환한다.
func (o *Optimizer) GetCached(query string, userCtx *fintext.UserContext) *fintext.AIResponse {
	key := Fingerprint(query, userCtx)
	now := time.Now()

	o.mu.Lock()
	entry, ok := o.entries[key]
	if !ok {
		o.mu.Unlock()
		return nil
	}
	if entry.Expired(now) {
		delete(o.entries, key)
		delete(o.queries, key)
		o.mu.Unlock()
		return nil
	}
	entry.HitCount++
	response := entry.Response
	o.mu.Unlock()

	// 호출자에게는 사본을 준다. 캐시 원본과 메타데이터를 공유하지 않는다.
	response.Metadata.CacheHit = true
	return &response
}

// Store 는 성공 응답을 캐시에 넣는다. 의도 정책상 캐시 대상이 아니면 조용히 건너뛴다.
func (o *Optimizer) Store(ctx context.Context, query string, response *fintext.AIResponse, userCtx *fintext.UserContext) {
	if response == nil {
		return
	}
	strategy := CacheStrategy(response.Intent)
	if !strategy.ShouldCache {
		return
	}

	key := Fingerprint(query, userCtx)
	now := time.Now()

	o.mu.Lock()
	if _, exists := o.entries[key]; !exists && len(o.entries) >= o.cfg.MaxCacheSize {
		o.evictOldestLocked()
	}
	o.entries[key] = &fintext.CachedResponse{
		Key:       key,
		Response:  *response,
		CreatedAt: now,
		ExpiresAt: now.Add(strategy.TTL),
	}
	o.queries[key] = query
	o.mu.Unlock()

	o.schedulePersist(ctx, o.persistCache)
}

// Clear 는 캐시 전체를 비우고 영속 스냅샷도 함께 지운다.
func (o *Optimizer) Clear(ctx context.Context) {
	o.mu.Lock()
	o.entries = make(map[string]*fintext.CachedResponse)
	o.queries = make(map[string]string)
	o.mu.Unlock()

	if o.cfg.PersistEnabled {
		if err := o.store.Delete(ctx, cacheStoreKey); err != nil {
			o.logger.Warn("cache_persist_delete_failed", "error", err)
		}
	}
}

// Len 는 현재 캐시 항목 수를 반환한다.
func (o *Optimizer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// SimilarMatch 는 FindSimilar 의 결과 항목이다.
type SimilarMatch struct {
	Cached     fintext.CachedResponse `json:"cached"`
	Query      string                 `json:"query"`
	Similarity float64                `json:"similarity"`
}

// FindSimilar 는 저장된 질의들과의 자카드 유사도가 threshold 이상인 항목을
// 유사도 내림차순으로 최대 5개 반환한다.
func (o *Optimizer) FindSimilar(query string, threshold float64) []SimilarMatch {
	o.mu.Lock()
	matches := make([]SimilarMatch, 0)
	for key, cachedQuery := range o.queries {
		entry, ok := o.entries[key]
		if !ok {
			continue
		}
		similarity := jaccard(query, cachedQuery)
		if similarity >= threshold {
			matches = append(matches, SimilarMatch{
				Cached:     *entry,
				Query:      cachedQuery,
				Similarity: similarity,
			})
		}
	}
	o.mu.Unlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > maxSimilarResults {
		matches = matches[:maxSimilarResults]
	}
	return matches
}

// RecordMetrics 는 요청 1건의 지표를 누적하고 스냅샷을 영속화한다.
func (o *Optimizer) RecordMetrics(ctx context.Context, responseTimeMs float64, tokensUsed int64, success, cacheHit bool) {
	o.metrics.Record(responseTimeMs, tokensUsed, success, cacheHit)
	o.schedulePersist(ctx, o.persistMetrics)
}

// schedulePersist 는 배처가 돌고 있으면 영속화를 배치 플러시로 미루고,
// 아니면 그 자리에서 기록한다. 요청 컨텍스트는 플러시 시점까지 살아
// 있지 않을 수 있으므로 취소를 떼어낸다.
func (o *Optimizer) schedulePersist(ctx context.Context, persist func(context.Context)) {
	if !o.cfg.PersistEnabled {
		return
	}
	if o.batcher.Running() {
		detached := context.WithoutCancel(ctx)
		o.batcher.Enqueue(func() { persist(detached) })
		return
	}
	persist(ctx)
}

// Metrics 는 현재 지표 스냅샷을 반환한다.
func (o *Optimizer) Metrics() metrics.Snapshot {
	return o.metrics.Snapshot()
}

// Sweep 는 만료된 항목을 일괄 제거하고 제거 수를 반환한다.
func (o *Optimizer) Sweep() int {
	now := time.Now()

	o.mu.Lock()
	removed := 0
	for key, entry := range o.entries {
		if entry.Expired(now) {
			delete(o.entries, key)
			delete(o.queries, key)
			removed++
		}
	}
	o.mu.Unlock()

	if removed > 0 {
		o.logger.Info("cache_sweep_removed_expired", "count", removed)
	}
	return removed
}

// StartSweeper 는 주기 스윕 고루틴과 영속화 배처를 시작한다. ctx 취소로 멈추며,
// 배처는 멈추기 전에 남은 영속화 작업을 마지막으로 플러시한다.
func (o *Optimizer) StartSweeper(ctx context.Context) {
	interval := time.Duration(o.cfg.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	o.batcher.Start()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				o.batcher.Stop()
				return
			case <-ticker.C:
				o.Sweep()
				o.persistCache(ctx)
			}
		}
	}()
}

// Close 는 영속화 배처를 멈추고 남은 기록을 플러시한다. 종료 경로 전용이다.
func (o *Optimizer) Close() {
	o.batcher.Stop()
}

// Restore 는 기동 시 영속 저장소에서 캐시와 지표를 되살린다.
// 저장소가 비어 있거나 깨져 있으면 기본값으로 시작한다.
func (o *Optimizer) Restore(ctx context.Context) {
	if !o.cfg.PersistEnabled {
		return
	}

	if data, err := o.store.Get(ctx, cacheStoreKey); err == nil {
		var state persistedState
		if err := json.Unmarshal(data, &state); err != nil {
			o.logger.Warn("cache_restore_decode_failed", "error", err)
		} else {
			now := time.Now()
			o.mu.Lock()
			for key, entry := range state.Entries {
				if entry.Expired(now) {
					continue
				}
				cached := entry
				o.entries[key] = &cached
				o.queries[key] = state.Queries[key]
			}
			restored := len(o.entries)
			o.mu.Unlock()
			o.logger.Info("cache_restored", "entries", restored)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		o.logger.Warn("cache_restore_failed", "error", err)
	}

	if data, err := o.store.Get(ctx, metricsStoreKey); err == nil {
		var snap metrics.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			o.logger.Warn("metrics_restore_decode_failed", "error", err)
		} else {
			o.metrics.Restore(snap)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		o.logger.Warn("metrics_restore_failed", "error", err)
	}
}

func (o *Optimizer) evictOldestLocked() {
	oldestKey := ""
	var oldestAt time.Time
	for key, entry := range o.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(o.entries, oldestKey)
		delete(o.queries, oldestKey)
	}
}

func (o *Optimizer) persistCache(ctx context.Context) {
	if !o.cfg.PersistEnabled {
		return
	}

	o.mu.Lock()
	state := persistedState{
		Entries: make(map[string]fintext.CachedResponse, len(o.entries)),
		Queries: make(map[string]string, len(o.queries)),
	}
	for key, entry := range o.entries {
		state.Entries[key] = *entry
		state.Queries[key] = o.queries[key]
	}
	o.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		o.logger.Warn("cache_persist_encode_failed", "error", err)
		return
	}
	if err := o.store.Set(ctx, cacheStoreKey, data, 0); err != nil {
		o.logger.Warn("cache_persist_failed", "error", err)
	}
}

func (o *Optimizer) persistMetrics(ctx context.Context) {
	if !o.cfg.PersistEnabled {
		return
	}

	data, err := json.Marshal(o.metrics.Snapshot())
	if err != nil {
		o.logger.Warn("metrics_persist_encode_failed", "error", err)
		return
	}
	if err := o.store.Set(ctx, metricsStoreKey, data, 0); err != nil {
		o.logger.Warn("metrics_persist_failed", "error", err)
	}
}
