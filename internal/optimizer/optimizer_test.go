package optimizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
	"github.com/cheonmabigo/fintext-nlu-go/internal/metrics"
)

func newTestOptimizer(t *testing.T, cfg config.OptimizerConfig, store kvstore.Store) *Optimizer {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemory()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opt, err := New(cfg, metrics.New(), store, logger)
	if err != nil {
		t.Fatalf("failed to build optimizer: %v", err)
	}
	return opt
}

func adviceResponse(content string) *fintext.AIResponse {
	return &fintext.AIResponse{
		ID:         "id-" + content,
		Content:    content,
		Intent:     fintext.IntentFinancialAdvice,
		Confidence: 0.9,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 10}, nil)
	ctx := context.Background()

	query := "돈 아끼는 방법 알려줘"
	opt.Store(ctx, query, adviceResponse("고정비부터 줄여보세요."), nil)

	got := opt.GetCached(query, nil)
	if got == nil {
		t.Fatalf("expected cache hit")
	}
	if got.Content != "고정비부터 줄여보세요." {
		t.Fatalf("unexpected content: %q", got.Content)
	}
	if !got.Metadata.CacheHit {
		t.Fatalf("cache hit flag not set")
	}
}

func TestCacheContextSeparation(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 10}, nil)
	ctx := context.Background()

	budgetA := int64(300000)
	budgetB := int64(500000)
	ctxA := &fintext.UserContext{UserID: "u1", MonthlyBudget: &budgetA}
	ctxB := &fintext.UserContext{UserID: "u1", MonthlyBudget: &budgetB}

	query := "예산 조언해줘"
	opt.Store(ctx, query, adviceResponse("A"), ctxA)

	if got := opt.GetCached(query, ctxB); got != nil {
		t.Fatalf("different context must not share cache entries")
	}
	if got := opt.GetCached(query, ctxA); got == nil {
		t.Fatalf("same context should hit")
	}
}

func TestCacheExpiryEvictsOnLookup(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 10}, nil)
	ctx := context.Background()

	query := "절약 팁"
	opt.Store(ctx, query, adviceResponse("팁입니다."), nil)

	// 만료 시각을 과거로 돌려 TTL 경과를 흉내낸다.
	key := Fingerprint(query, nil)
	opt.mu.Lock()
	opt.entries[key].ExpiresAt = time.Now().Add(-time.Second)
	opt.mu.Unlock()

	if got := opt.GetCached(query, nil); got != nil {
		t.Fatalf("expected expired entry to miss")
	}
	if opt.Len() != 0 {
		t.Fatalf("expired entry must be removed on lookup")
	}
}

func TestTransactionRecordNotCached(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 10}, nil)
	ctx := context.Background()

	response := &fintext.AIResponse{
		ID:      "tx-1",
		Content: "기록했어요.",
		Intent:  fintext.IntentTransactionRecord,
	}
	opt.Store(ctx, "커피 4500원 썼어", response, nil)

	if opt.Len() != 0 {
		t.Fatalf("transaction_record responses must not be cached")
	}
	if got := opt.GetCached("커피 4500원 썼어", nil); got != nil {
		t.Fatalf("expected miss for transaction query")
	}
}

func TestCapacityEvictsOldestOnly(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 3}, nil)
	ctx := context.Background()

	queries := []string{"질문 하나", "질문 둘", "질문 셋"}
	for i, query := range queries {
		opt.Store(ctx, query, adviceResponse(fmt.Sprintf("답 %d", i)), nil)
		// CreatedAt 순서를 구분 가능하게 만든다.
		key := Fingerprint(query, nil)
		opt.mu.Lock()
		opt.entries[key].CreatedAt = time.Now().Add(time.Duration(i-10) * time.Minute)
		opt.mu.Unlock()
	}

	opt.Store(ctx, "질문 넷", adviceResponse("답 3"), nil)

	if opt.Len() != 3 {
		t.Fatalf("cache size = %d, want 3", opt.Len())
	}
	if got := opt.GetCached("질문 하나", nil); got != nil {
		t.Fatalf("oldest entry should have been evicted")
	}
	for _, query := range []string{"질문 둘", "질문 셋", "질문 넷"} {
		if got := opt.GetCached(query, nil); got == nil {
			t.Fatalf("newer entry %q must survive eviction", query)
		}
	}
}

func TestFindSimilarSortedAndCapped(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 20}, nil)
	ctx := context.Background()

	opt.Store(ctx, "이번달 식비 절약 방법", adviceResponse("a"), nil)
	opt.Store(ctx, "식비 절약 방법", adviceResponse("b"), nil)
	opt.Store(ctx, "전혀 다른 주제 이야기", adviceResponse("c"), nil)
	for i := 0; i < 6; i++ {
		opt.Store(ctx, fmt.Sprintf("식비 절약 방법 %d", i), adviceResponse(fmt.Sprintf("d%d", i)), nil)
	}

	matches := opt.FindSimilar("식비 절약 방법", 0.5)
	if len(matches) > maxSimilarResults {
		t.Fatalf("matches = %d, exceeds cap %d", len(matches), maxSimilarResults)
	}
	if len(matches) == 0 {
		t.Fatalf("expected similar matches")
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Fatalf("matches not sorted descending at %d", i)
		}
	}
	if matches[0].Query != "식비 절약 방법" {
		t.Fatalf("exact query should rank first, got %q", matches[0].Query)
	}
	for _, match := range matches {
		if match.Query == "전혀 다른 주제 이야기" {
			t.Fatalf("dissimilar query must not match at threshold 0.5")
		}
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 10}, nil)
	ctx := context.Background()

	opt.Store(ctx, "살아있는 항목", adviceResponse("a"), nil)
	opt.Store(ctx, "만료될 항목", adviceResponse("b"), nil)

	key := Fingerprint("만료될 항목", nil)
	opt.mu.Lock()
	opt.entries[key].ExpiresAt = time.Now().Add(-time.Minute)
	opt.mu.Unlock()

	if removed := opt.Sweep(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if opt.Len() != 1 {
		t.Fatalf("len = %d, want 1", opt.Len())
	}
}

func TestPersistAndRestore(t *testing.T) {
	store := kvstore.NewMemory()
	cfg := config.OptimizerConfig{MaxCacheSize: 10, PersistEnabled: true}
	ctx := context.Background()

	first := newTestOptimizer(t, cfg, store)
	first.Store(ctx, "복원될 질문", adviceResponse("복원될 응답"), nil)
	first.RecordMetrics(ctx, 120, 30, true, false)

	second := newTestOptimizer(t, cfg, store)
	second.Restore(ctx)

	if got := second.GetCached("복원될 질문", nil); got == nil || got.Content != "복원될 응답" {
		t.Fatalf("cache not restored: %+v", got)
	}
	snap := second.Metrics()
	if snap.TotalRequests != 1 || snap.TotalTokensUsed != 30 {
		t.Fatalf("metrics not restored: %+v", snap)
	}
}

func TestRecordMetricsAccumulates(t *testing.T) {
	opt := newTestOptimizer(t, config.OptimizerConfig{MaxCacheSize: 10}, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		opt.RecordMetrics(ctx, 100, 10, i%2 == 0, false)
	}

	snap := opt.Metrics()
	if snap.TotalRequests != 4 {
		t.Fatalf("totalRequests = %d, want 4", snap.TotalRequests)
	}
	if snap.SuccessfulRequests != 2 {
		t.Fatalf("successfulRequests = %d, want 2", snap.SuccessfulRequests)
	}
}

func TestPersistDeferredToBatcherWhileSweeperRuns(t *testing.T) {
	store := kvstore.NewMemory()
	cfg := config.OptimizerConfig{
		MaxCacheSize:     10,
		PersistEnabled:   true,
		BatchSize:        10,
		BatchDelayMillis: 200,
	}
	opt := newTestOptimizer(t, cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	opt.StartSweeper(ctx)
	t.Cleanup(opt.Close)

	opt.Store(context.Background(), "배치로 미뤄질 질문", adviceResponse("배치로 기록될 응답"), nil)

	if _, err := store.Get(context.Background(), cacheStoreKey); err == nil {
		t.Fatalf("persist ran synchronously, want deferred to batch flush")
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, err := store.Get(context.Background(), cacheStoreKey); err == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("batched persist never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestBatcherFlushesWhenFull(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	batcher := NewBatcher(config.OptimizerConfig{BatchSize: 3, BatchDelayMillis: 60000}, logger)
	batcher.Start()
	defer batcher.Stop()

	var mu sync.Mutex
	ran := 0
	done := make(chan struct{})
	task := func() {
		mu.Lock()
		ran++
		finished := ran == 3
		mu.Unlock()
		if finished {
			close(done)
		}
	}

	batcher.Enqueue(task)
	batcher.Enqueue(task)
	batcher.Enqueue(task)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("batch did not flush when full")
	}
}

func TestBatcherFlushesAfterDelay(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	batcher := NewBatcher(config.OptimizerConfig{BatchSize: 10, BatchDelayMillis: 20}, logger)
	batcher.Start()
	defer batcher.Stop()

	done := make(chan struct{})
	batcher.Enqueue(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("batch did not flush after delay")
	}
}
