package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cheonmabigo/fintext-nlu-go/internal/classify"
	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/exaone"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
	"github.com/cheonmabigo/fintext-nlu-go/internal/metrics"
	"github.com/cheonmabigo/fintext-nlu-go/internal/optimizer"
	"github.com/cheonmabigo/fintext-nlu-go/internal/parse"
	"github.com/cheonmabigo/fintext-nlu-go/internal/randx"
	"github.com/cheonmabigo/fintext-nlu-go/internal/session"
)

// newTestProcessor 는 API 키 없는 설정으로 전체 파이프라인을 조립한다.
// 모델 호출은 항상 패턴 폴백으로 동작한다.
func newTestProcessor(t *testing.T) *Processor {
	t.Helper()

	cfg := &config.Config{
		Model: config.ModelConfig{ModelName: "exaone-test", TimeoutSeconds: 1},
		Classify: config.ClassifyConfig{
			CacheMaxSize:             32,
			CacheTTLSeconds:          60,
			MultiIntentMinConfidence: 0.3,
		},
		Optimizer: config.OptimizerConfig{MaxCacheSize: 16},
		Session:   config.SessionConfig{SessionTTLMinutes: 1, HistoryMaxPairs: 10},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lex, err := fintext.NewLexicon()
	if err != nil {
		t.Fatalf("failed to load lexicon: %v", err)
	}
	prompts, err := fintext.NewPrompts()
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}
	fallback, err := exaone.NewFallback(randx.NewSeeded(11))
	if err != nil {
		t.Fatalf("failed to build fallback: %v", err)
	}
	gateway, err := exaone.NewClient(cfg.Model, fallback, logger)
	if err != nil {
		t.Fatalf("failed to build gateway: %v", err)
	}
	opt, err := optimizer.New(cfg.Optimizer, metrics.New(), kvstore.NewMemory(), logger)
	if err != nil {
		t.Fatalf("failed to build optimizer: %v", err)
	}
	sessions, err := session.NewStore(cfg.Session, kvstore.NewMemory())
	if err != nil {
		t.Fatalf("failed to build session store: %v", err)
	}

	processor, err := NewProcessor(
		cfg,
		classify.NewClassifier(cfg.Classify, lex, logger),
		prompts,
		gateway,
		parse.NewParser(extract.New(lex), cfg.Model.Version(), logger),
		opt,
		sessions,
		nil,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to build processor: %v", err)
	}
	return processor
}

func TestProcessMessageFallbackEndToEnd(t *testing.T) {
	p := newTestProcessor(t)

	result, err := p.ProcessMessage(context.Background(), "커피 4500원 썼어", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != fintext.IntentTransactionRecord {
		t.Fatalf("intent = %s, want transaction_record", result.Intent)
	}
	if result.Response.Metadata.ModelVersion != fintext.ModelVersionFallback {
		t.Fatalf("modelVersion = %q, want %q", result.Response.Metadata.ModelVersion, fintext.ModelVersionFallback)
	}
	if result.ExtractedTransaction == nil {
		t.Fatalf("expected extracted transaction")
	}
	if result.ExtractedTransaction.Amount != 4500 {
		t.Fatalf("amount = %d, want 4500", result.ExtractedTransaction.Amount)
	}

	snap := p.optimizer.Metrics()
	if snap.TotalRequests != 1 || snap.SuccessfulRequests != 1 {
		t.Fatalf("metrics not updated: %+v", snap)
	}
}

func TestProcessMessageCacheHitSkipsModel(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	query := "돈 아끼는 팁 알려줘"
	first, err := p.ProcessMessage(ctx, query, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Response.Metadata.CacheHit {
		t.Fatalf("first call must be a miss")
	}

	second, err := p.ProcessMessage(ctx, query, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Response.Metadata.CacheHit {
		t.Fatalf("second call should hit the cache")
	}
	if second.Response.Content != first.Response.Content {
		t.Fatalf("cached content mismatch")
	}
}

// 거래 기록 응답은 캐시 정책상 저장되지 않으므로, 캐시 조회가 분류보다
// 앞서더라도 낡은 거래 응답이 재사용될 일은 없다.
func TestProcessMessageTransactionNeverServedFromCache(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	query := "커피 4500원 결제했어"
	if _, err := p.ProcessMessage(ctx, query, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := p.ProcessMessage(ctx, query, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Response.Metadata.CacheHit {
		t.Fatalf("transaction replies must never be served from cache")
	}
}

func TestProcessMessageRejectsReentry(t *testing.T) {
	p := newTestProcessor(t)
	p.inFlight.Store(true)

	_, err := p.ProcessMessage(context.Background(), "안녕", nil, "")
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	// 플래그가 풀리면 정상 처리된다.
	p.inFlight.Store(false)
	if _, err := p.ProcessMessage(context.Background(), "안녕", nil, ""); err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
}

func TestProcessMessageAppendsSessionHistory(t *testing.T) {
	p := newTestProcessor(t)
	ctx := context.Background()

	if _, err := p.ProcessMessage(ctx, "안녕하세요", nil, "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := p.sessions.GetHistory(ctx, "sess-1")
	if err != nil {
		t.Fatalf("history read failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Content != "안녕하세요" {
		t.Fatalf("unexpected user entry: %+v", history[0])
	}
}
