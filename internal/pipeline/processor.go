package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cheonmabigo/fintext-nlu-go/internal/classify"
	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/exaone"
	"github.com/cheonmabigo/fintext-nlu-go/internal/llm"
	"github.com/cheonmabigo/fintext-nlu-go/internal/optimizer"
	"github.com/cheonmabigo/fintext-nlu-go/internal/parse"
	"github.com/cheonmabigo/fintext-nlu-go/internal/session"
	"github.com/cheonmabigo/fintext-nlu-go/internal/usage"
)

// ErrBusy 는 같은 인스턴스에 처리 중 재진입이 들어왔을 때 반환된다.
var ErrBusy = errors.New("pipeline: request already in flight")

// Result 는 ProcessMessage 의 최종 산출물이다.
type Result struct {
	Response             *fintext.AIResponse           `json:"response"`
	ExtractedTransaction *fintext.ExtractedTransaction `json:"extracted_transaction,omitempty"`
	Intent               fintext.Intent                `json:"intent"`
	Confidence           float64                       `json:"confidence"`
}

// Processor: 분류 → 프롬프트 → 모델 호출 → 파싱 → 캐시/지표로 이어지는
// 전체 파이프라인의 단일 진입점입니다. 이 경계 밖으로는 예외를 내보내지
// 않으며, 내부 실패는 한국어 사과 응답으로 변환됩니다.
type Processor struct {
	cfg        *config.Config
	classifier *classify.Classifier
	prompts    *fintext.Prompts
	gateway    *exaone.Client
	parser     *parse.Parser
	optimizer  *optimizer.Optimizer
	sessions   *session.Store
	usage      *usage.Recorder
	logger     *slog.Logger

	inFlight atomic.Bool
}

func NewProcessor(
	cfg *config.Config,
	classifier *classify.Classifier,
	prompts *fintext.Prompts,
	gateway *exaone.Client,
	parser *parse.Parser,
	opt *optimizer.Optimizer,
	sessions *session.Store,
	usageRecorder *usage.Recorder,
	logger *slog.Logger,
) (*Processor, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if classifier == nil || prompts == nil || gateway == nil || parser == nil || opt == nil {
		return nil, errors.New("pipeline component is nil")
	}
	return &Processor{
		cfg:        cfg,
		classifier: classifier,
		prompts:    prompts,
		gateway:    gateway,
		parser:     parser,
		optimizer:  opt,
		sessions:   sessions,
		usage:      usageRecorder,
		logger:     logger,
	}, nil
}

// ProcessMessage 는 자유 텍스트 입력 한 건을 처리한다.
// 단계 순서는 캐시 조회 → 분류 → 프롬프트 → 모델/폴백 → 파싱 → 캐시 저장 →
// 지표 갱신으로 고정이다. 캐시 조회가 분류보다 앞서는 것은 의도된 동작이다.
func (p *Processor) ProcessMessage(ctx context.Context, userInput string, userCtx *fintext.UserContext, sessionID string) (result *Result, err error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.inFlight.Store(false)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline_panic_recovered", "panic", fmt.Sprint(r))
			response := p.apologyResponse()
			p.optimizer.RecordMetrics(ctx, elapsedMillis(start), 0, false, false)
			result = &Result{Response: response, Intent: response.Intent, Confidence: response.Confidence}
			err = nil
		}
	}()

	if cached := p.optimizer.GetCached(userInput, userCtx); cached != nil {
		p.optimizer.RecordMetrics(ctx, elapsedMillis(start), 0, true, true)
		p.appendSession(ctx, sessionID, userInput, cached.Content)
		return &Result{
			Response:             cached,
			ExtractedTransaction: cached.ExtractedData,
			Intent:               cached.Intent,
			Confidence:           cached.Confidence,
		}, nil
	}

	classification := p.classifier.Classify(userInput)

	systemPrompt, userPrompt, buildErr := p.prompts.Build(classification.Intent, userInput, userCtx)
	if buildErr != nil {
		p.logger.Warn("prompt_build_failed_using_raw_input", "intent", classification.Intent, "error", buildErr)
		systemPrompt, userPrompt = "", userInput
	}
	prompt := composePrompt(systemPrompt, userPrompt)

	raw, callErr := p.gateway.Call(ctx, prompt, classification.Intent)
	if callErr != nil {
		p.logger.Error("model_call_failed", "intent", classification.Intent, "error", callErr)
		response := p.apologyResponse()
		p.optimizer.RecordMetrics(ctx, elapsedMillis(start), 0, false, false)
		return &Result{Response: response, Intent: response.Intent, Confidence: response.Confidence}, nil
	}

	response := p.parser.Parse(raw, userInput)
	p.optimizer.Store(ctx, userInput, response, userCtx)

	success := response.Metadata.ModelVersion != fintext.ModelVersionError
	p.optimizer.RecordMetrics(ctx, elapsedMillis(start), int64(response.Metadata.TokensUsed), success, false)
	p.recordUsage(ctx, prompt, response)
	p.appendSession(ctx, sessionID, userInput, response.Content)

	return &Result{
		Response:             response,
		ExtractedTransaction: response.ExtractedData,
		Intent:               response.Intent,
		Confidence:           response.Confidence,
	}, nil
}

// Classify 는 분류 결과만 반환한다. 분류 전용 엔드포인트에서 쓴다.
func (p *Processor) Classify(text string) classify.Result {
	return p.classifier.Classify(text)
}

// ClassifyMulti 는 문장 단위 다중 의도 분류 결과를 반환한다.
func (p *Processor) ClassifyMulti(text string) []classify.Segment {
	return p.classifier.ClassifyMulti(text)
}

func (p *Processor) apologyResponse() *fintext.AIResponse {
	return &fintext.AIResponse{
		ID:         uuid.NewString(),
		Content:    "죄송해요, 잠시 문제가 생겼어요. 다시 한번 시도해 주시겠어요?",
		Intent:     fintext.IntentUnknown,
		Confidence: 0,
		Suggestions: []string{
			"다시 시도하기",
			"잠시 후에 질문하기",
		},
		Metadata: fintext.ResponseMetadata{
			ResponseTime: time.Now(),
			ModelVersion: fintext.ModelVersionError,
		},
	}
}

func (p *Processor) recordUsage(ctx context.Context, prompt string, response *fintext.AIResponse) {
	if p.usage == nil {
		return
	}
	fallback := response.Metadata.ModelVersion == fintext.ModelVersionFallback
	p.usage.Record(ctx, int64(llm.EstimateTokens(prompt)), int64(llm.EstimateTokens(response.Content)), fallback)
}

func (p *Processor) appendSession(ctx context.Context, sessionID, userInput, reply string) {
	if p.sessions == nil || sessionID == "" {
		return
	}
	err := p.sessions.AppendHistory(ctx, sessionID,
		llm.HistoryEntry{Role: "user", Content: userInput},
		llm.HistoryEntry{Role: "assistant", Content: reply},
	)
	if err != nil {
		p.logger.Warn("session_append_failed", "session_id", sessionID, "error", err)
	}
}

func composePrompt(systemPrompt, userPrompt string) string {
	if systemPrompt == "" {
		return userPrompt
	}
	return systemPrompt + "\n\n" + userPrompt
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
