package parse

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
)

const (
	baseConfidence      = 0.8
	successBump         = 0.05
	lengthBump          = 0.1
	proseConfidenceCap  = 0.8
	lengthBumpThreshold = 10
	maxSuggestions      = 5
)

// structuredReply 는 엔벨로프/모델 JSON 에서 읽어들이는 느슨한 형태다.
// 최소한 response 와 status 류 필드는 있어야 구조화 응답으로 인정한다.
type structuredReply struct {
	Status      string         `mapstructure:"status"`
	Success     *bool          `mapstructure:"success"`
	Response    string         `mapstructure:"response"`
	Suggestions []string       `mapstructure:"suggestions"`
	Metadata    replyMetadata  `mapstructure:"metadata"`
	Extra       map[string]any `mapstructure:",remain"`
}

type replyMetadata struct {
	Confidence float64 `mapstructure:"confidence"`
	TokensUsed int     `mapstructure:"tokensUsed"`
	Source     string  `mapstructure:"source"`
}

// Parser: 게이트웨이 원문 응답을 검증된 AIResponse 로 변환합니다.
// JSON → 내장 JSON 부분 문자열 → 순수 텍스트 순으로 해석을 시도하며,
// 이 경계 밖으로는 어떤 예외도 내보내지 않습니다.
type Parser struct {
	extractor    *extract.Extractor
	modelVersion string
	logger       *slog.Logger
}

func NewParser(extractor *extract.Extractor, modelVersion string, logger *slog.Logger) *Parser {
	return &Parser{extractor: extractor, modelVersion: modelVersion, logger: logger}
}

// Parse 는 원문 응답과 사용자 원본 입력으로 AIResponse 를 만든다.
// 의도는 모델 응답이 아니라 원본 입력에서 다시 판정한다. 모델이 숫자를
// 바꿔 말할 수 있으므로 거래 추출도 항상 원본 입력을 대상으로 한다.
func (p *Parser) Parse(rawReply, originalInput string) (result *fintext.AIResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("parser_panic_recovered", "panic", fmt.Sprint(r))
			result = p.errorResponse()
		}
	}()

	intent := detectIntent(originalInput)

	reply, structured := decodeStructured(rawReply)
	if !structured {
		if embedded, ok := extractJSONSubstring(rawReply); ok {
			reply, structured = decodeStructured(embedded)
		}
	}

	var content string
	var suggestions []string
	var tokensUsed int
	var confidence float64
	modelVersion := p.modelVersion

	if structured {
		content = reply.Response
		suggestions = reply.Suggestions
		tokensUsed = reply.Metadata.TokensUsed
		confidence = structuredConfidence(reply)
		if reply.Metadata.Source == fintext.ModelVersionFallback {
			modelVersion = fintext.ModelVersionFallback
		}
	} else {
		content = strings.TrimSpace(rawReply)
		confidence = proseConfidence(content)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	response := &fintext.AIResponse{
		ID:          uuid.NewString(),
		Content:     content,
		Intent:      intent,
		Confidence:  confidence,
		Suggestions: suggestions,
		Metadata: fintext.ResponseMetadata{
			TokensUsed:   tokensUsed,
			ResponseTime: time.Now(),
			ModelVersion: modelVersion,
		},
	}

	if intent == fintext.IntentTransactionRecord {
		if tx, ok := p.extractor.Transaction(originalInput, confidence, time.Now()); ok {
			response.ExtractedData = tx
		}
	}
	return response
}

// errorResponse 는 파싱 실패 시의 고정 응답이다.
func (p *Parser) errorResponse() *fintext.AIResponse {
	return &fintext.AIResponse{
		ID:         uuid.NewString(),
		Content:    "죄송해요, 응답을 이해하지 못했어요. 다시 한번 말씀해 주시겠어요?",
		Intent:     fintext.IntentUnknown,
		Confidence: 0,
		Suggestions: []string{
			"다시 시도하기",
			"예: 커피 4500원 썼어",
		},
		Metadata: fintext.ResponseMetadata{
			ResponseTime: time.Now(),
			ModelVersion: fintext.ModelVersionError,
		},
	}
}

func decodeStructured(raw string) (structuredReply, bool) {
	var loose map[string]any
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return structuredReply{}, false
	}

	var reply structuredReply
	if err := mapstructure.WeakDecode(loose, &reply); err != nil {
		return structuredReply{}, false
	}
	if reply.Response == "" {
		return structuredReply{}, false
	}
	if reply.Status == "" && reply.Success == nil {
		return structuredReply{}, false
	}
	return reply, true
}

// extractJSONSubstring 는 산문 속에 끼워진 {...} 블록을 찾아낸다.
func extractJSONSubstring(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func structuredConfidence(reply structuredReply) float64 {
	confidence := baseConfidence
	if statusOK(reply) {
		confidence += successBump
	}
	if utf8.RuneCountInString(reply.Response) > lengthBumpThreshold {
		confidence += lengthBump
	}
	return clamp01(confidence)
}

// proseConfidence 는 비구조화 응답의 신뢰도다. 보너스와 무관하게 0.8 을 넘지 않는다.
func proseConfidence(content string) float64 {
	confidence := baseConfidence
	if utf8.RuneCountInString(content) > lengthBumpThreshold {
		confidence += lengthBump
	}
	if confidence > proseConfidenceCap {
		confidence = proseConfidenceCap
	}
	return clamp01(confidence)
}

func statusOK(reply structuredReply) bool {
	if reply.Success != nil {
		return *reply.Success
	}
	switch strings.ToLower(reply.Status) {
	case "success", "ok", "done":
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
