package exaone

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/llm"
)

// ErrModelRequest 는 재시도 후에도 실패한 모델 호출 오류다. 폴백 대상이 아닌
// 상태 코드(503 외 비 2xx)에서만 반환된다.
var ErrModelRequest = errors.New("exaone request failed")

// errDegrade 는 내부 신호용이다. 이 오류가 잡히면 패턴 폴백으로 전환한다.
var errDegrade = errors.New("degrade to pattern fallback")

type generateParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	DoSample          bool    `json:"do_sample"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type generateOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
	Options    generateOptions    `json:"options"`
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// Client: EXAONE 추론 엔드포인트 호출을 담당합니다.
// 503/네트워크 오류/빈 응답은 오류가 아니라 패턴 폴백으로 처리하는 것이 계약입니다.
type Client struct {
	cfg      config.ModelConfig
	http     *http.Client
	fallback *Fallback
	logger   *slog.Logger
}

func NewClient(cfg config.ModelConfig, fallback *Fallback, logger *slog.Logger) (*Client, error) {
	if fallback == nil {
		return nil, errors.New("fallback generator is nil")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Call 는 프롬프트를 모델에 전달하고 정규화된 엔벨로프 JSON 문자열을 반환한다.
// API 키가 없으면 네트워크 호출 없이 곧바로 폴백 풀을 쓴다.
func (c *Client) Call(ctx context.Context, prompt string, intent fintext.Intent) (string, error) {
	if c.cfg.FallbackOnly() {
		return c.fallback.Generate(intent).Encode()
	}

	text, err := c.generate(ctx, prompt)
	switch {
	case errors.Is(err, errDegrade):
		c.logger.Warn("model_unavailable_using_pattern_fallback", "intent", intent)
		return c.fallback.Generate(intent).Encode()
	case err != nil:
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		c.logger.Warn("model_empty_reply_using_pattern_fallback", "intent", intent)
		return c.fallback.Generate(intent).Encode()
	}

	envelope := Envelope{
		Status:   "success",
		Intent:   intent,
		Response: text,
		Metadata: EnvelopeMetadata{
			Confidence: 0.9,
			TokensUsed: llm.EstimateTokens(prompt) + llm.EstimateTokens(text),
			Source:     SourceModel,
		},
	}
	return envelope.Encode()
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxNewTokens:      c.cfg.MaxNewTokens,
			Temperature:       c.cfg.Temperature,
			TopP:              c.cfg.TopP,
			DoSample:          true,
			RepetitionPenalty: c.cfg.RepetitionPenalty,
		},
		Options: generateOptions{WaitForModel: true, UseCache: true},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries())),
		ctx,
	)

	var text string
	operation := func() error {
		attemptText, attemptErr := c.attempt(ctx, body)
		if attemptErr != nil {
			return attemptErr
		}
		text = attemptText
		return nil
	}
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// 타임아웃 포함 모든 전송 오류는 일시 장애로 보고 폴백한다.
		return "", backoff.Permanent(errDegrade)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", backoff.Permanent(errDegrade)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrModelRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", backoff.Permanent(errDegrade)
	}
	return normalizeReply(data), nil
}

func (c *Client) maxRetries() int {
	if c.cfg.MaxRetries < 0 {
		return 0
	}
	return c.cfg.MaxRetries
}

// normalizeReply 는 배열/객체/순수 문자열 세 가지 응답 모양을 하나로 정규화한다.
func normalizeReply(data []byte) string {
	var entries []generatedText
	if err := json.Unmarshal(data, &entries); err == nil {
		for _, entry := range entries {
			if entry.GeneratedText != "" {
				return entry.GeneratedText
			}
		}
		if len(entries) > 0 {
			return ""
		}
	}

	var single generatedText
	if err := json.Unmarshal(data, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText
	}

	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare
	}

	return strings.TrimSpace(string(data))
}
