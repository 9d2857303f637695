package exaone

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
)

// 응답 출처 태그. 파서와 메타데이터가 같은 값을 공유한다.
const (
	SourceModel    = "exaone"
	SourceFallback = "pattern-fallback"
)

// EnvelopeMetadata 는 게이트웨이가 채우는 응답 부가 정보다.
type EnvelopeMetadata struct {
	Confidence float64 `json:"confidence"`
	TokensUsed int     `json:"tokensUsed"`
	Source     string  `json:"source"`
}

// Envelope 는 모델 호출/폴백 어느 경로든 동일하게 반환되는 정규화 응답이다.
// 파서는 이 한 가지 모양만 소비한다.
type Envelope struct {
	Status      string           `json:"status"`
	Intent      fintext.Intent   `json:"intent"`
	Response    string           `json:"response"`
	Suggestions []string         `json:"suggestions,omitempty"`
	Metadata    EnvelopeMetadata `json:"metadata"`
}

// Encode 는 엔벨로프를 JSON 문자열로 직렬화한다.
func (e Envelope) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(data), nil
}
