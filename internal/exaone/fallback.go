package exaone

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/llm"
	"github.com/cheonmabigo/fintext-nlu-go/internal/randx"
)

//go:embed fallback/*.yml
var fallbackFS embed.FS

type rawFallbackPool struct {
	Intent      string   `yaml:"intent"`
	Confidence  float64  `yaml:"confidence"`
	Responses   []string `yaml:"responses"`
	Suggestions []string `yaml:"suggestions"`
}

type rawFallbackFile struct {
	Version int               `yaml:"version"`
	Pools   []rawFallbackPool `yaml:"pools"`
}

type fallbackPool struct {
	confidence  float64
	responses   []string
	suggestions []string
}

// Fallback: 네트워크 없이 의도별 고정 응답 풀에서 답을 고르는 생성기입니다.
// 풀 내 선택은 무작위이며, 테스트는 시드를 주입해 고정할 수 있습니다.
type Fallback struct {
	pools map[fintext.Intent]fallbackPool
	rng   *randx.LockedRand
}

// NewFallback 는 임베드된 응답 풀을 로드한다. rng 가 nil 이면 무작위 시드를 쓴다.
func NewFallback(rng *randx.LockedRand) (*Fallback, error) {
	data, err := fallbackFS.ReadFile("fallback/responses.yml")
	if err != nil {
		return nil, fmt.Errorf("read fallback pools: %w", err)
	}
	var file rawFallbackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fallback pools: %w", err)
	}

	pools := make(map[fintext.Intent]fallbackPool, len(file.Pools))
	for _, raw := range file.Pools {
		intent := fintext.ParseIntent(raw.Intent)
		if len(raw.Responses) == 0 {
			return nil, fmt.Errorf("fallback pool %q has no responses", raw.Intent)
		}
		pools[intent] = fallbackPool{
			confidence:  raw.Confidence,
			responses:   raw.Responses,
			suggestions: raw.Suggestions,
		}
	}
	for _, intent := range fintext.IntentOrder {
		if _, ok := pools[intent]; !ok {
			return nil, fmt.Errorf("fallback pool missing intent %q", intent)
		}
	}

	if rng == nil {
		rng = randx.New(nil)
	}
	return &Fallback{pools: pools, rng: rng}, nil
}

// Generate 는 의도에 맞는 풀에서 응답 하나를 골라 정규화 엔벨로프로 감싼다.
func (f *Fallback) Generate(intent fintext.Intent) Envelope {
	pool, ok := f.pools[intent]
	if !ok {
		pool = f.pools[fintext.IntentUnknown]
	}

	content := pool.responses[f.rng.IntN(len(pool.responses))]
	suggestions := make([]string, len(pool.suggestions))
	copy(suggestions, pool.suggestions)

	return Envelope{
		Status:      "success",
		Intent:      intent,
		Response:    content,
		Suggestions: suggestions,
		Metadata: EnvelopeMetadata{
			Confidence: pool.confidence,
			TokensUsed: llm.EstimateTokens(content),
			Source:     SourceFallback,
		},
	}
}
