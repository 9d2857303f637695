package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/cheonmabigo/fintext-nlu-go/internal/cache"
	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
	"github.com/cheonmabigo/fintext-nlu-go/internal/textnorm"
)

// shortTextRunes: 이 길이 이하의 입력은 인사일 가능성이 높다고 본다.
const shortTextRunes = 10

// Result 는 단일 입력에 대한 의도 분류 결과다. 생성 후 변경하지 않는다.
type Result struct {
	Intent     fintext.Intent
	Confidence float64
	Features   []string
}

// Segment 는 다중 의도 분류에서 문장 단위로 분류된 구간이다.
type Segment struct {
	Text       string
	Intent     fintext.Intent
	Confidence float64
}

// Classifier: 가중 키워드 점수로 의도를 분류합니다. 결과는 TTL 캐시에 보관하며
// 동일 입력의 동시 분류는 singleflight 로 병합합니다.
type Classifier struct {
	lex           *fintext.Lexicon
	cache         *cache.TTLCache[string, Result]
	group         singleflight.Group
	minConfidence float64
	logger        *slog.Logger
}

func NewClassifier(cfg config.ClassifyConfig, lex *fintext.Lexicon, logger *slog.Logger) *Classifier {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &Classifier{
		lex:           lex,
		cache:         cache.NewTTLCache[string, Result](cfg.CacheMaxSize, ttl),
		minConfidence: cfg.MultiIntentMinConfidence,
		logger:        logger,
	}
}

// Classify 는 입력 전체를 하나의 의도로 분류한다.
// 모든 점수가 0 이면 general_question / 신뢰도 0 으로 떨어진다.
func (c *Classifier) Classify(text string) Result {
	normalized := textnorm.Normalize(textnorm.StripEmoji(text))
	key := hashKey(normalized)

	if cached, ok := c.cache.Get(key); ok {
		return copyResult(cached)
	}

	value, _, _ := c.group.Do(key, func() (any, error) {
		result := c.score(normalized)
		c.cache.Set(key, result)
		return result, nil
	})
	return copyResult(value.(Result))
}

// ClassifyMulti 는 문장 경계로 입력을 나눠 구간별로 분류한다.
// 최소 신뢰도를 넘지 못한 구간은 버린다.
func (c *Classifier) ClassifyMulti(text string) []Segment {
	var segments []Segment
	for _, sentence := range splitSentences(text) {
		result := c.Classify(sentence)
		if result.Confidence <= c.minConfidence {
			continue
		}
		segments = append(segments, Segment{
			Text:       sentence,
			Intent:     result.Intent,
			Confidence: result.Confidence,
		})
	}
	return segments
}

func (c *Classifier) score(normalized string) Result {
	scoreText := textnorm.StripPunct(normalized)

	amount, hasAmount := extract.Amount(normalized)
	shortText := utf8.RuneCountInString(strings.TrimSpace(scoreText)) <= shortTextRunes

	rules := c.lex.Rules()
	scores := make([]float64, len(rules))
	maxScore := 0.0
	winner := -1
	for i, rule := range rules {
		score := float64(len(rule.KeywordHits(scoreText))) * rule.KeywordWeight
		score += float64(len(rule.VerbHits(scoreText))) * rule.VerbWeight
		if hasAmount {
			score += rule.AmountBonus
		}
		if shortText {
			score += rule.ShortTextBonus
		}
		scores[i] = score
		// 동점이면 열거 순서가 앞선 의도가 이긴다.
		if score > maxScore {
			maxScore = score
			winner = i
		}
	}

	if winner < 0 || maxScore == 0 {
		return Result{Intent: fintext.IntentGeneralQuestion, Confidence: 0}
	}

	rule := rules[winner]
	features := make([]string, 0, 4)
	if hasAmount {
		features = append(features, fmt.Sprintf("amount:%d원", amount))
	}
	for _, hit := range rule.KeywordHits(scoreText) {
		features = append(features, "keyword:"+hit)
	}
	for _, hit := range rule.VerbHits(scoreText) {
		features = append(features, "verb:"+hit)
	}
	if shortText {
		features = append(features, "short_text")
	}

	return Result{
		Intent:     rule.Intent,
		Confidence: scores[winner] / maxScore,
		Features:   features,
	}
}

var sentenceBoundaries = map[rune]bool{
	'.': true, '!': true, '?': true, '。': true, '！': true, '？': true,
}

func splitSentences(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return sentenceBoundaries[r]
	})
	sentences := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

func hashKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// copyResult 는 캐시 항목의 별칭 공유를 막기 위해 feature 슬라이스를 복사한다.
func copyResult(r Result) Result {
	if len(r.Features) == 0 {
		return r
	}
	features := make([]string, len(r.Features))
	copy(features, r.Features)
	r.Features = features
	return r
}
