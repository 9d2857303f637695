package fintext

import (
	"embed"
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon/*.yml
var lexiconFS embed.FS

type rawIntentRule struct {
	Intent         string   `yaml:"intent"`
	Keywords       []string `yaml:"keywords"`
	KeywordWeight  float64  `yaml:"keyword_weight"`
	Verbs          []string `yaml:"verbs"`
	VerbWeight     float64  `yaml:"verb_weight"`
	AmountBonus    float64  `yaml:"amount_bonus"`
	ShortTextBonus float64  `yaml:"short_text_bonus"`
}

type rawIntentFile struct {
	Version int             `yaml:"version"`
	Intents []rawIntentRule `yaml:"intents"`
}

type rawEntitySet struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type rawCategoryFile struct {
	Version    int            `yaml:"version"`
	Categories []rawEntitySet `yaml:"categories"`
}

type rawPaymentFile struct {
	Version int            `yaml:"version"`
	Methods []rawEntitySet `yaml:"methods"`
}

type rawLocationFile struct {
	Version   int      `yaml:"version"`
	Merchants []string `yaml:"merchants"`
}

// IntentRule 는 의도별 컴파일된 키워드 규칙이다.
type IntentRule struct {
	Intent         Intent
	KeywordWeight  float64
	VerbWeight     float64
	AmountBonus    float64
	ShortTextBonus float64

	keywords       []string
	verbs          []string
	keywordMatcher *ahocorasick.Matcher
	verbMatcher    *ahocorasick.Matcher
}

// KeywordHits 는 본문에서 매칭된 키워드 목록을 반환한다.
func (r *IntentRule) KeywordHits(text string) []string {
	return matchAll(r.keywordMatcher, r.keywords, text)
}

// VerbHits 는 본문에서 매칭된 동사/패턴 목록을 반환한다.
func (r *IntentRule) VerbHits(text string) []string {
	return matchAll(r.verbMatcher, r.verbs, text)
}

type entitySet struct {
	name     string
	keywords []string
	matcher  *ahocorasick.Matcher
}

// Lexicon 는 임베드된 YAML 테이블에서 컴파일된 전체 어휘 사전이다.
type Lexicon struct {
	rules      []*IntentRule
	ruleIndex  map[Intent]*IntentRule
	categories []entitySet
	payments   []entitySet
	merchants  entitySet
}

// NewLexicon 는 임베드된 YAML 어휘 테이블을 로드해 컴파일한다.
func NewLexicon() (*Lexicon, error) {
	var intentFile rawIntentFile
	if err := loadYAML("lexicon/intents.yml", &intentFile); err != nil {
		return nil, err
	}
	var categoryFile rawCategoryFile
	if err := loadYAML("lexicon/categories.yml", &categoryFile); err != nil {
		return nil, err
	}
	var paymentFile rawPaymentFile
	if err := loadYAML("lexicon/payments.yml", &paymentFile); err != nil {
		return nil, err
	}
	var locationFile rawLocationFile
	if err := loadYAML("lexicon/locations.yml", &locationFile); err != nil {
		return nil, err
	}

	lex := &Lexicon{ruleIndex: make(map[Intent]*IntentRule)}
	for _, raw := range intentFile.Intents {
		intent := ParseIntent(raw.Intent)
		if intent == IntentUnknown && raw.Intent != string(IntentUnknown) {
			return nil, fmt.Errorf("lexicon: unknown intent %q", raw.Intent)
		}
		rule := &IntentRule{
			Intent:         intent,
			KeywordWeight:  raw.KeywordWeight,
			VerbWeight:     raw.VerbWeight,
			AmountBonus:    raw.AmountBonus,
			ShortTextBonus: raw.ShortTextBonus,
			keywords:       raw.Keywords,
			verbs:          raw.Verbs,
		}
		if len(raw.Keywords) > 0 {
			rule.keywordMatcher = ahocorasick.NewStringMatcher(raw.Keywords)
		}
		if len(raw.Verbs) > 0 {
			rule.verbMatcher = ahocorasick.NewStringMatcher(raw.Verbs)
		}
		lex.rules = append(lex.rules, rule)
		lex.ruleIndex[intent] = rule
	}

	for _, raw := range categoryFile.Categories {
		lex.categories = append(lex.categories, newEntitySet(raw))
	}
	for _, raw := range paymentFile.Methods {
		lex.payments = append(lex.payments, newEntitySet(raw))
	}
	lex.merchants = newEntitySet(rawEntitySet{Name: "merchants", Keywords: locationFile.Merchants})

	return lex, nil
}

// Rules 는 의도 열거 순서대로 규칙을 반환한다.
func (l *Lexicon) Rules() []*IntentRule {
	ordered := make([]*IntentRule, 0, len(l.rules))
	for _, intent := range IntentOrder {
		if rule, ok := l.ruleIndex[intent]; ok {
			ordered = append(ordered, rule)
		}
	}
	return ordered
}

// RuleFor 는 특정 의도의 규칙을 반환한다.
func (l *Lexicon) RuleFor(intent Intent) (*IntentRule, bool) {
	rule, ok := l.ruleIndex[intent]
	return rule, ok
}

// MatchCategory 는 첫 히트 카테고리를 반환한다. 히트가 없으면 other 를 반환한다.
func (l *Lexicon) MatchCategory(text string) Category {
	for _, set := range l.categories {
		if set.anyHit(text) {
			return Category(set.name)
		}
	}
	return CategoryOther
}

// MatchPayment 는 첫 히트 결제 수단을 반환한다. 히트가 없으면 ok=false 다.
func (l *Lexicon) MatchPayment(text string) (PaymentMethod, bool) {
	for _, set := range l.payments {
		if set.anyHit(text) {
			return PaymentMethod(set.name), true
		}
	}
	return "", false
}

// MatchMerchant 는 알려진 상호명 중 가장 앞선(목록 순) 히트를 반환한다.
func (l *Lexicon) MatchMerchant(text string) (string, bool) {
	hits := matchAll(l.merchants.matcher, l.merchants.keywords, text)
	if len(hits) == 0 {
		return "", false
	}
	return hits[0], true
}

func newEntitySet(raw rawEntitySet) entitySet {
	set := entitySet{name: raw.Name, keywords: raw.Keywords}
	if len(raw.Keywords) > 0 {
		set.matcher = ahocorasick.NewStringMatcher(raw.Keywords)
	}
	return set
}

func (s entitySet) anyHit(text string) bool {
	if s.matcher == nil {
		return false
	}
	return len(s.matcher.MatchThreadSafe([]byte(text))) > 0
}

// matchAll 는 매칭된 패턴을 목록 순서대로 반환한다.
func matchAll(matcher *ahocorasick.Matcher, patterns []string, text string) []string {
	if matcher == nil {
		return nil
	}
	indexes := matcher.MatchThreadSafe([]byte(text))
	if len(indexes) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(indexes))
	for _, index := range indexes {
		if index >= 0 && index < len(patterns) {
			seen[index] = true
		}
	}

	hits := make([]string, 0, len(seen))
	for i, pattern := range patterns {
		if seen[i] {
			hits = append(hits, pattern)
		}
	}
	return hits
}

func loadYAML(path string, out any) error {
	data, err := lexiconFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read lexicon file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse lexicon file %s: %w", path, err)
	}
	return nil
}

// NormalizeCategory 는 외부 입력 문자열을 카테고리로 정규화한다.
func NormalizeCategory(value string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(value))) {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryEntertainment,
		CategoryHealth, CategoryEducation, CategoryUtility, CategoryIncome, CategoryTravel:
		return Category(strings.ToLower(strings.TrimSpace(value)))
	default:
		return CategoryOther
	}
}
