package fintext

import (
	"testing"
	"time"
)

func mustLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex, err := NewLexicon()
	if err != nil {
		t.Fatalf("failed to load lexicon: %v", err)
	}
	return lex
}

func TestLexiconRulesFollowIntentOrder(t *testing.T) {
	lex := mustLexicon(t)

	rules := lex.Rules()
	if len(rules) == 0 {
		t.Fatalf("expected intent rules")
	}

	position := make(map[Intent]int, len(IntentOrder))
	for i, intent := range IntentOrder {
		position[intent] = i
	}
	for i := 1; i < len(rules); i++ {
		if position[rules[i-1].Intent] > position[rules[i].Intent] {
			t.Fatalf("rules out of order: %s before %s", rules[i-1].Intent, rules[i].Intent)
		}
	}
}

func TestLexiconKeywordHits(t *testing.T) {
	lex := mustLexicon(t)

	rule, ok := lex.RuleFor(IntentTransactionRecord)
	if !ok {
		t.Fatalf("expected transaction rule")
	}

	hits := rule.VerbHits("커피 샀어")
	if len(hits) == 0 {
		t.Fatalf("expected verb hit for 샀어")
	}
	if len(rule.KeywordHits("아무 관련 없는 문장")) != 0 {
		t.Fatalf("expected no keyword hits")
	}
}

func TestLexiconMatchCategory(t *testing.T) {
	lex := mustLexicon(t)

	tests := []struct {
		text string
		want Category
	}{
		{"스타벅스에서 커피 한 잔", CategoryFood},
		{"버스 타고 출근", CategoryTransport},
		{"관련 없는 문장", CategoryOther},
	}
	for _, tc := range tests {
		if got := lex.MatchCategory(tc.text); got != tc.want {
			t.Errorf("MatchCategory(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestLexiconMatchPayment(t *testing.T) {
	lex := mustLexicon(t)

	method, ok := lex.MatchPayment("현금으로 냈어")
	if !ok || method != PaymentCash {
		t.Fatalf("expected cash, got %s (%v)", method, ok)
	}
	if _, ok := lex.MatchPayment("결제 수단 언급 없음"); ok {
		t.Fatalf("expected no payment match")
	}
}

func TestLexiconMatchMerchant(t *testing.T) {
	lex := mustLexicon(t)

	merchant, ok := lex.MatchMerchant("스타벅스에서 4500원 썼어")
	if !ok || merchant == "" {
		t.Fatalf("expected merchant match")
	}
}

func TestParseIntent(t *testing.T) {
	if ParseIntent("financial_advice") != IntentFinancialAdvice {
		t.Fatalf("expected financial_advice")
	}
	if ParseIntent("nonsense") != IntentUnknown {
		t.Fatalf("expected unknown for bad value")
	}
}

func TestNormalizeCategory(t *testing.T) {
	if NormalizeCategory("food") != CategoryFood {
		t.Fatalf("expected food")
	}
	if NormalizeCategory("없는카테고리") != CategoryOther {
		t.Fatalf("expected other for unknown category")
	}
}

func TestCachedResponseExpired(t *testing.T) {
	now := time.Now()
	cached := CachedResponse{ExpiresAt: now.Add(time.Minute)}
	if cached.Expired(now) {
		t.Fatalf("expected not expired")
	}
	if !cached.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("expected expired")
	}
}
