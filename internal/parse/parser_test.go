package parse

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	lex, err := fintext.NewLexicon()
	if err != nil {
		t.Fatalf("failed to load lexicon: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewParser(extract.New(lex), "exaone-test", logger)
}

func TestParseStructuredReply(t *testing.T) {
	p := newTestParser(t)
	raw := `{"status":"success","intent":"transaction_record","response":"커피 결제 내역을 기록했어요.","suggestions":["오늘 지출 보기"],"metadata":{"confidence":0.9,"tokensUsed":12,"source":"exaone"}}`

	resp := p.Parse(raw, "스타벅스에서 아메리카노 4500원 카드로 결제했어")
	if resp.Intent != fintext.IntentTransactionRecord {
		t.Fatalf("expected transaction_record, got %s", resp.Intent)
	}
	if resp.Content != "커피 결제 내역을 기록했어요." {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	// 0.8 기본 + 0.05 성공 + 0.1 길이
	if math.Abs(resp.Confidence-0.95) > 1e-9 {
		t.Fatalf("confidence = %f, want 0.95", resp.Confidence)
	}
	if resp.Metadata.TokensUsed != 12 {
		t.Fatalf("tokensUsed = %d, want 12", resp.Metadata.TokensUsed)
	}

	tx := resp.ExtractedData
	if tx == nil {
		t.Fatalf("expected extracted transaction")
	}
	if tx.Amount != 4500 {
		t.Fatalf("amount = %d, want 4500", tx.Amount)
	}
	if tx.PaymentMethod != fintext.PaymentCard {
		t.Fatalf("paymentMethod = %s, want card", tx.PaymentMethod)
	}
	if tx.Location != "스타벅스" {
		t.Fatalf("location = %q, want 스타벅스", tx.Location)
	}
	if tx.Category != fintext.CategoryFood {
		t.Fatalf("category = %s, want food", tx.Category)
	}
}

func TestParseEmbeddedJSONSubstring(t *testing.T) {
	p := newTestParser(t)
	raw := "모델 출력: {\"status\":\"success\",\"response\":\"분석 결과를 준비했어요.\"} 이상입니다."

	resp := p.Parse(raw, "이번달 지출 분석해줘")
	if resp.Intent != fintext.IntentSpendingAnalysis {
		t.Fatalf("expected spending_analysis, got %s", resp.Intent)
	}
	if resp.Content != "분석 결과를 준비했어요." {
		t.Fatalf("embedded json not extracted: %q", resp.Content)
	}
}

func TestParseProseFallbackCapsConfidence(t *testing.T) {
	p := newTestParser(t)
	raw := "이건 JSON 이 아닌 꽤 길게 이어지는 일반 문장 응답입니다."

	resp := p.Parse(raw, "요즘 돈 아끼는 팁 알려줘")
	if resp.Intent != fintext.IntentFinancialAdvice {
		t.Fatalf("expected financial_advice, got %s", resp.Intent)
	}
	if resp.Content != raw {
		t.Fatalf("prose content must be the raw reply")
	}
	if resp.Confidence > 0.8 {
		t.Fatalf("prose confidence %f exceeds 0.8 cap", resp.Confidence)
	}
}

func TestParseTransactionWithoutAmountYieldsNoExtraction(t *testing.T) {
	p := newTestParser(t)
	raw := `{"status":"success","response":"기록할게요."}`

	resp := p.Parse(raw, "어제 편의점에서 1000원 결제했어")
	if resp.ExtractedData == nil {
		t.Fatalf("expected extraction for amount-bearing input")
	}

	resp = p.Parse(raw, "500원 20원")
	if resp.Intent == fintext.IntentTransactionRecord && resp.ExtractedData == nil {
		t.Fatalf("transaction intent with parsable amount must extract")
	}
}

func TestParseSuggestionsCappedAtFive(t *testing.T) {
	p := newTestParser(t)
	raw := `{"status":"success","response":"네.","suggestions":["1","2","3","4","5","6","7"]}`

	resp := p.Parse(raw, "안녕하세요")
	if len(resp.Suggestions) != 5 {
		t.Fatalf("suggestions = %d, want 5", len(resp.Suggestions))
	}
}

func TestDetectIntentSecondOpinion(t *testing.T) {
	cases := []struct {
		text string
		want fintext.Intent
	}{
		{"커피 4500원 썼어", fintext.IntentTransactionRecord},
		{"돈 아끼는 팁 좀", fintext.IntentFinancialAdvice},
		{"100만원 모으는 게 목표야", fintext.IntentGoalSetting},
		{"이번달 소비 패턴 분석해줘", fintext.IntentSpendingAnalysis},
		{"안녕하세요", fintext.IntentGreeting},
		{"오늘 날씨 어때", fintext.IntentGeneralQuestion},
	}
	for _, tc := range cases {
		if got := detectIntent(tc.text); got != tc.want {
			t.Fatalf("detectIntent(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestParseGarbageNeverPanics(t *testing.T) {
	p := newTestParser(t)
	inputs := []string{"", "{", "}{", "null", "[1,2,3]", "{\"status\":1}"}
	for _, raw := range inputs {
		resp := p.Parse(raw, "아무거나")
		if resp == nil {
			t.Fatalf("Parse(%q) returned nil", raw)
		}
	}
}
