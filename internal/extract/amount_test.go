package extract

import "testing"

func TestAmountUnitPrecedence(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int64
	}{
		{"man_won_arabic", "3만원 썼어", 30000},
		{"man_won_korean", "삼만원 결제했어", 30000},
		{"cheon_won_arabic", "5천원 냈어", 5000},
		{"cheon_won_korean", "오천원짜리 커피", 5000},
		{"won_plain", "4500원 결제", 4500},
		{"won_comma", "커피 4,500원 결제했어", 4500},
		{"won_korean_compound", "만원 썼어", 10000},
		{"won_korean_digits", "이만천원 결제", 21000},
		{"bare_digits", "점심값 12000 기록해줘", 12000},
		{"bare_comma", "택시비 15,000 썼다", 15000},
		{"spaced_unit", "3 만 원 결제", 30000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Amount(tc.text)
			if !ok {
				t.Fatalf("expected amount in %q", tc.text)
			}
			if got != tc.want {
				t.Fatalf("amount mismatch: got %d want %d", got, tc.want)
			}
		})
	}
}

func TestAmountAbsent(t *testing.T) {
	cases := []string{
		"오늘 기분 어때",
		"예산 좀 알려줘",
		"12번 버스 탔어", // 3자리 미만 단독 숫자는 금액이 아니다
	}
	for _, text := range cases {
		if got, ok := Amount(text); ok {
			t.Fatalf("expected no amount in %q, got %d", text, got)
		}
	}
}

func TestKoreanNumberWords(t *testing.T) {
	cases := []struct {
		token string
		want  int64
	}{
		{"삼", 3},
		{"십", 10},
		{"이십오", 25},
		{"삼백", 300},
		{"천오백", 1500},
		{"만", 10000},
		{"삼만", 30000},
		{"이만오천", 25000},
	}
	for _, tc := range cases {
		got, ok := parseKoreanNumber(tc.token)
		if !ok || got != tc.want {
			t.Fatalf("parseKoreanNumber(%q) = %d, %v; want %d", tc.token, got, ok, tc.want)
		}
	}
}

// 억 단위 복합 수사는 단순화된 파서의 한계로 지원하지 않는다.
func TestKoreanNumberWordsBeyondManUnsupported(t *testing.T) {
	if _, ok := parseKoreanNumber("일억"); ok {
		t.Fatalf("expected 억 compounds to be rejected")
	}
}

// "2만3천원" 같은 아라비아 숫자 혼합 복합 표기는 만원 패턴에 걸리지 않고
// 천원 패턴이 "3천원"만 집는다. 단위 우선순위 규칙의 알려진 한계다.
func TestAmountMixedManCheonCompoundLimitation(t *testing.T) {
	got, ok := Amount("2만3천원 썼어")
	if !ok {
		t.Fatalf("expected an amount match")
	}
	if got != 3000 {
		t.Fatalf("amount = %d, want 3000 (천원 branch wins)", got)
	}
}
