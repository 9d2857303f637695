package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
)

// locationRe 는 "<장소>에서" 꼴에서 장소를 뽑는다. 알려진 가맹점 사전에 없을 때의 보조 수단.
var locationRe = regexp.MustCompile(`([가-힣a-zA-Z0-9]+)에서`)

var incomeKeywords = []string{"월급", "급여", "입금", "수입", "보너스", "용돈"}

// Extractor: 정규화된 텍스트에서 거래 구성요소를 추출합니다.
type Extractor struct {
	lex *fintext.Lexicon
}

func New(lex *fintext.Lexicon) *Extractor {
	return &Extractor{lex: lex}
}

// Category 는 첫번째로 매칭되는 카테고리를 반환한다. 매칭이 없으면 기타.
func (e *Extractor) Category(text string) fintext.Category {
	return e.lex.MatchCategory(text)
}

// Payment 는 결제수단 키워드 매칭 결과를 반환한다. ok=false 면 기본값(카드)을 쓴다.
func (e *Extractor) Payment(text string) (fintext.PaymentMethod, bool) {
	return e.lex.MatchPayment(text)
}

// Location 은 가맹점 사전을 먼저 보고, 없으면 "~에서" 패턴으로 추정한다.
func (e *Extractor) Location(text string) (string, bool) {
	if merchant, ok := e.lex.MatchMerchant(text); ok {
		return merchant, true
	}
	groups := locationRe.FindStringSubmatch(text)
	if len(groups) < 2 {
		return "", false
	}
	place := groups[1]
	if isNumeric(place) {
		return "", false
	}
	return place, true
}

// TransactionType 는 수입 키워드가 있으면 수입, 아니면 지출로 본다.
func (e *Extractor) TransactionType(text string) fintext.TransactionType {
	for _, kw := range incomeKeywords {
		if strings.Contains(text, kw) {
			return fintext.TransactionIncome
		}
	}
	return fintext.TransactionExpense
}

// Transaction 은 거래 기록 의도로 분류된 입력에서 거래 전체를 조립한다.
// 금액이 없으면 거래로 성립하지 않으므로 ok=false 를 반환한다.
func (e *Extractor) Transaction(original string, confidence float64, now time.Time) (*fintext.ExtractedTransaction, bool) {
	amount, ok := Amount(original)
	if !ok {
		return nil, false
	}

	tx := &fintext.ExtractedTransaction{
		Amount:      amount,
		Description: strings.TrimSpace(original),
		Category:    e.Category(original),
		Type:        e.TransactionType(original),
		Date:        now,
		Confidence:  confidence,
	}

	if method, found := e.Payment(original); found {
		tx.PaymentMethod = method
	} else {
		tx.PaymentMethod = fintext.PaymentCard
	}
	if place, found := e.Location(original); found {
		tx.Location = place
	}

	return tx, true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
