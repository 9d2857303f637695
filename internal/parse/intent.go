package parse

import (
	"strings"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
	"github.com/cheonmabigo/fintext-nlu-go/internal/textnorm"
)

// 파서 전용 의도 판정 키워드. 분류기의 사전과 일부러 공유하지 않는다.
// 분류기 버그가 파서 경로에서 그대로 가려지는 것을 막기 위한 독립 2차 판정이다.
var (
	transactionVerbs = []string{"결제", "샀", "썼", "냈", "구매", "지불", "먹었", "마셨", "시켰"}
	adviceWords      = []string{"조언", "추천", "절약", "아끼", "팁", "재테크"}
	goalWords        = []string{"목표", "저축", "적금", "모으", "모아"}
	analysisWords    = []string{"분석", "내역", "패턴", "통계", "얼마나", "리포트"}
	greetingWords    = []string{"안녕", "하이", "반가", "고마워", "감사"}
)

// detectIntent 는 원본 입력만으로 의도를 다시 판정한다.
func detectIntent(originalInput string) fintext.Intent {
	text := textnorm.Normalize(textnorm.StripEmoji(originalInput))
	if text == "" {
		return fintext.IntentUnknown
	}

	if containsAny(text, transactionVerbs) && extract.HasAmountPattern(text) {
		return fintext.IntentTransactionRecord
	}
	if containsAny(text, adviceWords) {
		return fintext.IntentFinancialAdvice
	}
	if containsAny(text, goalWords) {
		return fintext.IntentGoalSetting
	}
	if containsAny(text, analysisWords) {
		return fintext.IntentSpendingAnalysis
	}
	// 동사 없이 금액만 있는 입력도 거래 기록으로 본다.
	if extract.HasAmountPattern(text) {
		return fintext.IntentTransactionRecord
	}
	if containsAny(text, greetingWords) {
		return fintext.IntentGreeting
	}
	return fintext.IntentGeneralQuestion
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
