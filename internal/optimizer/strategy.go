package optimizer

import (
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
)

// Priority 는 캐시 보존 우선순위다. 현재는 관측/디버깅 용도로만 노출한다.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Strategy 는 의도별 캐시 정책이다.
type Strategy struct {
	TTL         time.Duration
	Priority    Priority
	ShouldCache bool
}

// 거래 기록은 문장마다 금액이 달라 캐시하면 비슷한 문장에 낡은 금액이
// 재사용될 수 있다. 그래서 TTL 은 정의하되 기본적으로 캐시하지 않는다.
var strategies = map[fintext.Intent]Strategy{
	fintext.IntentTransactionRecord: {TTL: 5 * time.Minute, Priority: PriorityLow, ShouldCache: false},
	fintext.IntentFinancialAdvice:   {TTL: time.Hour, Priority: PriorityHigh, ShouldCache: true},
	fintext.IntentGoalSetting:       {TTL: time.Hour, Priority: PriorityMedium, ShouldCache: true},
	fintext.IntentSpendingAnalysis:  {TTL: 30 * time.Minute, Priority: PriorityHigh, ShouldCache: true},
	fintext.IntentGeneralQuestion:   {TTL: 2 * time.Hour, Priority: PriorityMedium, ShouldCache: true},
	fintext.IntentGreeting:          {TTL: 24 * time.Hour, Priority: PriorityLow, ShouldCache: true},
	fintext.IntentUnknown:           {TTL: 10 * time.Minute, Priority: PriorityLow, ShouldCache: false},
}

// CacheStrategy 는 의도별 정적 캐시 정책을 반환한다.
func CacheStrategy(intent fintext.Intent) Strategy {
	if strategy, ok := strategies[intent]; ok {
		return strategy
	}
	return strategies[fintext.IntentUnknown]
}
