package usage

import "time"

// TokenUsage 는 일자별 토큰 사용량 집계를 저장하는 DB 모델이다.
type TokenUsage struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	UsageDate     time.Time `gorm:"column:usage_date;type:date"`
	InputTokens   int64     `gorm:"column:input_tokens"`
	OutputTokens  int64     `gorm:"column:output_tokens"`
	RequestCount  int64     `gorm:"column:request_count"`
	FallbackCount int64     `gorm:"column:fallback_count"`
	Version       int64     `gorm:"column:version"`
}

// TableName 은 GORM에서 사용할 테이블명을 반환한다.
func (TokenUsage) TableName() string {
	return "ai_token_usage"
}

// DailyUsage 는 API/집계용 일자별 사용량 뷰 모델이다.
type DailyUsage struct {
	UsageDate     time.Time `json:"usage_date"`
	InputTokens   int64     `json:"input_tokens"`
	OutputTokens  int64     `json:"output_tokens"`
	RequestCount  int64     `json:"request_count"`
	FallbackCount int64     `json:"fallback_count"`
}

// TotalTokens 는 입력+출력 토큰 합계를 반환한다.
func (d DailyUsage) TotalTokens() int64 {
	return d.InputTokens + d.OutputTokens
}

// FallbackRate 는 패턴 폴백으로 처리된 요청 비율을 반환한다.
func (d DailyUsage) FallbackRate() float64 {
	if d.RequestCount == 0 {
		return 0
	}
	return float64(d.FallbackCount) / float64(d.RequestCount)
}
