package llm

// HistoryEntry: 대화 히스토리 항목입니다.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage: 토큰 사용량 정보를 담습니다.
// EXAONE 추론 엔드포인트는 사용량 메타데이터를 내려주지 않으므로
// 문자 수 기반 추정치가 들어올 수 있다.
type Usage struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	TotalTokens  int  `json:"total_tokens"`
	Estimated    bool `json:"estimated"`
}

// Add 는 사용량을 누적한 값을 반환한다.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
		Estimated:    u.Estimated || other.Estimated,
	}
}

// EstimateTokens 는 텍스트 길이 기반 토큰 추정치를 반환한다.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	estimated := len(text) / 4
	if estimated == 0 {
		return 1
	}
	return estimated
}
