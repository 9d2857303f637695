package fintext

import "time"

// Intent 는 사용자 발화의 의도 분류다.
type Intent string

const (
	IntentTransactionRecord Intent = "transaction_record"
	IntentFinancialAdvice   Intent = "financial_advice"
	IntentGoalSetting       Intent = "goal_setting"
	IntentSpendingAnalysis  Intent = "spending_analysis"
	IntentGeneralQuestion   Intent = "general_question"
	IntentGreeting          Intent = "greeting"
	IntentUnknown           Intent = "unknown"
)

// IntentOrder 는 의도 열거 순서다. 분류 점수 동률 시 앞선 의도가 이긴다.
var IntentOrder = []Intent{
	IntentTransactionRecord,
	IntentFinancialAdvice,
	IntentGoalSetting,
	IntentSpendingAnalysis,
	IntentGeneralQuestion,
	IntentGreeting,
	IntentUnknown,
}

// ParseIntent 는 문자열을 Intent 로 변환한다. 모르는 값은 unknown 이다.
func ParseIntent(value string) Intent {
	for _, intent := range IntentOrder {
		if string(intent) == value {
			return intent
		}
	}
	return IntentUnknown
}

// Category 는 거래 카테고리다.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryUtility       Category = "utility"
	CategoryIncome        Category = "income"
	CategoryTravel        Category = "travel"
	CategoryOther         Category = "other"
)

// PaymentMethod 는 결제 수단이다.
type PaymentMethod string

const (
	PaymentCard      PaymentMethod = "card"
	PaymentCash      PaymentMethod = "cash"
	PaymentTransfer  PaymentMethod = "transfer"
	PaymentMobilePay PaymentMethod = "mobile_pay"
)

// TransactionType 는 수입/지출 구분이다.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// ExtractedTransaction 은 자유 텍스트에서 추출된 거래 초안이다.
// 의도가 transaction_record 이고 금액 추출에 성공했을 때만 생성된다.
type ExtractedTransaction struct {
	Amount        int64           `json:"amount"`
	Description   string          `json:"description"`
	Category      Category        `json:"category"`
	Location      string          `json:"location,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Date          time.Time       `json:"date"`
	Type          TransactionType `json:"type"`
	Confidence    float64         `json:"confidence"`
}

// ResponseMetadata 는 응답 생성 경로 메타데이터다.
type ResponseMetadata struct {
	TokensUsed   int       `json:"tokens_used"`
	ResponseTime time.Time `json:"response_time"`
	ModelVersion string    `json:"model_version"`
	CacheHit     bool      `json:"cache_hit,omitempty"`
}

// ModelVersionFallback 는 패턴 폴백 경로 태그다.
const ModelVersionFallback = "pattern-fallback"

// ModelVersionError 는 오류 응답 태그다.
const ModelVersionError = "error"

// AIResponse 는 파이프라인의 최종 산출물이다. 생성 후 불변으로 다룬다.
type AIResponse struct {
	ID            string                `json:"id"`
	Content       string                `json:"content"`
	Intent        Intent                `json:"intent"`
	Confidence    float64               `json:"confidence"`
	ExtractedData *ExtractedTransaction `json:"extracted_data,omitempty"`
	Suggestions   []string              `json:"suggestions,omitempty"`
	Metadata      ResponseMetadata      `json:"metadata"`
}

// CachedResponse 는 옵티마이저가 보관하는 캐시 항목이다.
type CachedResponse struct {
	Key       string     `json:"key"`
	Response  AIResponse `json:"response"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	HitCount  int64      `json:"hit_count"`
}

// Expired 는 항목 만료 여부를 반환한다.
func (c CachedResponse) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TransactionSummary 는 프롬프트 컨텍스트로 쓰이는 최근 거래 요약이다.
type TransactionSummary struct {
	Description string          `json:"description"`
	Amount      int64           `json:"amount"`
	Category    Category        `json:"category"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
}

// SavingsGoal 는 저축 목표다.
type SavingsGoal struct {
	Name         string `json:"name"`
	TargetAmount int64  `json:"target_amount"`
	SavedAmount  int64  `json:"saved_amount"`
}

// Preferences 는 응답 스타일 선호 설정이다.
type Preferences struct {
	ResponseStyle string `json:"response_style,omitempty"`
	AdviceLevel   string `json:"advice_level,omitempty"`
}

// UserContext 는 호출자가 소유한 읽기 전용 사용자 컨텍스트다.
// 프롬프트 템플릿 채움과 캐시 키 지문에만 쓰인다.
type UserContext struct {
	UserID             string               `json:"user_id"`
	RecentTransactions []TransactionSummary `json:"recent_transactions,omitempty"`
	MonthlyBudget      *int64               `json:"monthly_budget,omitempty"`
	SavingsGoals       []SavingsGoal        `json:"savings_goals,omitempty"`
	SpendingPatterns   map[string]int64     `json:"spending_patterns,omitempty"`
	Preferences        Preferences          `json:"preferences,omitempty"`
}
