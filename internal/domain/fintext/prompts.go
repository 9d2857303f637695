package fintext

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/cheonmabigo/fintext-nlu-go/internal/prompt"
)

//go:embed prompts/*.yml
var promptsFS embed.FS

// Prompts 는 의도별 프롬프트 템플릿 모음이다.
type Prompts struct {
	prompts map[string]map[string]string
}

// NewPrompts 는 임베드된 프롬프트 템플릿을 로드한다.
func NewPrompts() (*Prompts, error) {
	loaded, err := prompt.LoadYAMLDir(promptsFS, "prompts")
	if err != nil {
		return nil, fmt.Errorf("load fintext prompts: %w", err)
	}
	return &Prompts{prompts: loaded}, nil
}

// templateNameFor 의도별 템플릿 파일명
func templateNameFor(intent Intent) string {
	switch intent {
	case IntentTransactionRecord:
		return "transaction"
	case IntentFinancialAdvice:
		return "advice"
	case IntentGoalSetting:
		return "goal"
	case IntentSpendingAnalysis:
		return "analysis"
	case IntentGreeting:
		return "greeting"
	default:
		return "general"
	}
}

// Build 는 의도별 시스템/유저 프롬프트를 만든다.
// 없는 변수는 빈 문자열로 치환되며, 템플릿 문법 오류 외에는 실패하지 않는다.
func (p *Prompts) Build(intent Intent, userInput string, userContext *UserContext) (string, string, error) {
	data, err := prompt.Get(p.prompts, templateNameFor(intent))
	if err != nil {
		return "", "", err
	}

	system, err := prompt.Field(data, "system", templateNameFor(intent)+".system")
	if err != nil {
		return "", "", err
	}
	userTemplate, err := prompt.Field(data, "user", templateNameFor(intent)+".user")
	if err != nil {
		return "", "", err
	}

	user, err := prompt.FormatLenient(userTemplate, contextValues(userInput, userContext))
	if err != nil {
		return "", "", fmt.Errorf("format %s prompt: %w", templateNameFor(intent), err)
	}
	return strings.TrimSpace(system), strings.TrimSpace(user), nil
}

func contextValues(userInput string, userContext *UserContext) map[string]string {
	values := map[string]string{
		"userInput": userInput,
	}
	if userContext == nil {
		return values
	}

	values["recentTransactions"] = renderTransactions(userContext.RecentTransactions)
	values["savingsGoals"] = renderGoals(userContext.SavingsGoals)
	values["spendingPatterns"] = renderPatterns(userContext.SpendingPatterns)
	values["responseStyle"] = userContext.Preferences.ResponseStyle
	if userContext.MonthlyBudget != nil {
		values["monthlyBudget"] = formatWon(*userContext.MonthlyBudget)
	}
	return values
}

// renderTransactions 는 최근 거래를 프롬프트용 표 텍스트로 만든다.
func renderTransactions(transactions []TransactionSummary) string {
	if len(transactions) == 0 {
		return "(없음)"
	}

	lines := make([]string, 0, len(transactions))
	for _, tx := range transactions {
		sign := "-"
		if tx.Type == TransactionIncome {
			sign = "+"
		}
		lines = append(lines, fmt.Sprintf(
			"- %s | %s | %s%s",
			tx.Date.Format("01/02"),
			tx.Description,
			sign,
			formatWon(tx.Amount),
		))
	}
	return strings.Join(lines, "\n")
}

func renderGoals(goals []SavingsGoal) string {
	if len(goals) == 0 {
		return "(없음)"
	}

	lines := make([]string, 0, len(goals))
	for _, goal := range goals {
		lines = append(lines, fmt.Sprintf(
			"- %s: %s / %s",
			goal.Name,
			formatWon(goal.SavedAmount),
			formatWon(goal.TargetAmount),
		))
	}
	return strings.Join(lines, "\n")
}

func renderPatterns(patterns map[string]int64) string {
	if len(patterns) == 0 {
		return "(없음)"
	}

	// 카테고리 고정 순서로 렌더링해 동일 컨텍스트가 동일 프롬프트를 만든다.
	lines := make([]string, 0, len(patterns))
	for _, category := range []Category{
		CategoryFood, CategoryTransport, CategoryShopping, CategoryEntertainment,
		CategoryHealth, CategoryEducation, CategoryUtility, CategoryIncome,
		CategoryTravel, CategoryOther,
	} {
		amount, ok := patterns[string(category)]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", category, formatWon(amount)))
	}
	if len(lines) == 0 {
		return "(없음)"
	}
	return strings.Join(lines, "\n")
}

func formatWon(amount int64) string {
	return strconv.FormatInt(amount, 10) + "원"
}
