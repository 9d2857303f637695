package fintext

import (
	"strings"
	"testing"
	"time"
)

func TestPromptsBuildAllIntents(t *testing.T) {
	prompts, err := NewPrompts()
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}

	for _, intent := range IntentOrder {
		system, user, err := prompts.Build(intent, "커피 4500원 썼어", nil)
		if err != nil {
			t.Fatalf("build failed for %s: %v", intent, err)
		}
		if system == "" {
			t.Fatalf("expected system prompt for %s", intent)
		}
		if !strings.Contains(user, "커피 4500원 썼어") {
			t.Fatalf("expected user input in %s prompt: %s", intent, user)
		}
	}
}

func TestPromptsBuildWithUserContext(t *testing.T) {
	prompts, err := NewPrompts()
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}

	budget := int64(500000)
	userCtx := &UserContext{
		UserID:        "u-1",
		MonthlyBudget: &budget,
		RecentTransactions: []TransactionSummary{
			{Description: "점심", Amount: 9000, Category: CategoryFood, Type: TransactionExpense, Date: time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)},
		},
		SavingsGoals: []SavingsGoal{
			{Name: "여행", TargetAmount: 1000000, SavedAmount: 300000},
		},
		SpendingPatterns: map[string]int64{string(CategoryFood): 120000},
	}

	_, user, err := prompts.Build(IntentFinancialAdvice, "예산 조언해줘", userCtx)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(user, "500000원") {
		t.Fatalf("expected budget in prompt: %s", user)
	}
	if !strings.Contains(user, "점심") {
		t.Fatalf("expected recent transaction in prompt: %s", user)
	}
}

func TestRenderPatternsDeterministicOrder(t *testing.T) {
	patterns := map[string]int64{
		string(CategoryTransport): 40000,
		string(CategoryFood):      120000,
	}

	first := renderPatterns(patterns)
	for i := 0; i < 10; i++ {
		if got := renderPatterns(patterns); got != first {
			t.Fatalf("expected deterministic rendering, got %q then %q", first, got)
		}
	}
	if strings.Index(first, string(CategoryFood)) > strings.Index(first, string(CategoryTransport)) {
		t.Fatalf("expected food before transport: %s", first)
	}
}

func TestRenderEmptyContextSections(t *testing.T) {
	if renderTransactions(nil) != "(없음)" {
		t.Fatalf("expected placeholder for empty transactions")
	}
	if renderGoals(nil) != "(없음)" {
		t.Fatalf("expected placeholder for empty goals")
	}
	if renderPatterns(nil) != "(없음)" {
		t.Fatalf("expected placeholder for empty patterns")
	}
}
