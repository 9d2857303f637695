package usage

import "testing"

func TestDailyUsageTotals(t *testing.T) {
	usage := DailyUsage{
		InputTokens:   120,
		OutputTokens:  80,
		RequestCount:  10,
		FallbackCount: 4,
	}

	if usage.TotalTokens() != 200 {
		t.Fatalf("TotalTokens = %d, want 200", usage.TotalTokens())
	}
	if usage.FallbackRate() != 0.4 {
		t.Fatalf("FallbackRate = %f, want 0.4", usage.FallbackRate())
	}
}

func TestDailyUsageFallbackRateEmpty(t *testing.T) {
	var usage DailyUsage
	if usage.FallbackRate() != 0 {
		t.Fatalf("FallbackRate on empty usage = %f, want 0", usage.FallbackRate())
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[int]bool{1: true, 2: true, 3: false, 4: true, 6: false, 8: true, 0: false, -2: false}
	for value, want := range cases {
		if got := isPowerOfTwo(value); got != want {
			t.Fatalf("isPowerOfTwo(%d) = %v, want %v", value, got, want)
		}
	}
}
