package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ASCII fast path",
			input:    "Budget 4500",
			expected: "budget 4500",
		},
		{
			name:     "Korean preserved",
			input:    "커피 4500원 결제했어",
			expected: "커피 4500원 결제했어",
		},
		{
			name:     "Jamo-only input composed",
			input:    "ㅋㅓㅍㅣ 4500원",
			expected: "커피 4500원",
		},
		{
			name:     "Fullwidth digits folded",
			input:    "４５００원 결제",
			expected: "4500원 결제",
		},
		{
			name:     "Digits with zero survive folding",
			input:    "커피 4500원 썼어",
			expected: "커피 4500원 썼어",
		},
		{
			name:     "Comma-grouped amount survives",
			input:    "점심 10,000원 냈어",
			expected: "점심 10,000원 냈어",
		},
		{
			name:     "Cyrillic homoglyph folded next to digits",
			input:    "Sеcret 100원", // Cyrillic 'е' (U+0435)
			expected: "secret 100원",
		},
		{
			name:     "Zero width space removed",
			input:    "커피​4500원",
			expected: "커피4500원",
		},
		{
			name:     "Whitespace collapsed",
			input:    "  커피   4500원  ",
			expected: "커피 4500원",
		},
		{
			name:     "Empty after trim",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestComposeJamoSequences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Pure jamo",
			input:    "ㅇㅖㅅㅏㄴ",
			expected: "예산",
		},
		{
			name:     "Mixed with composed Hangul",
			input:    "이번달 ㅇㅖㅅㅏㄴ 알려줘",
			expected: "이번달 예산 알려줘",
		},
		{
			name:     "Jamo with numbers",
			input:    "ㅋㅓㅍㅣ4500",
			expected: "커피4500",
		},
		{
			name:     "No jamo unchanged",
			input:    "커피 4500원",
			expected: "커피 4500원",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeJamoSequences(tt.input)
			if got != tt.expected {
				t.Errorf("ComposeJamoSequences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripPunct(t *testing.T) {
	got := StripPunct("커피 샀어! 예산, 알려줘?")
	want := "커피 샀어 예산 알려줘"
	if got != want {
		t.Errorf("StripPunct() = %q, want %q", got, want)
	}
}

func TestStripEmoji(t *testing.T) {
	got := StripEmoji("커피☕ 4500원")
	if got == "커피☕ 4500원" {
		t.Fatalf("expected emoji removed, got %q", got)
	}
	without := "커피 4500원"
	if StripEmoji(without) != without {
		t.Errorf("emoji-free input must pass through unchanged")
	}
}
