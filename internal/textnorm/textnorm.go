// Package textnorm 는 어휘 매칭 전에 한국어 입력을 정규화한다.
// 자모만 친 입력("ㅋㅓㅍㅣ")을 완성형으로 조합하고, 한글 외 문자는
// homoglyph skeleton + NFKC 로 정규화해 우회 표기를 흡수한다.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/mtibben/confusables"
	"github.com/ymw0407/jamo/pkg/jamo"
	"golang.org/x/text/unicode/norm"
)

// jamoTable: 한글 자모 범위를 통합한 테이블
var jamoTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x1100, Hi: 0x11FF, Stride: 1}, // Hangul Jamo
		{Lo: 0x3130, Hi: 0x318F, Stride: 1}, // Hangul Compatibility Jamo
		{Lo: 0xA960, Hi: 0xA97F, Stride: 1}, // Hangul Jamo Extended-A
		{Lo: 0xD7B0, Hi: 0xD7FF, Stride: 1}, // Hangul Jamo Extended-B
	},
}

// hangulTable: 완성형 한글 범위 (가-힣)
var hangulTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0xAC00, Hi: 0xD7A3, Stride: 1},
	},
}

// Normalize 는 분류/추출용 정규형을 만든다.
// 소문자화, 자모 조합, NFC, 한글 보존 skeleton, 제어 문자 제거, 공백 축약 순이다.
func Normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	if isASCIIOnly(trimmed) {
		return collapseWhitespace(strings.ToLower(stripControlChars(trimmed)))
	}

	composed := ComposeJamoSequences(trimmed)
	nfcText := norm.NFC.String(composed)
	normalized := normalizeWithKoreanPreserved(nfcText)
	return collapseWhitespace(strings.ToLower(stripControlChars(normalized)))
}

// StripEmoji 는 이모지를 제거한다. 이모지 섞인 입력도 매칭 가능하게 한다.
func StripEmoji(text string) string {
	if !gomoji.ContainsEmoji(text) {
		return text
	}
	return gomoji.RemoveEmojis(text)
}

// ComposeJamoSequences: 연속 자모 시퀀스를 완성형으로 조합합니다.
// 조합에 실패한 자모는 원본 그대로 유지됩니다.
func ComposeJamoSequences(text string) string {
	var result strings.Builder
	var jamoBuffer strings.Builder
	result.Grow(len(text))

	flushJamo := func() {
		if jamoBuffer.Len() == 0 {
			return
		}
		jamoStr := jamoBuffer.String()
		composed, err := jamo.ComposeHangeul(jamoStr)
		if err == nil && len(composed) > 0 {
			result.WriteString(composed[0])
		} else {
			result.WriteString(jamoStr)
		}
		jamoBuffer.Reset()
	}

	for _, r := range text {
		if unicode.Is(jamoTable, r) {
			jamoBuffer.WriteRune(r)
		} else {
			flushJamo()
			result.WriteRune(r)
		}
	}
	flushJamo()

	return result.String()
}

// normalizeWithKoreanPreserved: 한글은 보존하면서 나머지만 skeleton + NFKC 변환
func normalizeWithKoreanPreserved(text string) string {
	var result strings.Builder
	var nonKoreanBuffer strings.Builder
	result.Grow(len(text))

	flushNonKorean := func() {
		if nonKoreanBuffer.Len() == 0 {
			return
		}
		// NFKC 를 먼저 적용해 전각 숫자/영문을 ASCII 로 접는다.
		folded := norm.NFKC.String(nonKoreanBuffer.String())
		result.WriteString(skeletonPreservingAlnum(folded))
		nonKoreanBuffer.Reset()
	}

	for _, r := range text {
		if unicode.Is(hangulTable, r) || unicode.Is(jamoTable, r) {
			flushNonKorean()
			result.WriteRune(r)
		} else {
			nonKoreanBuffer.WriteRune(r)
		}
	}
	flushNonKorean()

	return result.String()
}

// skeletonPreservingAlnum 는 ASCII 영숫자를 제외한 구간만 skeleton 으로 접는다.
// confusables 테이블은 숫자 '0' 을 문자 'o' 로 바꾸는데, 금액("4500원")이
// 곧 신호인 입력에서는 숫자가 변형되면 안 된다.
func skeletonPreservingAlnum(text string) string {
	var result strings.Builder
	var segment strings.Builder
	result.Grow(len(text))

	flushSegment := func() {
		if segment.Len() == 0 {
			return
		}
		skeleton := confusables.Skeleton(segment.String())
		result.WriteString(norm.NFKC.String(skeleton))
		segment.Reset()
	}

	for _, r := range text {
		if r <= unicode.MaxASCII && (unicode.IsDigit(r) || unicode.IsLetter(r)) {
			flushSegment()
			result.WriteRune(r)
		} else {
			segment.WriteRune(r)
		}
	}
	flushSegment()

	return result.String()
}

// StripPunct 는 구두점을 공백으로 바꾼다. 점수 계산 전 분류기에서 쓴다.
// 금액 추출은 쉼표 표기("4,500원")가 필요하므로 이 함수를 거치지 않는다.
func StripPunct(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) {
			builder.WriteRune(' ')
			continue
		}
		builder.WriteRune(r)
	}
	return collapseWhitespace(builder.String())
}

func isASCIIOnly(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func stripControlChars(text string) string {
	hasControl := false
	for _, r := range text {
		if unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Cc, r) {
			hasControl = true
			break
		}
	}
	if !hasControl {
		return text
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if unicode.Is(unicode.Cf, r) || unicode.Is(unicode.Cc, r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
