package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// 금액 패턴은 우선순위 순서로 검사한다: 만원 > 천원 > 원 > 단독 숫자.
var (
	manWonRe   = regexp.MustCompile(`([0-9][0-9,]*|[영일이삼사오육칠팔구십백천]+)\s*만\s*원`)
	cheonWonRe = regexp.MustCompile(`([0-9][0-9,]*|[영일이삼사오육칠팔구십백]+)\s*천\s*원`)
	wonRe      = regexp.MustCompile(`([0-9][0-9,]*|[영일이삼사오육칠팔구십백천만]+)\s*원`)
	bareNumRe  = regexp.MustCompile(`[0-9][0-9,]*`)
)

var koreanDigits = map[rune]int64{
	'영': 0, '일': 1, '이': 2, '삼': 3, '사': 4,
	'오': 5, '육': 6, '칠': 7, '팔': 8, '구': 9,
}

var koreanSmallUnits = map[rune]int64{
	'십': 10, '백': 100, '천': 1000,
}

// Amount 는 텍스트에서 원 단위 정수 금액을 추출한다.
// 어떤 숫자/통화 패턴도 없으면 ok=false 를 반환하며, 호출자는 이를
// "거래로 분류 불가"로 다뤄야 한다.
func Amount(text string) (int64, bool) {
	if value, ok := matchUnit(manWonRe, text); ok {
		return value * 10000, true
	}
	if value, ok := matchUnit(cheonWonRe, text); ok {
		return value * 1000, true
	}
	if value, ok := matchUnit(wonRe, text); ok {
		return value, true
	}

	// 통화 단위가 없으면 3자리 이상 단독 숫자를 마지막 추측으로 쓴다.
	for _, match := range bareNumRe.FindAllString(text, -1) {
		digits := strings.ReplaceAll(match, ",", "")
		if len(digits) < 3 {
			continue
		}
		value, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		return value, true
	}

	return 0, false
}

// HasAmountPattern 는 금액 패턴 존재 여부만 확인한다. 분류기 보너스 판정용.
func HasAmountPattern(text string) bool {
	_, ok := Amount(text)
	return ok
}

func matchUnit(re *regexp.Regexp, text string) (int64, bool) {
	groups := re.FindStringSubmatch(text)
	if len(groups) < 2 {
		return 0, false
	}
	return parseNumberToken(groups[1])
}

func parseNumberToken(token string) (int64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}

	if token[0] >= '0' && token[0] <= '9' {
		digits := strings.ReplaceAll(token, ",", "")
		value, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}

	return parseKoreanNumber(token)
}

// parseKoreanNumber 는 한글 수사를 정수로 변환한다.
// 자릿수 단위(십/백/천)별 부분합을 누적하고 만 경계에서 리셋하는
// 단순화된 알고리즘이다. 억 이상 복합 수사는 지원하지 않는다.
func parseKoreanNumber(text string) (int64, bool) {
	var total, section, current int64
	for _, r := range text {
		if digit, ok := koreanDigits[r]; ok {
			current = digit
			continue
		}
		if unit, ok := koreanSmallUnits[r]; ok {
			if current == 0 {
				current = 1
			}
			section += current * unit
			current = 0
			continue
		}
		if r == '만' {
			section += current
			if section == 0 {
				section = 1
			}
			total += section * 10000
			section = 0
			current = 0
			continue
		}
		return 0, false
	}

	total += section + current
	if total <= 0 {
		return 0, false
	}
	return total, true
}
