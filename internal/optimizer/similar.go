package optimizer

import (
	"strings"

	"github.com/cheonmabigo/fintext-nlu-go/internal/textnorm"
)

// jaccard 는 공백 토큰 집합 간 자카드 유사도다.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(textnorm.Normalize(text)) {
		set[token] = true
	}
	return set
}
