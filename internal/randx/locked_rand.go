package randx

import (
	"math/rand/v2"
	"sync"
)

// LockedRand: math/rand/v2.Rand 를 goroutine-safe 하게 감싼 래퍼입니다.
// 폴백 응답 풀 선택에 쓰이며, 테스트는 고정 시드를 주입한다.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func New(r *rand.Rand) *LockedRand {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &LockedRand{r: r}
}

// NewSeeded 는 고정 시드 기반 LockedRand 를 생성한다.
func NewSeeded(seed uint64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed))}
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
