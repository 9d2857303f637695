package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fintext_ai_requests_total",
		Help: "처리된 AI 요청 수 (결과 라벨별)",
	}, []string{"result"})
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintext_ai_cache_hits_total",
		Help: "캐시 히트로 응답한 요청 수",
	})
	tokensUsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fintext_ai_tokens_used_total",
		Help: "누적 토큰 사용량(추정치 포함)",
	})
	responseSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fintext_ai_response_seconds",
		Help:    "요청 처리 시간",
		Buckets: prometheus.DefBuckets,
	})
)

// Snapshot 는 특정 시점의 누적 지표 사본이다. 반환 후 변경되지 않는다.
type Snapshot struct {
	TotalRequests       int64   `json:"totalRequests"`
	SuccessfulRequests  int64   `json:"successfulRequests"`
	AverageResponseTime float64 `json:"averageResponseTime"`
	TotalTokensUsed     int64   `json:"totalTokensUsed"`
	CacheHits           int64   `json:"cacheHits"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	ErrorRate           float64 `json:"errorRate"`
}

// AIMetrics: 프로세스 전역 지표 누적기입니다. 평균 응답시간은 증분 평균으로 유지합니다.
type AIMetrics struct {
	mu                 sync.Mutex
	totalRequests      int64
	successfulRequests int64
	averageResponseMs  float64
	totalTokensUsed    int64
	cacheHits          int64
}

func New() *AIMetrics {
	return &AIMetrics{}
}

// Record 는 요청 1건의 결과를 누적한다.
func (m *AIMetrics) Record(responseTimeMs float64, tokensUsed int64, success bool, cacheHit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if success {
		m.successfulRequests++
	}
	if cacheHit {
		m.cacheHits++
	}
	m.totalTokensUsed += tokensUsed
	m.averageResponseMs += (responseTimeMs - m.averageResponseMs) / float64(m.totalRequests)

	result := "error"
	if success {
		result = "success"
	}
	requestsTotal.WithLabelValues(result).Inc()
	if cacheHit {
		cacheHitsTotal.Inc()
	}
	if tokensUsed > 0 {
		tokensUsedTotal.Add(float64(tokensUsed))
	}
	responseSeconds.Observe(responseTimeMs / 1000)
}

// Snapshot 는 현재 누적값의 사본을 반환한다.
func (m *AIMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		TotalRequests:       m.totalRequests,
		SuccessfulRequests:  m.successfulRequests,
		AverageResponseTime: m.averageResponseMs,
		TotalTokensUsed:     m.totalTokensUsed,
		CacheHits:           m.cacheHits,
	}
	if m.totalRequests > 0 {
		snap.CacheHitRate = float64(m.cacheHits) / float64(m.totalRequests)
		snap.ErrorRate = 1 - float64(m.successfulRequests)/float64(m.totalRequests)
	}
	return snap
}

// Restore 는 영속 저장소에서 읽은 스냅샷을 기본값 위에 덮어쓴다. 기동 시 1회 호출한다.
func (m *AIMetrics) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests = snap.TotalRequests
	m.successfulRequests = snap.SuccessfulRequests
	m.averageResponseMs = snap.AverageResponseTime
	m.totalTokensUsed = snap.TotalTokensUsed
	m.cacheHits = snap.CacheHits
}

// Reset 는 누적값을 0으로 되돌린다. 테스트와 관리용 엔드포인트에서 쓴다.
func (m *AIMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests = 0
	m.successfulRequests = 0
	m.averageResponseMs = 0
	m.totalTokensUsed = 0
	m.cacheHits = 0
}
