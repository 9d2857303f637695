package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ModelConfig: EXAONE 추론 엔드포인트 설정입니다.
type ModelConfig struct {
	APIURL            string
	APIKey            string
	ModelName         string
	SystemPrompt      string
	MaxNewTokens      int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
	ContextWindow     int
	TimeoutSeconds    int
	MaxRetries        int
}

// FallbackOnly: API 키가 없으면 네트워크 호출 없이 패턴 폴백만 사용한다.
func (m ModelConfig) FallbackOnly() bool {
	return strings.TrimSpace(m.APIKey) == ""
}

// Version: 응답 메타데이터에 기록할 모델 버전 태그를 반환합니다.
func (m ModelConfig) Version() string {
	if m.ModelName == "" {
		return "exaone"
	}
	return m.ModelName
}

// ClassifyConfig: 의도 분류기 설정입니다.
type ClassifyConfig struct {
	CacheMaxSize    int
	CacheTTLSeconds int
	// MultiIntentMinConfidence 미만 세그먼트는 다중 의도 결과에서 제외된다.
	MultiIntentMinConfidence float64
}

// OptimizerConfig: 응답 캐시/배치 설정입니다.
type OptimizerConfig struct {
	MaxCacheSize         int
	SweepIntervalMinutes int
	BatchSize            int
	BatchDelayMillis     int
	PersistEnabled       bool
}

// CacheStoreConfig: 캐시/메트릭 영속화 저장소(Valkey) 설정입니다.
type CacheStoreConfig struct {
	URL          string
	Enabled      bool
	Required     bool
	DisableCache bool
}

// SessionConfig: 대화 세션 설정입니다.
type SessionConfig struct {
	MaxSessions       int
	SessionTTLMinutes int
	HistoryMaxPairs   int
}

// LoggingConfig: 로깅 설정입니다.
type LoggingConfig struct {
	Level      string
	LogDir     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// HTTPConfig: HTTP 서버 설정입니다.
type HTTPConfig struct {
	Host         string
	Port         int
	HTTP2Enabled bool
}

// HTTPAuthConfig: API 키 인증 설정입니다.
type HTTPAuthConfig struct {
	APIKey string
}

// HTTPRateLimitConfig: 요청 제한 설정입니다.
type HTTPRateLimitConfig struct {
	RequestsPerMinute int
	CacheSize         int
	CacheTTLSeconds   int
}

// DatabaseConfig: 토큰 사용량 집계 DB 설정입니다.
type DatabaseConfig struct {
	Host                           string
	Port                           int
	Name                           string
	User                           string
	Password                       string
	MinPool                        int
	MaxPool                        int
	ConnMaxLifetimeMinutes         int
	ConnMaxIdleTimeMinutes         int
	UsageBatchEnabled              bool
	UsageBatchFlushIntervalSeconds int
	UsageBatchFlushTimeoutSeconds  int
	UsageBatchMaxPendingRequests   int
	UsageBatchMaxBackoffSeconds    int
}

// DSN: DB 접속 문자열을 반환합니다.
func (d DatabaseConfig) DSN() string {
	host := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	u := &url.URL{
		Scheme: "postgresql",
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.Password == "" {
		u.User = url.User(d.User)
	} else {
		u.User = url.UserPassword(d.User, d.Password)
	}
	return u.String()
}

// Config: 애플리케이션 전체 설정입니다.
type Config struct {
	Model         ModelConfig
	Classify      ClassifyConfig
	Optimizer     OptimizerConfig
	CacheStore    CacheStoreConfig
	Session       SessionConfig
	Logging       LoggingConfig
	HTTP          HTTPConfig
	HTTPAuth      HTTPAuthConfig
	HTTPRateLimit HTTPRateLimitConfig
	Database      DatabaseConfig
}
