package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joho/godotenv"
)

var (
	configOnce  sync.Once
	configValue *Config
)

// Load 는 환경 변수 기반 설정을 로드한다.
func Load() *Config {
	configOnce.Do(func() {
		_ = godotenv.Load()
		configValue = buildConfig()
	})
	return configValue
}

// ProvideConfig 는 설정을 로드하고 검증한다.
func ProvideConfig() (*Config, error) {
	cfg := Load()
	if cfg == nil {
		return nil, errors.New("config not initialized")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 는 설정 유효성을 검사한다.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model temperature out of range [0,2]: %v", c.Model.Temperature)
	}
	if c.Model.MaxNewTokens <= 0 {
		return fmt.Errorf("model max new tokens must be positive: %d", c.Model.MaxNewTokens)
	}
	if c.Optimizer.MaxCacheSize <= 0 {
		return fmt.Errorf("optimizer cache size must be positive: %d", c.Optimizer.MaxCacheSize)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}
	return nil
}

// LogEnvStatus 는 환경 설정 상태를 로그로 남긴다.
func LogEnvStatus(cfg *Config, logger *slog.Logger) {
	if logger == nil || cfg == nil {
		return
	}

	envFilePresent := fileExists(".env")
	logger.Debug(
		"env_status",
		"env_file", envFilePresent,
		"model_api_url", cfg.Model.APIURL,
		"model_api_key", maskSecret(cfg.Model.APIKey),
		"model", cfg.Model.ModelName,
		"timeout", cfg.Model.TimeoutSeconds,
		"cache_store_url", cfg.CacheStore.URL,
		"db_host", cfg.Database.Host,
		"db_name", cfg.Database.Name,
		"session_ttl", cfg.Session.SessionTTLMinutes,
		"history_pairs", cfg.Session.HistoryMaxPairs,
	)

	if cfg.Model.FallbackOnly() {
		logger.Warn("env_missing_model_api_key_pattern_fallback_only")
	}
}

func buildConfig() *Config {
	return &Config{
		Model: ModelConfig{
			APIURL:            getEnvString("EXAONE_API_URL", "https://api-inference.huggingface.co/models/LGAI-EXAONE/EXAONE-3.5-7.8B-Instruct"),
			APIKey:            getEnvString("EXAONE_API_KEY", ""),
			ModelName:         getEnvString("EXAONE_MODEL", "exaone-3.5-7.8b-instruct"),
			SystemPrompt:      getEnvString("EXAONE_SYSTEM_PROMPT", ""),
			MaxNewTokens:      getEnvInt("EXAONE_MAX_NEW_TOKENS", 512),
			Temperature:       getEnvFloat("EXAONE_TEMPERATURE", 0.7),
			TopP:              getEnvFloat("EXAONE_TOP_P", 0.9),
			RepetitionPenalty: getEnvFloat("EXAONE_REPETITION_PENALTY", 1.2),
			ContextWindow:     getEnvInt("EXAONE_CONTEXT_WINDOW", 4096),
			TimeoutSeconds:    getEnvInt("EXAONE_TIMEOUT", 60),
			MaxRetries:        max(1, getEnvInt("EXAONE_MAX_RETRIES", 3)),
		},
		Classify: ClassifyConfig{
			CacheMaxSize:             getEnvInt("CLASSIFY_CACHE_SIZE", 10000),
			CacheTTLSeconds:          getEnvInt("CLASSIFY_CACHE_TTL", 3600),
			MultiIntentMinConfidence: getEnvFloat("CLASSIFY_MULTI_INTENT_MIN_CONFIDENCE", 0.3),
		},
		Optimizer: OptimizerConfig{
			MaxCacheSize:         getEnvInt("AI_CACHE_MAX_SIZE", 100),
			SweepIntervalMinutes: max(1, getEnvInt("AI_CACHE_SWEEP_INTERVAL_MINUTES", 60)),
			BatchSize:            max(1, getEnvInt("AI_BATCH_SIZE", 3)),
			BatchDelayMillis:     max(1, getEnvInt("AI_BATCH_DELAY_MS", 1000)),
			PersistEnabled:       getEnvBool("AI_CACHE_PERSIST_ENABLED", true),
		},
		CacheStore: CacheStoreConfig{
			URL:          getEnvString("CACHE_STORE_URL", "redis://localhost:6379"),
			Enabled:      getEnvBool("CACHE_STORE_ENABLED", true),
			Required:     getEnvBool("CACHE_STORE_REQUIRED", false),
			DisableCache: getEnvBool("CACHE_STORE_DISABLE_CACHE", false),
		},
		Session: SessionConfig{
			MaxSessions:       getEnvInt("MAX_SESSIONS", 50),
			SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 1440),
			HistoryMaxPairs:   getEnvNonNegativeInt("SESSION_HISTORY_MAX_PAIRS", 10),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			LogDir:     getEnvString("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_FILE_MAX_SIZE_MB", 1),
			MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 30),
			MaxAgeDays: getEnvInt("LOG_FILE_MAX_AGE_DAYS", 7),
			Compress:   getEnvBool("LOG_FILE_COMPRESS", true),
		},
		HTTP: HTTPConfig{
			Host:         getEnvString("HTTP_HOST", "127.0.0.1"),
			Port:         getEnvInt("HTTP_PORT", 40831),
			HTTP2Enabled: getEnvBool("HTTP2_ENABLED", true),
		},
		HTTPAuth: HTTPAuthConfig{
			APIKey: getEnvString("HTTP_API_KEY", ""),
		},
		HTTPRateLimit: HTTPRateLimitConfig{
			RequestsPerMinute: getEnvNonNegativeInt("HTTP_RATE_LIMIT_RPM", 0),
			CacheSize:         max(1, getEnvNonNegativeInt("HTTP_RATE_LIMIT_CACHE_SIZE", 10000)),
			CacheTTLSeconds:   max(1, getEnvNonNegativeInt("HTTP_RATE_LIMIT_CACHE_TTL_SECONDS", 120)),
		},
		Database: DatabaseConfig{
			Host:                           getEnvString("DB_HOST", "localhost"),
			Port:                           getEnvInt("DB_PORT", 5432),
			Name:                           getEnvString("DB_NAME", "fintext"),
			User:                           getEnvString("DB_USER", "fintext"),
			Password:                       getEnvString("DB_PASSWORD", ""),
			MinPool:                        getEnvInt("DB_MIN_POOL", 1),
			MaxPool:                        getEnvInt("DB_MAX_POOL", 5),
			ConnMaxLifetimeMinutes:         getEnvNonNegativeInt("DB_CONN_MAX_LIFETIME_MINUTES", 60),
			ConnMaxIdleTimeMinutes:         getEnvNonNegativeInt("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
			UsageBatchEnabled:              getEnvBool("DB_USAGE_BATCH_ENABLED", false),
			UsageBatchFlushIntervalSeconds: max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_FLUSH_INTERVAL_SECONDS", 1)),
			UsageBatchFlushTimeoutSeconds:  max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_FLUSH_TIMEOUT_SECONDS", 5)),
			UsageBatchMaxPendingRequests:   max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_MAX_PENDING_REQUESTS", 50)),
			UsageBatchMaxBackoffSeconds:    getEnvNonNegativeInt("DB_USAGE_BATCH_MAX_BACKOFF_SECONDS", 60),
		},
	}
}
