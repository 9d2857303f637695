package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/health"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
)

// ModelConfigResponse: 모델 설정 응답입니다.
type ModelConfigResponse struct {
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	MaxRetries     int     `json:"max_retries"`
	FallbackOnly   bool    `json:"fallback_only"`
	HTTP2Enabled   bool    `json:"http2_enabled"`
	TransportMode  string  `json:"transport_mode"`
}

// RegisterHealthRoutes: 상태 확인 라우트를 등록합니다.
func RegisterHealthRoutes(router *gin.Engine, cfg *config.Config, store kvstore.Store) {
	router.GET("/health", func(c *gin.Context) {
		// Liveness: 외부 의존성 상태로 다운 판정되지 않도록 shallow 로 유지합니다.
		payload := health.Collect(c.Request.Context(), cfg, store, false)
		c.JSON(http.StatusOK, payload)
	})

	router.GET("/health/ready", func(c *gin.Context) {
		payload := health.Collect(c.Request.Context(), cfg, store, true)
		status := http.StatusOK
		if payload.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, payload)
	})

	// Prometheus 메트릭 (장기 히스토리 분석용)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health/model", func(c *gin.Context) {
		transportMode := "h1"
		if cfg.HTTP.HTTP2Enabled {
			transportMode = "h2c"
		}

		c.JSON(http.StatusOK, ModelConfigResponse{
			Model:          cfg.Model.Version(),
			Temperature:    cfg.Model.Temperature,
			TopP:           cfg.Model.TopP,
			MaxNewTokens:   cfg.Model.MaxNewTokens,
			TimeoutSeconds: cfg.Model.TimeoutSeconds,
			MaxRetries:     cfg.Model.MaxRetries,
			FallbackOnly:   cfg.Model.FallbackOnly(),
			HTTP2Enabled:   cfg.HTTP.HTTP2Enabled,
			TransportMode:  transportMode,
		})
	})
}
