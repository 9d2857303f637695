package health

import (
	"context"
	"time"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
)

var startTime = time.Now()

// Component 는 상태 구성 요소다.
type Component struct {
	Status string         `json:"status"`
	Detail map[string]any `json:"detail"`
}

// Response 는 상태 응답 본문이다.
type Response struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Collect 는 헬스 상태를 수집한다.
// deepChecks 가 참이면 캐시 저장소 연결까지 확인한다.
func Collect(ctx context.Context, cfg *config.Config, store kvstore.Store, deepChecks bool) Response {
	components := make(map[string]Component)
	components["app"] = buildAppStatus()
	components["cache_store"] = buildCacheStoreStatus(ctx, cfg, store, deepChecks)
	components["model"] = buildModelStatus(cfg)

	overall := "ok"
	for _, component := range components {
		if component.Status != "ok" {
			overall = "degraded"
			break
		}
	}

	return Response{
		Status:     overall,
		Components: components,
	}
}

func buildAppStatus() Component {
	return Component{
		Status: "ok",
		Detail: map[string]any{
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		},
	}
}

func buildModelStatus(cfg *config.Config) Component {
	apiKeyPresent := false
	modelName := ""
	timeoutSeconds := 0
	maxRetries := 0

	if cfg != nil {
		apiKeyPresent = !cfg.Model.FallbackOnly()
		modelName = cfg.Model.Version()
		timeoutSeconds = cfg.Model.TimeoutSeconds
		maxRetries = cfg.Model.MaxRetries
	}

	// 키가 없어도 패턴 폴백으로 응답은 가능하므로 다운이 아니라 degraded 다.
	status := "ok"
	if !apiKeyPresent {
		status = "degraded"
	}

	return Component{
		Status: status,
		Detail: map[string]any{
			"api_key_present": apiKeyPresent,
			"model":           modelName,
			"timeout_seconds": timeoutSeconds,
			"max_retries":     maxRetries,
			"fallback_only":   !apiKeyPresent,
		},
	}
}

func buildCacheStoreStatus(ctx context.Context, cfg *config.Config, store kvstore.Store, deepChecks bool) Component {
	storeEnabled := false
	storeURL := ""
	if cfg != nil {
		storeEnabled = cfg.CacheStore.Enabled
		storeURL = cfg.CacheStore.URL
	}
	if ctx == nil {
		ctx = context.Background()
	}

	connected := false
	var pingErr string
	if deepChecks && store != nil {
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := store.Ping(checkCtx); err != nil {
			pingErr = err.Error()
		} else {
			connected = true
		}
	}

	status := "ok"
	if deepChecks && storeEnabled && !connected {
		status = "degraded"
	}

	detail := map[string]any{
		"store_enabled":   storeEnabled,
		"store_connected": connected,
		"store_url":       storeURL,
		"deep_checked":    deepChecks,
	}
	if pingErr != "" {
		detail["ping_error"] = pingErr
	}

	return Component{
		Status: status,
		Detail: detail,
	}
}
