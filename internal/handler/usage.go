package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cheonmabigo/fintext-nlu-go/internal/httperror"
	"github.com/cheonmabigo/fintext-nlu-go/internal/usage"
)

// DailyUsageResponse: 일자별 사용량 응답입니다.
type DailyUsageResponse struct {
	UsageDate     string  `json:"usage_date"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	TotalTokens   int64   `json:"total_tokens"`
	RequestCount  int64   `json:"request_count"`
	FallbackCount int64   `json:"fallback_count"`
	FallbackRate  float64 `json:"fallback_rate"`
}

// UsageListResponse: 사용량 목록 응답입니다.
type UsageListResponse struct {
	Usages            []DailyUsageResponse `json:"usages"`
	TotalInputTokens  int64                `json:"total_input_tokens"`
	TotalOutputTokens int64                `json:"total_output_tokens"`
	TotalTokens       int64                `json:"total_tokens"`
	TotalRequestCount int64                `json:"total_request_count"`
}

// UsageTotalResponse: 기간 합산 사용량 응답입니다.
type UsageTotalResponse struct {
	Days          int     `json:"days"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	TotalTokens   int64   `json:"total_tokens"`
	RequestCount  int64   `json:"request_count"`
	FallbackCount int64   `json:"fallback_count"`
	FallbackRate  float64 `json:"fallback_rate"`
}

// UsageHandler: 토큰 사용량 API 핸들러입니다.
type UsageHandler struct {
	repo   *usage.Repository
	logger *slog.Logger
}

// NewUsageHandler: 사용량 핸들러를 생성합니다.
func NewUsageHandler(repo *usage.Repository, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{repo: repo, logger: logger}
}

// RegisterRoutes: 사용량 라우트를 등록합니다.
func (h *UsageHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/ai/usage")
	group.GET("", h.handleRecent)
	group.GET("/daily", h.handleDaily)
	group.GET("/total", h.handleTotal)
}

func (h *UsageHandler) handleDaily(c *gin.Context) {
	if h.repo == nil {
		writeError(c, httperror.NewInternalError("usage repository not configured"))
		return
	}

	usageRow, err := h.repo.GetDailyUsage(c.Request.Context(), time.Time{})
	if err != nil {
		h.logError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildDailyResponse(usageRow))
}

func (h *UsageHandler) handleRecent(c *gin.Context) {
	if h.repo == nil {
		writeError(c, httperror.NewInternalError("usage repository not configured"))
		return
	}

	days, ok := parseDays(c, 7)
	if !ok {
		return
	}

	usages, err := h.repo.GetRecentUsage(c.Request.Context(), days)
	if err != nil {
		h.logError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildUsageListResponse(usages))
}

func (h *UsageHandler) handleTotal(c *gin.Context) {
	if h.repo == nil {
		writeError(c, httperror.NewInternalError("usage repository not configured"))
		return
	}

	days, ok := parseDays(c, 30)
	if !ok {
		return
	}

	usages, err := h.repo.GetRecentUsage(c.Request.Context(), days)
	if err != nil {
		h.logError(err)
		writeError(c, err)
		return
	}

	total := UsageTotalResponse{Days: days}
	for _, row := range usages {
		total.InputTokens += row.InputTokens
		total.OutputTokens += row.OutputTokens
		total.TotalTokens += row.TotalTokens()
		total.RequestCount += row.RequestCount
		total.FallbackCount += row.FallbackCount
	}
	if total.RequestCount > 0 {
		total.FallbackRate = float64(total.FallbackCount) / float64(total.RequestCount)
	}

	c.JSON(http.StatusOK, total)
}

func buildDailyResponse(usageRow *usage.DailyUsage) DailyUsageResponse {
	if usageRow == nil {
		return DailyUsageResponse{
			UsageDate: time.Now().Format("2006-01-02"),
		}
	}

	return DailyUsageResponse{
		UsageDate:     usageRow.UsageDate.Format("2006-01-02"),
		InputTokens:   usageRow.InputTokens,
		OutputTokens:  usageRow.OutputTokens,
		TotalTokens:   usageRow.TotalTokens(),
		RequestCount:  usageRow.RequestCount,
		FallbackCount: usageRow.FallbackCount,
		FallbackRate:  usageRow.FallbackRate(),
	}
}

func buildUsageListResponse(usages []usage.DailyUsage) UsageListResponse {
	response := UsageListResponse{
		Usages: make([]DailyUsageResponse, 0, len(usages)),
	}

	for _, row := range usages {
		response.Usages = append(response.Usages, DailyUsageResponse{
			UsageDate:     row.UsageDate.Format("2006-01-02"),
			InputTokens:   row.InputTokens,
			OutputTokens:  row.OutputTokens,
			TotalTokens:   row.TotalTokens(),
			RequestCount:  row.RequestCount,
			FallbackCount: row.FallbackCount,
			FallbackRate:  row.FallbackRate(),
		})
		response.TotalInputTokens += row.InputTokens
		response.TotalOutputTokens += row.OutputTokens
		response.TotalTokens += row.TotalTokens()
		response.TotalRequestCount += row.RequestCount
	}

	return response
}

func parseDays(c *gin.Context, defaultDays int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return defaultDays, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		writeError(c, httperror.NewInvalidInput("days must be a positive integer"))
		return 0, false
	}
	return parsed, true
}

func (h *UsageHandler) logError(err error) {
	if err == nil {
		return
	}
	h.logger.Warn("usage_request_failed", "err", err)
}
