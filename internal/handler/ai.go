package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
	"github.com/cheonmabigo/fintext-nlu-go/internal/httperror"
	"github.com/cheonmabigo/fintext-nlu-go/internal/optimizer"
	"github.com/cheonmabigo/fintext-nlu-go/internal/pipeline"
)

const defaultSimilarThreshold = 0.3

// ProcessRequest 는 메시지 처리 요청 본문이다.
type ProcessRequest struct {
	Message     string               `json:"message" binding:"required"`
	SessionID   string               `json:"session_id"`
	UserContext *fintext.UserContext `json:"user_context"`
}

// ClassifyRequest 는 분류 전용 요청 본문이다.
type ClassifyRequest struct {
	Message string `json:"message" binding:"required"`
	Multi   bool   `json:"multi"`
}

// ClassifySegment 는 다중 의도 분류 결과 한 조각이다.
type ClassifySegment struct {
	Text       string         `json:"text"`
	Intent     fintext.Intent `json:"intent"`
	Confidence float64        `json:"confidence"`
}

// ClassifyResponse 는 분류 전용 응답 본문이다.
// 모델 왕복 전에 클라이언트가 입력 폼을 미리 채우는 용도로 쓰인다.
type ClassifyResponse struct {
	Intent      fintext.Intent                `json:"intent"`
	Confidence  float64                       `json:"confidence"`
	Features    []string                      `json:"features,omitempty"`
	Transaction *fintext.ExtractedTransaction `json:"transaction,omitempty"`
	Segments    []ClassifySegment             `json:"segments,omitempty"`
}

// SimilarResponse 는 유사 캐시 조회 응답 본문이다.
type SimilarResponse struct {
	Query   string                   `json:"query"`
	Matches []optimizer.SimilarMatch `json:"matches"`
	Count   int                      `json:"count"`
}

// AIHandler 는 금융 텍스트 처리 API 핸들러다.
type AIHandler struct {
	cfg       *config.Config
	processor *pipeline.Processor
	optimizer *optimizer.Optimizer
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewAIHandler 는 AI 핸들러를 생성한다.
func NewAIHandler(
	cfg *config.Config,
	processor *pipeline.Processor,
	opt *optimizer.Optimizer,
	extractor *extract.Extractor,
	logger *slog.Logger,
) *AIHandler {
	return &AIHandler{
		cfg:       cfg,
		processor: processor,
		optimizer: opt,
		extractor: extractor,
		logger:    logger,
	}
}

// RegisterRoutes 는 AI 라우트를 등록한다.
func (h *AIHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/ai")
	group.POST("/process", h.handleProcess)
	group.POST("/classify", h.handleClassify)
	group.GET("/metrics", h.handleMetrics)
	group.GET("/cache/similar", h.handleSimilar)
	group.DELETE("/cache", h.handleCacheClear)
}

func (h *AIHandler) handleProcess(c *gin.Context) {
	var req ProcessRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.processor.ProcessMessage(c.Request.Context(), req.Message, req.UserContext, req.SessionID)
	if err != nil {
		h.logError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AIHandler) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}

	result := h.processor.Classify(req.Message)
	response := ClassifyResponse{
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Features:   result.Features,
	}

	if result.Intent == fintext.IntentTransactionRecord {
		if tx, ok := h.extractor.Transaction(req.Message, result.Confidence, time.Now()); ok {
			response.Transaction = tx
		}
	}

	if req.Multi {
		segments := h.processor.ClassifyMulti(req.Message)
		response.Segments = make([]ClassifySegment, 0, len(segments))
		for _, seg := range segments {
			response.Segments = append(response.Segments, ClassifySegment{
				Text:       seg.Text,
				Intent:     seg.Intent,
				Confidence: seg.Confidence,
			})
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *AIHandler) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.optimizer.Metrics())
}

func (h *AIHandler) handleSimilar(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		writeError(c, httperror.NewMissingField("q"))
		return
	}

	threshold := defaultSimilarThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			writeError(c, httperror.NewInvalidInput("threshold must be a number in [0,1]"))
			return
		}
		threshold = parsed
	}

	matches := h.optimizer.FindSimilar(query, threshold)
	c.JSON(http.StatusOK, SimilarResponse{
		Query:   query,
		Matches: matches,
		Count:   len(matches),
	})
}

func (h *AIHandler) handleCacheClear(c *gin.Context) {
	h.optimizer.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

func (h *AIHandler) logError(err error) {
	if err == nil {
		return
	}
	h.logger.Warn("ai_request_failed", "err", err)
}
