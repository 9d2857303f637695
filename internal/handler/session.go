package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cheonmabigo/fintext-nlu-go/internal/httperror"
	"github.com/cheonmabigo/fintext-nlu-go/internal/llm"
	"github.com/cheonmabigo/fintext-nlu-go/internal/session"
)

// SessionInfoResponse 는 세션 정보 응답 본문이다.
type SessionInfoResponse struct {
	Session *session.Info      `json:"session"`
	History []llm.HistoryEntry `json:"history,omitempty"`
}

// SessionHandler 세션 HTTP 핸들러
type SessionHandler struct {
	store  *session.Store
	logger *slog.Logger
}

// NewSessionHandler 세션 핸들러 생성
func NewSessionHandler(store *session.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes 세션 라우트 등록
func (h *SessionHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/sessions")
	group.POST("", h.handleCreate)
	group.GET("/:id", h.handleGet)
	group.GET("/:id/history", h.handleHistory)
	group.DELETE("/:id", h.handleDelete)
}

// handleCreate 세션 생성
func (h *SessionHandler) handleCreate(c *gin.Context) {
	info, err := h.store.Create(c.Request.Context())
	if err != nil {
		h.logError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, info)
}

// handleGet 세션 정보 조회
func (h *SessionHandler) handleGet(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		writeError(c, httperror.NewMissingField("id"))
		return
	}

	info, err := h.store.Describe(c.Request.Context(), sessionID)
	if err != nil {
		h.writeSessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// handleHistory 세션 히스토리 조회
func (h *SessionHandler) handleHistory(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		writeError(c, httperror.NewMissingField("id"))
		return
	}

	info, err := h.store.Describe(c.Request.Context(), sessionID)
	if err != nil {
		h.writeSessionError(c, sessionID, err)
		return
	}

	history, err := h.store.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		h.writeSessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, SessionInfoResponse{Session: info, History: history})
}

// handleDelete 세션 삭제
func (h *SessionHandler) handleDelete(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		writeError(c, httperror.NewMissingField("id"))
		return
	}

	if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
		h.writeSessionError(c, sessionID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session deleted", "id": sessionID})
}

func (h *SessionHandler) writeSessionError(c *gin.Context, sessionID string, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(c, httperror.NewSessionNotFound(sessionID))
		return
	}
	h.logError(err)
	writeError(c, err)
}

func (h *SessionHandler) logError(err error) {
	if err == nil {
		return
	}
	h.logger.Warn("session_request_failed", "err", err)
}
