package rag_http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"news-rag-chat/internal/domain"
	"news-rag-chat/internal/usecase"
)

// retryAfterSeconds is advertised while the corpus or a model warms up.
const retryAfterSeconds = 5

// CorpusStatus reports whether the corpus index can answer queries.
type CorpusStatus interface {
	Ready() bool
	Size() int
}

type Handler struct {
	chat     usecase.ChatUsecase
	sessions usecase.SessionUsecase
	corpus   CorpusStatus
	logger   *slog.Logger
}

func NewHandler(chat usecase.ChatUsecase, sessions usecase.SessionUsecase, corpus CorpusStatus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chat:     chat,
		sessions: sessions,
		corpus:   corpus,
		logger:   logger,
	}
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply   string        `json:"reply"`
	History []domain.Turn `json:"history"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

type readinessResponse struct {
	Status      string `json:"status"`
	CorpusReady bool   `json:"corpus_ready"`
	CorpusSize  int    `json:"corpus_size"`
	Store       string `json:"store"`
}

// CreateSession allocates a new session id.
// (POST /session)
func (h *Handler) CreateSession(c echo.Context) error {
	id, err := h.sessions.Create(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponse{SessionID: id})
}

// Chat answers one message and returns the full session history.
// (POST /chat)
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	out, err := h.chat.Execute(c.Request().Context(), usecase.ChatInput{
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, chatResponse{Reply: out.Reply, History: out.History})
}

// GetHistory returns the ordered turns of a session, possibly empty.
// (GET /history/:sessionId)
func (h *Handler) GetHistory(c echo.Context) error {
	history, err := h.sessions.History(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

// DeleteSession removes a session.
// (DELETE /session/:sessionId)
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Request().Context(), c.Param("sessionId")); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// (GET /healthz)
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is ready once the corpus is indexed and the session store answers.
// (GET /readyz)
func (h *Handler) Readyz(c echo.Context) error {
	resp := readinessResponse{
		Status:      "ready",
		CorpusReady: h.corpus.Ready(),
		CorpusSize:  h.corpus.Size(),
		Store:       "ok",
	}
	if err := h.sessions.Ping(c.Request().Context()); err != nil {
		h.logger.WarnContext(c.Request().Context(), "readiness_store_down", slog.String("error", err.Error()))
		resp.Store = "down"
	}
	if !resp.CorpusReady || resp.Store != "ok" {
		resp.Status = "not ready"
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// respondError maps domain errors to status codes with generic messages.
// Details are logged by the usecase layer, never returned.
func (h *Handler) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sessionId and a non-empty message within the length limit are required"})
	case errors.Is(err, domain.ErrNotReady):
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "service is warming up, please retry shortly"})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	default:
		h.logger.ErrorContext(c.Request().Context(), "request_failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
