package rag_http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the chat API. limiter may be nil.
func RegisterRoutes(e *echo.Echo, h *Handler, limiter *RateLimiter) {
	var limited []echo.MiddlewareFunc
	if limiter != nil {
		limited = append(limited, limiter.Middleware())
	}

	e.POST("/session", h.CreateSession, limited...)
	e.POST("/chat", h.Chat, limited...)
	e.GET("/history/:sessionId", h.GetHistory)
	e.DELETE("/session/:sessionId", h.DeleteSession)

	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
