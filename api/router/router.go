package router

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rfq-match/api/handler"
	"rfq-match/api/response"
)

// New gin 引擎 + 访问日志 + panic 恢复
func New(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(log), Logger(log))
	return r
}

func RegisterRoutes(r *gin.Engine, h *handler.MatchHandler) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")
	{
		api.POST("/documents", h.ClassifyDocument)
		api.POST("/suggestions", h.Suggest)
		api.GET("/matches/:documentId", h.GetMatches)
		api.POST("/feedback", h.SubmitFeedback)
		api.PUT("/suppliers/:id", h.UpsertSupplier)
	}
}

func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request error", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				response.FailWithStatus(c, http.StatusInternalServerError, "internal error")
			}
		}()
		c.Next()
	}
}
