package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/moviebot/internal/handler"
	"github.com/user/moviebot/internal/middleware"
	"go.uber.org/zap"
)

// NewEngine 创建挂好中间件与路由的 Gin 引擎
func NewEngine(h *handler.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))

	// Webhook 回显的 challenge 必须原样返回；/metrics 由 promhttp 自行压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/webhook", "/metrics"})))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WhatsApp Webhook ====================
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)
}
