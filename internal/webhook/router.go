// Package webhook is the HTTP surface: the messaging provider webhook and
// the reviewer API.
package webhook

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/logger"
)

type RouterConfig struct {
	Inbound    *InboundHandler
	Admin      *AdminHandler
	AdminToken string
	Logger     *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := logger.WithFields(cfg.Logger).Named("http")

	router := gin.New()
	router.Use(RequestLogger(log), Recovery(log))

	router.GET("/health", Health)

	if cfg.Inbound != nil {
		router.GET("/webhook", cfg.Inbound.Status)
		router.POST("/webhook", cfg.Inbound.Receive)
		router.POST("/callbacks/status", cfg.Inbound.DeliveryStatus)
	}

	if cfg.Admin != nil {
		if cfg.AdminToken == "" {
			log.Warn("admin routes are not protected, set server.admin-token")
		}
		admin := router.Group("/admin")
		admin.Use(AdminAuth(cfg.AdminToken))
		{
			admin.GET("/stats", cfg.Admin.Stats)
			admin.GET("/candidates", cfg.Admin.List)
			admin.GET("/candidates/:id", cfg.Admin.Get)
			admin.POST("/candidates/:id/status", cfg.Admin.SetStatus)
			admin.POST("/candidates/:id/reset", cfg.Admin.Reset)
			admin.POST("/candidates/:id/rescore", cfg.Admin.Rescore)
		}
	}

	return router
}
