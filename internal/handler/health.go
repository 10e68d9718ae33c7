package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"citron/internal/config"
	"citron/internal/pkg/cache"
	"citron/internal/pkg/mongodb"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	cfg   *config.Config
	mongo *mongodb.Client
	redis *cache.RedisCache
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config, mongo *mongodb.Client, redis *cache.RedisCache) *HealthHandler {
	return &HealthHandler{cfg: cfg, mongo: mongo, redis: redis}
}

// Health 健康检查
// @Summary      健康检查
// @Description  检查 API 与各外部服务的配置和连接状态
// @Tags         系统
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	services := gin.H{
		"openai": configured(h.cfg.AI.OpenAI.APIKey),
		"gemini": configured(h.cfg.AI.Gemini.APIKey),
		"mail":   configured(h.cfg.Mail.Host),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.mongo != nil {
		if err := h.mongo.Ping(ctx); err != nil {
			services["mongo"] = "down"
		} else {
			services["mongo"] = "up"
		}
	} else {
		services["mongo"] = "disabled"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "down"
		} else {
			services["redis"] = "up"
		}
	} else {
		services["redis"] = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"services": services,
	})
}

// Ready 就绪检查
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

func configured(value string) string {
	if value == "" {
		return "misconfigured"
	}
	return "healthy"
}
