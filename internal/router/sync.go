package router

import (
	"strconv"

	"otx2crits/internal/app"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncHandler 负责处理同步相关的 HTTP 请求。
type SyncHandler struct {
	service    *app.Service
	maxAgeDays int
	logger     *zap.Logger
}

// NewSyncHandler 构建一个新的 SyncHandler，maxAgeDays 为配置的缺省时间上限。
func NewSyncHandler(service *app.Service, maxAgeDays int, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{service: service, maxAgeDays: maxAgeDays, logger: logger}
}

// RegisterRoutes 将同步路由注册到给定的路由组。
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/run", h.handleRun)
	rg.GET("/last", h.handleLast)
}

// handleRun 立即触发一次同步。max_age_days 缺省时用配置值，0 表示不限。
func (h *SyncHandler) handleRun(c *gin.Context) {
	maxAgeDays := h.maxAgeDays
	if raw := c.Query("max_age_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			c.JSON(400, gin.H{"error": "invalid max_age_days"})
			return
		}
		maxAgeDays = days
	}

	summary, err := h.service.SyncWithMaxAge(c.Request.Context(), maxAgeDays)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("sync run failed", zap.Error(err))
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"summary": summary})
}

// handleLast 返回最近一次运行的汇总。
func (h *SyncHandler) handleLast(c *gin.Context) {
	last := h.service.LastSummary()
	if last == nil {
		c.JSON(404, gin.H{"error": "no sync has run yet"})
		return
	}
	c.JSON(200, gin.H{"summary": last})
}
