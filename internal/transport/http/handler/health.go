package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gopherai-training/internal/bootstrap"
	"gopherai-training/internal/transport/http/middleware"
	"gopherai-training/internal/transport/http/response"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	Enabled bool   `json:"enabled"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports process health. Optional infrastructure being down degrades the report but
// never the status code: the in-process store keeps serving.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response.OK(c, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"store":      h.app.Store.Stats(),
		"knowledge": gin.H{
			"maxChunkChars": h.app.Store.MaxChunkChars(),
			"sourceArchive": h.app.Knowledge.HasArchive(),
			"llmProvider":   h.app.Gateway.ProviderName(),
		},
		"dependencies": gin.H{
			"mysql":    h.checkMySQL(ctx),
			"redis":    h.checkRedis(ctx),
			"rabbitmq": h.checkRabbitMQ(),
		},
	})
}

// Provider probes the configured AI provider. The response is 200 with available=false when
// the provider is down, unless strict=true asks for 503.
func (h *HealthHandler) Provider(c *gin.Context) {
	health := h.app.Gateway.CheckHealth(c.Request.Context())

	fields := gin.H{
		"available": health.Available,
		"provider":  health.Provider,
		"model":     health.Model,
	}
	if health.Error != "" {
		fields["error"] = health.Error
	}
	if role := middleware.Role(c); role != "" {
		fields["role"] = role
	}

	strict, _ := strconv.ParseBool(c.Query("strict"))
	if !health.Available && strict {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"error":     "ai provider unavailable: " + health.Error,
			"available": false,
			"provider":  health.Provider,
			"model":     health.Model,
		})
		return
	}
	response.OK(c, fields)
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	if h.app.MySQL == nil {
		return dependencyStatus{Enabled: h.app.Config.MySQL.Enabled, Message: "not connected"}
	}
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{Enabled: true, OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{Enabled: h.app.Config.Redis.Enabled, Message: "not connected"}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{Enabled: true, Message: err.Error()}
	}
	return dependencyStatus{Enabled: true, OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil {
		return dependencyStatus{Enabled: h.app.Config.RabbitMQ.Enabled, Message: "not connected"}
	}
	if h.app.MQConn.IsClosed() {
		return dependencyStatus{Enabled: true, Message: "connection closed"}
	}
	return dependencyStatus{Enabled: true, OK: true}
}
