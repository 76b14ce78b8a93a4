package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"polly-backend/database"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SystemInfo contains basic system metrics and information
type SystemInfo struct {
	Status       string           `json:"status"`
	Version      string           `json:"version"`
	Uptime       string           `json:"uptime"`
	StartTime    time.Time        `json:"start_time"`
	CurrentTime  time.Time        `json:"current_time"`
	GoVersion    string           `json:"go_version"`
	NumGoroutine int              `json:"num_goroutine"`
	NumCPU       int              `json:"num_cpu"`
	DBStatus     string           `json:"db_status"`
	RedisStatus  string           `json:"redis_status"`
	WSClients    int              `json:"ws_clients"`
	RateLimiter  RateLimiterStats `json:"rate_limiter"`
}

var (
	startTime = time.Now()
	version   = "0.1.0"
)

// ClientCounter reports connected realtime clients
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler serves liveness and status endpoints
type HealthHandler struct {
	db      *gorm.DB
	redis   redis.UniversalClient
	clients ClientCounter
	limiter *RateLimiter
}

// NewHealthHandler creates a health handler. redis, clients and limiter may be nil.
func NewHealthHandler(db *gorm.DB, rdb redis.UniversalClient, clients ClientCounter, limiter *RateLimiter) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, clients: clients, limiter: limiter}
}

// RegisterRoutes adds /health and /status to group
func (h *HealthHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/health", h.HealthCheck)
	group.GET("/status", h.SystemStatus)
}

// HealthCheck is a basic liveness probe
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SystemStatus reports the state of the process and its backing services
func (h *HealthHandler) SystemStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"

	dbStatus := "ok"
	if err := database.Ping(h.db.WithContext(ctx)); err != nil {
		dbStatus = "error"
		status = "degraded"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
			status = "degraded"
		}
	}

	info := SystemInfo{
		Status:       status,
		Version:      version,
		Uptime:       time.Since(startTime).String(),
		StartTime:    startTime,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		DBStatus:     dbStatus,
		RedisStatus:  redisStatus,
	}
	if h.clients != nil {
		info.WSClients = h.clients.ClientCount()
	}
	if h.limiter != nil {
		info.RateLimiter = h.limiter.Stats()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, info)
}
