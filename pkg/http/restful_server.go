package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"structhealth/pkg/metrics"
	"structhealth/pkg/shm"
)

const DefaultRequestTimeout = 5 * time.Second

type RestfulServer struct {
	Server           *gin.Engine
	Shm              *shm.SHM
	RateLimiterStore *shm.RateLimiterStore
	RequestTimeout   time.Duration
}

func (rs *RestfulServer) GetLimiter(sensorID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(sensorID)
	}
}

func (rs *RestfulServer) CheckSensorLimiter(sensorID string) bool {
	limiter := rs.GetLimiter(sensorID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(sensorID string, sensorRate float64, sensorBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(sensorID, rate.Limit(sensorRate), sensorBurst)
}

// opContext bounds every core call so a stuck storage operation surfaces as
// Unavailable instead of hanging the request.
func (rs *RestfulServer) opContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := rs.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// RequireUser pulls the caller identity set by the upstream auth middleware.
// Alert mutations are attributed to this identity.
func (rs *RestfulServer) RequireUser(c *gin.Context) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	c.Set("user_id", userID)
	c.Next()
}

func (rs *RestfulServer) CountRequests(c *gin.Context) {
	c.Next()
	metrics.HTTPRequestsTotal.WithLabelValues(
		c.Request.Method,
		c.FullPath(),
		strconv.Itoa(c.Writer.Status()),
	).Inc()
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(rs.CountRequests)

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sensors := rs.Server.Group("/sensors/:sensor_id")
	{
		sensors.PUT("", rs.PutSensor)
		sensors.POST("/readings", rs.PostReading)
		sensors.GET("/readings", rs.GetReadings)
		sensors.GET("/alerts", rs.GetSensorAlerts)
		sensors.POST("/limiter", rs.PostLimiter)
	}

	alerts := rs.Server.Group("/alerts")
	{
		alerts.GET("", rs.GetAlerts)

		mutations := alerts.Group("", rs.RequireUser)
		mutations.PUT("/:alert_id/acknowledge", rs.AcknowledgeAlert)
		mutations.PUT("/:alert_id/resolve", rs.ResolveAlert)
		mutations.PUT("/:alert_id/dismiss", rs.DismissAlert)
		mutations.POST("/:alert_id/notes", rs.PostNote)
	}
}
