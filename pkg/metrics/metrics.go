package metrics

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	leaderboardCalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_calculations_total",
			Help: "Leaderboard snapshot recalculations by period and outcome",
		},
		[]string{"period", "result"},
	)
	leaderboardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leaderboard_calculation_duration_seconds",
			Help:    "Duration of leaderboard snapshot recalculations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period"},
	)
	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_side_effect_failures_total",
			Help: "Swallowed failures of streak, challenge and achievement updates",
		},
		[]string{"step"},
	)

	registerOnce sync.Once
)

// InitPrometheus registers the collectors on the default registry. Safe to call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			leaderboardCalculations,
			leaderboardDuration,
			sideEffectFailures,
		)
	})
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry. With empty credentials the endpoint is open.
func Handler(user, pass string) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		if user != "" || pass != "" {
			u, p, ok := c.Request.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
				c.Header("WWW-Authenticate", `Basic realm="Metrics"`)
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveLeaderboard records one recalculation.
func ObserveLeaderboard(period string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	leaderboardCalculations.WithLabelValues(period, result).Inc()
	leaderboardDuration.WithLabelValues(period).Observe(took.Seconds())
}

func SideEffectFailed(step string) {
	sideEffectFailures.WithLabelValues(step).Inc()
}
