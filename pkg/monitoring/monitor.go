package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 引擎侧指标
	PredictionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_predictions_total",
			Help: "Total number of readiness predictions served",
		},
		[]string{"model"},
	)

	PredictionFallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_prediction_fallbacks_total",
			Help: "Predictions recovered via fallback heuristic",
		},
		[]string{"model"},
	)

	BatchCuratedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_batches_curated_total",
			Help: "Curated question batches by learner branch",
		},
		[]string{"branch"},
	)

	RetentionRunCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_retention_runs_total",
			Help: "Profile retention trims executed",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PredictionCounter)
	prometheus.MustRegister(PredictionFallbackCounter)
	prometheus.MustRegister(BatchCuratedCounter)
	prometheus.MustRegister(RetentionRunCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
