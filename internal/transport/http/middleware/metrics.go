package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"lawdesk/internal/transport/http/ez"
)

type httpMetrics struct {
	total   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "lawdesk_http_requests_total", Help: "HTTP requests by route, status and envelope outcome"},
			[]string{"route", "method", "status", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lawdesk_http_request_duration_seconds",
				Help:    "Latency of HTTP requests",
				Buckets: prometheus.DefBuckets,
			}, []string{"route", "method"},
		),
	}
	if reg != nil {
		m.total = register(reg, m.total)
		m.latency = register(reg, m.latency)
	}
	return m
}

// register 同一 registerer 上重复注册（api 与 admin 共用）时复用已有 collector
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

// Metrics 请求计数与耗时；reg 为 nil 时只计数不注册。
// outcome 取自写出的信封（ok / 错误分类），非 action 路由为 none
func Metrics(reg prometheus.Registerer) gin.HandlerFunc {
	return newHTTPMetrics(reg).handle
}

func (m *httpMetrics) handle(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	outcome := c.GetString(ez.KeyOutcome)
	if outcome == "" {
		outcome = "none"
	}
	m.total.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), outcome).Inc()
	m.latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
}
