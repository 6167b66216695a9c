package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lawdesk/internal/action"
	"lawdesk/internal/core/auth"
	"lawdesk/internal/core/config"
	"lawdesk/internal/core/server"
	mdw "lawdesk/internal/transport/http/middleware"
)

// Deps engine 依赖
type Deps struct {
	Log     *zap.Logger
	Actions *action.Dispatcher
	JWT     *auth.JWTer
	Limits  config.Limits
	Origins []string
	// Ping 健康检查；nil 表示只报进程存活
	Ping func(*gin.Context) error

	// Principals 鉴权时读取当前角色
	Principals mdw.Principals
	// BridgeSecret OAuth 桥接口的共享密钥；为空时该接口拒绝所有调用
	BridgeSecret string
	// Metrics 指标注册处，同时作为 /metrics 的数据源；nil 时使用默认 registry
	Metrics prometheus.Registerer
}

func (d Deps) limits() config.Limits {
	l := d.Limits
	if l.RPS <= 0 {
		l.RPS = 50
	}
	if l.Burst <= 0 {
		l.Burst = 100
	}
	if l.Concurrency <= 0 {
		l.Concurrency = 256
	}
	if l.MaxBodyMB <= 0 {
		l.MaxBodyMB = 2
	}
	if l.TimeoutSec <= 0 {
		l.TimeoutSec = 15
	}
	return l
}

func NewAPIEngine(d Deps) *gin.Engine {
	lim := d.limits()
	r := server.NewRouter(d.Log, server.Options{Origins: d.Origins})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.ConcurrencyLimit(lim.Concurrency),
		mdw.MaxBodyBytes(lim.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(lim.TimeoutSec)*time.Second),
		mdw.SimpleRecovery(d.Log),
		mdw.Metrics(d.Metrics),
		mdw.AccessLog(d.Log),
	)

	r.GET("/health", health(d.Ping))
	r.GET("/metrics", metricsHandler(d.Metrics))

	// 前缀
	api := r.Group("/api/v1")

	// 鉴权分组（/me 等需要 userId 的接口挂这里）
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, d.Principals, ""))

	var reg Registry
	reg.Register(Modules(d)...)
	reg.MountAllAPI(Groups{Public: api, Authed: authed})
	return r
}

func health(ping func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	}
}

// metricsHandler registerer 同时是 Gatherer 时只暴露它收集的指标
func metricsHandler(reg prometheus.Registerer) gin.HandlerFunc {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return gin.WrapH(promhttp.Handler())
}
