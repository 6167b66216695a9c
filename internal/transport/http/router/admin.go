package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lawdesk/internal/core/server"
	mdw "lawdesk/internal/transport/http/middleware"
)

// NewAdminEngine 管理端：只监听内网地址，统一要求 admin 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log, server.Options{Origins: d.Origins, GinzapLog: true})

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(rate.Limit(20), 40),
		mdw.ConcurrencyLimit(32),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(2*time.Minute), // 全量重算可能较慢
		mdw.SimpleRecovery(d.Log),
		mdw.Metrics(d.Metrics),
	)

	r.GET("/health", health(d.Ping))
	r.GET("/metrics", metricsHandler(d.Metrics))

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, d.Principals, "admin"))

	var reg Registry
	reg.Register(adminModule{d.Actions})
	reg.MountAllAdmin(admin)
	return r
}
