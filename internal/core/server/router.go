package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Origins   []string // CORS 白名单，空表示全部放行
	GinzapLog bool     // 用 gin-contrib/zap 记录请求（API 端走自己的 AccessLog）
}

func NewRouter(l *zap.Logger, o Options) *gin.Engine {
	r := gin.New()
	if o.GinzapLog {
		r.Use(ginzap.GinzapWithConfig(l, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/health", "/metrics"},
		}))
	}
	r.Use(ginzap.RecoveryWithZap(l, true))
	r.Use(corsHandler(o.Origins))
	return r
}

func corsHandler(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
