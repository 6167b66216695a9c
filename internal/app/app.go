// Package app 把配置装配成可运行的依赖图，供 cmd/api 与 cmd/admin 共用。
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lawdesk/internal/action"
	"lawdesk/internal/core/auth"
	"lawdesk/internal/core/cache"
	"lawdesk/internal/core/config"
	"lawdesk/internal/core/database"
	"lawdesk/internal/core/logger"
	"lawdesk/internal/repo"
	"lawdesk/internal/service"
	"lawdesk/internal/transport/http/router"
)

// 本地开发未配置 jwt.secret 时使用；Read 已保证非 local/test 环境必须配置
const localSecret = "lawdesk-local-dev-secret"

type App struct {
	Cfg     *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Store   *repo.Store
	JWT     *auth.JWTer
	Svc     *service.Services
	Actions *action.Dispatcher
	Reg     prometheus.Registerer

	closers []func()
}

// NewLogger 按配置决定是否写文件并切割
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	o := logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, App: cfg.App.Name, Env: cfg.App.Env}
	if f := cfg.Log.File; f.Enable {
		o.File = &logger.Rotate{
			Filename:   f.Filename,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		}
	}
	return logger.New(o)
}

// New 打开数据库、按需迁移、选择缓存，并装配服务与调度器
func New(ctx context.Context, cfg *config.Config, l *zap.Logger, reg prometheus.Registerer) (*App, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a := &App{Cfg: cfg, Log: l, DB: db, Store: repo.NewStore(db), Reg: reg}
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}

	loader, err := a.newCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		l.Warn("jwt.secret not set, using local development secret")
		secret = localSecret
	}
	a.JWT = &auth.JWTer{Secret: []byte(secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}

	a.Svc = service.New(a.Store, service.Options{
		Logger:       l,
		Cache:        loader,
		DashboardTTL: cfg.Cache.DashboardTTL(),
		Tokens:       a.JWT,
	})
	a.Actions = action.New(a.Svc, l, reg)
	return a, nil
}

func (a *App) newCache(ctx context.Context) (cache.Loader, error) {
	switch a.Cfg.Cache.Driver {
	case "redis":
		rc := cache.NewRedis(a.Cfg.Redis.Addr, a.Cfg.Redis.Password, a.Cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		a.Log.Info("cache: redis", zap.String("addr", a.Cfg.Redis.Addr))
		return rc, nil
	case "memory", "":
		ttl := a.Cfg.Cache.DashboardTTL()
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		a.Log.Info("cache: memory")
		return cache.NewMemory(ttl, 2*ttl), nil
	case "none":
		return cache.Nop{}, nil
	}
	return nil, errors.New("unsupported cache driver: " + a.Cfg.Cache.Driver)
}

// Deps 路由依赖
func (a *App) Deps() router.Deps {
	return router.Deps{
		Log:     a.Log,
		Actions: a.Actions,
		JWT:     a.JWT,
		Limits:  a.Cfg.Limits,
		Origins: a.Cfg.App.HTTP.CORSOrigins,
		Ping:    func(c *gin.Context) error { return database.Ping(c.Request.Context(), a.DB) },

		Principals:   a.Svc.Auth,
		BridgeSecret: a.Cfg.Auth.BridgeSecret,
		Metrics:      a.Reg,
	}
}

// Close 逆序释放资源
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
