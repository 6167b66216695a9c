package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lawdesk/internal/app"
	"lawdesk/internal/core/config"
	"lawdesk/internal/core/logger"
	"lawdesk/internal/core/server"
	"lawdesk/internal/domain"
	"lawdesk/internal/service"
	"lawdesk/internal/transport/http/router"
)

type loadFunc func(path string) (*config.Config, error)

func newRootCmd(load loadFunc) *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "lawdesk-admin",
		Short:         "lawdesk 管理工具：管理端服务、迁移、计数修复、创建管理员",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CONFIG_PATH"), "配置文件路径")

	// open 读取配置并装配依赖；reg 为 nil 时不上报指标
	open := func(ctx context.Context, reg prometheus.Registerer) (*app.App, func(), error) {
		cfg, err := load(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		log, cleanup := app.NewLogger(cfg)
		a, err := app.New(ctx, cfg, log, reg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return a, func() { a.Close(); cleanup() }, nil
	}

	root.AddCommand(
		serveCmd(open),
		migrateCmd(load, &cfgPath),
		recountCmd(open),
		createAdminCmd(open),
	)
	return root
}

type openFunc func(context.Context, prometheus.Registerer) (*app.App, func(), error)

func serveCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动管理端 HTTP 服务（/admin/v1）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context(), prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer done()
			defer logger.RedirectStdLog(a.Log, zapcore.InfoLevel)()

			cfg := a.Cfg
			addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
			srv := server.BuildServer(addr, router.NewAdminEngine(a.Deps()), 5*time.Second, 2*time.Minute, 60*time.Second)

			host4human := cfg.App.Admin.Host
			if host4human == "" || host4human == "0.0.0.0" {
				host4human = "127.0.0.1"
			}
			baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
			a.Log.Info("admin api starting",
				zap.String("addr", addr),
				zap.String("health", baseURL+"/health"),
				zap.String("admin_v1", baseURL+"/admin/v1"),
			)

			errc := make(chan error, 1)
			go func() { errc <- server.StartHTTP(srv, a.Log) }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					a.Log.Error("admin api start FAILED", zap.Error(err))
					return err
				}
				return nil
			case <-quit:
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
			a.Log.Info("admin api stopped gracefully")
			return nil
		},
	}
}

func migrateCmd(load loadFunc, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "建表 / 补字段 / 补索引",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(*cfgPath)
			if err != nil {
				return err
			}
			cfg.DB.AutoMigrate = true
			log, cleanup := app.NewLogger(cfg)
			defer cleanup()
			a, err := app.New(cmd.Context(), cfg, log, nil)
			if err != nil {
				return err
			}
			a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func recountCmd(open openFunc) *cobra.Command {
	var lawyerID string
	cmd := &cobra.Command{
		Use:   "recount",
		Short: "按案件表重算律师 caseCount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer done()
			if lawyerID != "" {
				return emit(cmd, a.Actions.RecountLawyer(cmd.Context(), lawyerID))
			}
			return emit(cmd, a.Actions.RecountCaseCounts(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&lawyerID, "lawyer", "", "只重算指定律师")
	return cmd
}

func createAdminCmd(open openFunc) *cobra.Command {
	var in service.CreateLawyerInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "创建管理员账号（带登录密码）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, done, err := open(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer done()
			in.Role = domain.RoleAdmin
			return emit(cmd, a.Actions.CreateLawyer(cmd.Context(), in))
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "Administrator", "姓名")
	cmd.Flags().StringVar(&in.Email, "email", "", "登录邮箱")
	cmd.Flags().StringVar(&in.Password, "password", "", "登录密码")
	cmd.Flags().StringVar((*string)(&in.Specialization), "specialization", string(domain.SpecOther), "专业方向")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// emit 输出信封；失败时返回错误让进程以非零码退出
func emit(cmd *cobra.Command, res interface{ Status() int }) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Status() != http.StatusOK {
		return fmt.Errorf("request failed with status %d", res.Status())
	}
	return nil
}
