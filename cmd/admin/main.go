package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gadget-store/internal/bootstrap"
	"gadget-store/internal/core/config"
	"gadget-store/internal/core/logger"
	"gadget-store/internal/core/server"
	"gadget-store/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close resources", zap.Error(err))
		}
	}()

	// 首个管理员：用户需先在用户端注册
	if email := cfg.App.Admin.BootstrapEmail; email != "" {
		if err := app.Users.PromoteByEmail(ctx, email); err != nil {
			log.Warn("bootstrap admin failed", zap.String("email", email), zap.Error(err))
		} else {
			log.Info("bootstrap admin ready", zap.String("email", email))
		}
	}

	// 路由（后台端）
	r := router.NewAdminEngine(app.Deps(), app.Registry)

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)
	srv.ErrorLog = logger.ToStdLogger(log.Named("http"), zap.WarnLevel)

	// 启动前打印可点击地址
	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	if err := server.Serve(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("admin api stopped with error", zap.Error(err))
		return
	}
	log.Info("admin api stopped gracefully")
}
