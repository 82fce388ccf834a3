package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-feed-api/internal/core/auth"
	"go-gin-feed-api/internal/core/config"
	"go-gin-feed-api/internal/core/database"
	"go-gin-feed-api/internal/core/logger"
	"go-gin-feed-api/internal/core/server"
	"go-gin-feed-api/internal/repo"
	"go-gin-feed-api/internal/service"
	"go-gin-feed-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	if len(cfg.Admin.Emails) == 0 {
		log.Warn("admin.emails is empty, every operator request will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB 连接（失败直接 Fatal）
	db := mustOpenDB(ctx, cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 依赖
	jwter := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer)
	adminSvc := service.NewAdminService(repo.NewUserRepo(db), repo.NewPostRepo(db))

	// 路由（后台端）
	r := router.NewAdminEngine(router.AdminDeps{
		Log:     log,
		Tokens:  jwter,
		Admin:   adminSvc,
		IsAdmin: cfg.IsAdmin,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, server.Timeouts{Read: 5, Write: 35, Idle: 60})

	// 启动前打印可点击地址
	baseURL := server.BaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	// 异步启动；失败立即标红退出
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin api started SUCCESS")

	// 关闭
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("admin api stopped gracefully")
}

func mustOpenDB(ctx context.Context, cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(ctx, database.OptsFromConfig(cfg.DB))
	if err != nil {
		l.Fatal("db open", zap.Error(err)) // 失败日志
	}
	return db
}
