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
	"go-gin-feed-api/internal/realtime"
	"go-gin-feed-api/internal/repo"
	"go-gin-feed-api/internal/service"
	"go-gin-feed-api/internal/transport/gql"
	"go-gin-feed-api/internal/transport/http/router"
	"go-gin-feed-api/internal/upload"
	"go-gin-feed-api/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log)()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(ctx, cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	jwter := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer)
	jwter.TTL = time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute

	// 图片存储
	uploads := upload.NewHandler(mustOpenStorage(ctx, cfg, log))

	// 实时推送：配置了 redis 则跨实例广播
	hub := realtime.NewHub(log)
	defer hub.Close()
	events := openEvents(ctx, cfg, hub, log)

	users := repo.NewUserRepo(db)
	posts := repo.NewPostRepo(db)
	authSvc := service.NewAuthService(users, utils.NewHasher(), jwter, log)
	postSvc := service.NewPostService(posts, users, uploads, events, cfg.Feed.PageSize, log)

	gqlH, err := gql.NewHandler(&gql.Resolver{Auth: authSvc, Posts: postSvc}, log)
	if err != nil {
		log.Fatal("graphql schema", zap.Error(err))
	}

	// 路由（用户端）
	r := router.NewAPIEngine(router.APIDeps{
		Log:     log,
		Limits:  cfg.Limits,
		Upload:  cfg.Upload,
		Tokens:  jwter,
		Auth:    authSvc,
		Posts:   postSvc,
		Uploads: uploads,
		Hub:     hub,
		GraphQL: gqlH,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(addr, r, server.Timeouts{
		Read:  cfg.App.HTTP.ReadTimeoutSec,
		Write: cfg.App.HTTP.WriteTimeoutSec,
		Idle:  cfg.App.HTTP.IdleTimeoutSec,
	})

	// 启动日志
	baseURL := server.BaseURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("feed api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("graphql", baseURL+"/graphql"),
		zap.String("ws", baseURL+"/ws"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("feed api start FAILED", zap.Error(err))
		}
	}()
	log.Info("feed api started SUCCESS")

	// 优雅关闭
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("feed api stopped gracefully")
}

func mustOpenDB(ctx context.Context, cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(ctx, database.OptsFromConfig(cfg.DB))
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func mustOpenStorage(ctx context.Context, cfg *config.Config, l *zap.Logger) upload.Storage {
	if cfg.Upload.Driver != "minio" {
		if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
			l.Fatal("upload dir", zap.String("dir", cfg.Upload.Dir), zap.Error(err))
		}
		return upload.NewLocal(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	}
	m, err := upload.NewMinio(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		l.Fatal("minio client", zap.Error(err))
	}
	if err := m.EnsureBucket(ctx); err != nil {
		l.Fatal("minio bucket", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
	}
	l.Info("minio storage ready", zap.String("endpoint", cfg.Minio.Endpoint), zap.String("bucket", cfg.Minio.Bucket))
	return m
}

// openEvents redis 不可用时退回单实例推送
func openEvents(ctx context.Context, cfg *config.Config, hub *realtime.Hub, l *zap.Logger) realtime.Publisher {
	if cfg.Redis.Addr == "" {
		return hub
	}
	bus := realtime.NewRedisBus(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel, hub, l)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := bus.Ping(pingCtx); err != nil {
		l.Warn("redis unavailable, events stay local", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = bus.Close()
		return hub
	}
	go func() {
		defer bus.Close()
		if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("redis subscriber stopped", zap.Error(err))
		}
	}()
	l.Info("redis event bus ready", zap.String("channel", cfg.Redis.Channel))
	return bus
}
