package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-feed-api/internal/core/config"
	"go-gin-feed-api/internal/realtime"
	"go-gin-feed-api/internal/service"
	"go-gin-feed-api/internal/transport/gql"
	mdw "go-gin-feed-api/internal/transport/http/middleware"
	resp "go-gin-feed-api/internal/transport/http/response"
	"go-gin-feed-api/internal/upload"
)

// APIDeps 用户端 engine 的依赖；Hub / GraphQL 为空时不挂对应路由
type APIDeps struct {
	Log     *zap.Logger
	Limits  config.Limits
	Upload  config.Upload
	Tokens  mdw.TokenVerifier
	Auth    *service.AuthService
	Posts   *service.PostService
	Uploads *upload.Handler
	Hub     *realtime.Hub
	GraphQL *gql.Handler
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", mdw.KeyRequestID}
	cfg.ExposeHeaders = []string{mdw.KeyRequestID}
	return cfg
}

func NewAPIEngine(d APIDeps) *gin.Engine {
	r := gin.New()

	// 中间件：长连接只过 cors / request id / 限流
	r.Use(
		cors.New(corsConfig()),
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(d.Limits.RPS), d.Limits.Burst),
	)
	// 长连接不占并发槽位，也不受请求超时约束
	if d.Hub != nil {
		r.GET("/ws", d.Hub.ServeWS)
	}
	r.Use(
		mdw.ConcurrencyLimit(d.Limits.Concurrency),
		mdw.MaxBodyBytes(d.Upload.MaxBytes),
		mdw.Timeout(time.Duration(d.Limits.RequestTimeout)*time.Second),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		mdw.Authenticate(d.Tokens, d.Log),
	)
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "") })

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())

	// 本地存储时直接挂静态目录
	if d.Upload.Driver == "local" {
		r.Static(d.Upload.URLPrefix, d.Upload.Dir)
	}

	var reg Registry
	reg.Register(
		authModule{svc: d.Auth},
		feedModule{svc: d.Posts, uploads: d.Uploads, log: d.Log},
		imageModule{svc: d.Posts, uploads: d.Uploads, log: d.Log},
	)
	reg.MountAllAPI(r)

	if d.GraphQL != nil {
		r.GET("/graphql", d.GraphQL.Serve)
		r.POST("/graphql", d.GraphQL.Serve)
	}
	return r
}
