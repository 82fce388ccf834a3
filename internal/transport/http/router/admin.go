package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-feed-api/internal/core/server"
	"go-gin-feed-api/internal/service"
	mdw "go-gin-feed-api/internal/transport/http/middleware"
	resp "go-gin-feed-api/internal/transport/http/response"
)

// AdminDeps 运维端依赖；IsAdmin 判断邮箱是否在白名单
type AdminDeps struct {
	Log     *zap.Logger
	Tokens  mdw.TokenVerifier
	Admin   *service.AdminService
	IsAdmin func(email string) bool
}

func NewAdminEngine(d AdminDeps) *gin.Engine {
	r := server.NewRouter(d.Log)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(20, 40),
		mdw.ConcurrencyLimit(32),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(30*time.Second),
		mdw.Metrics(),
		mdw.Authenticate(d.Tokens, d.Log),
	)
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "") })

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())

	// 管理端 v1（统一要求白名单邮箱）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.RequireAdmin(d.IsAdmin))

	var reg Registry
	reg.Register(adminModule{svc: d.Admin})
	reg.MountAllAdmin(admin)

	return r
}
