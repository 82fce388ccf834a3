package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-feed-api/internal/domain"
	"go-gin-feed-api/internal/service"
	httpez "go-gin-feed-api/internal/transport/http/ez"
)

// authModule /auth/*：注册、登录、状态
type authModule struct{ svc *service.AuthService }

func (authModule) Priority() int { return 10 }

func (m authModule) MountAPI(g gin.IRouter) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[service.SignupInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/auth/signup",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *domain.Identity, in *service.SignupInput) (*domain.User, error) {
			return m.svc.Signup(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.LoginInput, *service.AuthResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *domain.Identity, in *service.LoginInput) (*service.AuthResult, error) {
			return m.svc.Login(c.Request.Context(), *in)
		},
	})

	type statusOut struct {
		Status string `json:"status"`
	}
	httpez.RegisterAction(ez, httpez.Action[struct{}, statusOut]{
		Method: http.MethodGet,
		Path:   "/auth/status",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, viewer *domain.Identity, _ *struct{}) (statusOut, error) {
			st, err := m.svc.Status(c.Request.Context(), viewer)
			return statusOut{Status: st}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.StatusInput, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/auth/status",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, viewer *domain.Identity, in *service.StatusInput) (*domain.User, error) {
			return m.svc.UpdateStatus(c.Request.Context(), viewer, *in)
		},
	})
}
