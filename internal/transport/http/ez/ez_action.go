package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/internal/domain"
	mdw "go-gin-feed-api/internal/transport/http/middleware"
	resp "go-gin-feed-api/internal/transport/http/response"
)

type EZ struct{ g gin.IRoutes }

func New(g gin.IRoutes) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // 按 Content-Type 选择：JSON / multipart / urlencoded
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string // 例："/auth/login"、"/feed/post/:postId"
	Binder  Binder
	Auth    bool // 是否要求登录
	Status  int  // 成功状态码，默认 200
	Handler func(c *gin.Context, viewer *domain.Identity, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		// 1) 鉴权
		viewer := mdw.Viewer(c)
		if a.Auth && viewer == nil {
			resp.Error(c, apperr.Unauthenticated("Not authenticated."))
			return
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(bindErr, &tooLarge) {
				resp.Abort(c, http.StatusRequestEntityTooLarge, "")
				return
			}
			resp.Error(c, apperr.Validation("Invalid request body.", apperr.Violation{Field: "body", Message: bindErr.Error()}))
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, viewer, &in)
		if err != nil {
			resp.Error(c, err)
			return
		}
		resp.JSON(c, status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
