package response

import (
	"github.com/gin-gonic/gin"

	"go-gin-feed-api/internal/core/apperr"
)

// ErrBody 统一错误体 {message, status, data}
type ErrBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
}

// Message 只带提示的成功体
type Message struct {
	Message string `json:"message"`
}

// NewErr 由任意错误构造错误体；未打标签的错误按 500 处理
func NewErr(err error) ErrBody {
	e := apperr.As(err)
	return ErrBody{Message: e.Error(), Status: e.Status(), Data: e.Data}
}

// JSON 成功响应（data 为 nil 时返回空对象）
func JSON(c *gin.Context, status int, data any) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(status, data)
}

// Error 渲染错误并中止；原始错误挂到 c.Errors 供访问日志输出
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	body := NewErr(err)
	c.AbortWithStatusJSON(body.Status, body)
}

// Abort 中间件使用：按状态码输出默认提示
func Abort(c *gin.Context, status int, customMsg string) {
	msg := CodeMsgMap[status]
	if customMsg != "" {
		msg = customMsg
	}
	c.AbortWithStatusJSON(status, ErrBody{Message: msg, Status: status})
}
