package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/internal/domain"
	resp "go-gin-feed-api/internal/transport/http/response"
)

const KeyIdentity = "identity"

type ctxKey struct{}

// TokenVerifier 校验令牌返回身份
type TokenVerifier interface {
	Verify(token string) (*domain.Identity, error)
}

// Authenticate 从不拒绝请求：解析成功则挂上身份，否则视为匿名
func Authenticate(v TokenVerifier, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := identify(v, c.GetHeader("Authorization")); id != nil {
			c.Set(KeyIdentity, id)
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		} else if c.GetHeader("Authorization") != "" {
			l.Debug("bearer token rejected", zap.String("rid", c.GetString(KeyRequestID)))
		}
		c.Next()
	}
}

func identify(v TokenVerifier, header string) *domain.Identity {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil
	}
	id, err := v.Verify(token)
	if err != nil {
		return nil
	}
	return id
}

// Viewer 取出调用者身份；匿名返回 nil
func Viewer(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(KeyIdentity); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}

func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom GraphQL 解析器从请求 context 取身份
func IdentityFrom(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(ctxKey{}).(*domain.Identity)
	return id
}

// RequireAdmin 运维接口：需登录且邮箱在白名单内
func RequireAdmin(allowed func(email string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Viewer(c)
		if id == nil {
			resp.Error(c, apperr.Unauthenticated("Not authenticated."))
			return
		}
		if !allowed(id.Email) {
			resp.Error(c, apperr.Forbidden("Not authorized!"))
			return
		}
		c.Next()
	}
}
