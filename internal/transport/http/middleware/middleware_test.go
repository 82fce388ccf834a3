package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-feed-api/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

type stubVerifier map[string]*domain.Identity

func (s stubVerifier) Verify(tok string) (*domain.Identity, error) {
	if id, ok := s[tok]; ok {
		return id, nil
	}
	return nil, errors.New("invalid token")
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_NeverRejects(t *testing.T) {
	max := &domain.Identity{UserID: "u1", Email: "max@test.com"}
	r := gin.New()
	r.Use(Authenticate(stubVerifier{"good": max}, zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		fromCtx := IdentityFrom(c.Request.Context())
		id := Viewer(c)
		if id == nil {
			assert.Nil(t, fromCtx)
			c.String(http.StatusOK, "anonymous")
			return
		}
		assert.Equal(t, id, fromCtx)
		c.String(http.StatusOK, id.UserID)
	})

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "anonymous"},
		{"valid bearer", "Bearer good", "u1"},
		{"invalid token", "Bearer forged", "anonymous"},
		{"wrong scheme", "Basic good", "anonymous"},
		{"empty bearer", "Bearer ", "anonymous"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := do(r, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ids := stubVerifier{
		"op":   {UserID: "1", Email: "ops@test.com"},
		"user": {UserID: "2", Email: "max@test.com"},
	}
	r := gin.New()
	r.Use(Authenticate(ids, zap.NewNop()), RequireAdmin(func(e string) bool { return e == "ops@test.com" }))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := func(tok string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		return req
	}
	assert.Equal(t, http.StatusUnauthorized, do(r, req("")).Code)
	assert.Equal(t, http.StatusForbidden, do(r, req("user")).Code)
	assert.Equal(t, http.StatusNoContent, do(r, req("op")).Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0.001, 1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, http.StatusTooManyRequests, body["status"])
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}
	assert.Equal(t, http.StatusOK, do(r, from("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, from("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, do(r, from("10.0.0.2")).Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		}
	})
	w := do(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc")
	w := do(r, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))
}

func TestConcurrencyLimit_CanceledWhileWaiting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() { done <- do(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code }()
	<-entered

	// 名额被占，等待中的请求被取消
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	w := do(r, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}
