package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-feed-api/internal/core/apperr"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 6, 789_000_000, time.UTC)

func TestFileName(t *testing.T) {
	assert.Equal(t, "2024-03-09T14:05:06.789Z-cat.png", FileName(stamp, "cat.png"))
	assert.Equal(t, "2024-03-09T14:05:06.789Z-evil.png", FileName(stamp, "../../etc/evil.png"))
	assert.Equal(t, "2024-03-09T14:05:06.789Z-win.jpg", FileName(stamp, `C:\Users\me\win.jpg`))
}

func TestAllowed(t *testing.T) {
	for _, ct := range []string{"image/png", "image/jpeg", "image/jpg", "IMAGE/PNG"} {
		assert.True(t, Allowed(ct), ct)
	}
	for _, ct := range []string{"image/gif", "application/pdf", ""} {
		assert.False(t, Allowed(ct), ct)
	}
}

func TestLocal_SaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s := NewLocal(dir, "/images")
	ctx := context.Background()

	p, err := s.Save(ctx, "a.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "images/a.png", p)
	_, err = os.Stat(filepath.Join(dir, "a.png"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, p))
	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))

	// 已不存在的文件视为删除成功
	assert.NoError(t, s.Remove(ctx, p))
}

func TestLocal_RemoveRefusesPathsOutsideStore(t *testing.T) {
	s := NewLocal(t.TempDir(), "/images")
	for _, p := range []string{"images/../config.yaml", "/etc/passwd", "images/sub/x.png", "other/x.png"} {
		assert.ErrorIs(t, s.Remove(context.Background(), p), ErrOutsideStore, p)
	}
}

func TestLocal_Canonical(t *testing.T) {
	s := NewLocal(t.TempDir(), "/images")
	for _, p := range []string{"images/cat.png", "/images/cat.png", "./images/cat.png", "images//cat.png", `images\cat.png`} {
		got, err := s.Canonical(p)
		require.NoError(t, err, p)
		assert.Equal(t, "images/cat.png", got, p)
	}
	_, err := s.Canonical("images/../cat.png")
	assert.ErrorIs(t, err, ErrOutsideStore)
}

func TestMinio_ObjectNameFromPublicURL(t *testing.T) {
	m, err := NewMinio("localhost:9000", "key", "secret", "feed-images", false)
	require.NoError(t, err)

	u := m.PublicURL("2024-03-09T14:05:06.789Z-cat.png")
	assert.Equal(t, "http://localhost:9000/feed-images/2024-03-09T14:05:06.789Z-cat.png", u)

	name, err := m.objectName(u)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09T14:05:06.789Z-cat.png", name)

	_, err = m.objectName("http://elsewhere:9000/feed-images/x.png")
	assert.ErrorIs(t, err, ErrOutsideStore)

	got, err := m.Canonical(u)
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for filename, ct := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write([]byte("fake image bytes"))
	}
	require.NoError(t, w.WriteField("title", "Hello World"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/feed/posts", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newHandler(t *testing.T) (*Handler, string) {
	dir := t.TempDir()
	h := NewHandler(NewLocal(dir, "/images"))
	h.Now = func() time.Time { return stamp }
	return h, dir
}

func TestHandler_FromRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("stores accepted image", func(t *testing.T) {
		h, dir := newHandler(t)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = multipartRequest(t, map[string]string{"cat.png": "image/png"})

		p, err := h.FromRequest(c)
		require.NoError(t, err)
		assert.Equal(t, "images/2024-03-09T14:05:06.789Z-cat.png", p)
		_, err = os.Stat(filepath.Join(dir, "2024-03-09T14:05:06.789Z-cat.png"))
		assert.NoError(t, err)
	})

	t.Run("same name within one millisecond", func(t *testing.T) {
		h, dir := newHandler(t)
		var paths []string
		for i := 0; i < 2; i++ {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = multipartRequest(t, map[string]string{"cat.png": "image/png"})
			p, err := h.FromRequest(c)
			require.NoError(t, err)
			paths = append(paths, p)
		}
		assert.NotEqual(t, paths[0], paths[1])
		assert.True(t, strings.HasSuffix(paths[1], "-cat.png"), paths[1])
		entries, _ := os.ReadDir(dir)
		assert.Len(t, entries, 2)
	})

	t.Run("filtered type is treated as no file", func(t *testing.T) {
		h, dir := newHandler(t)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = multipartRequest(t, map[string]string{"doc.pdf": "application/pdf"})

		p, err := h.FromRequest(c)
		require.NoError(t, err)
		assert.Empty(t, p)
		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	})

	t.Run("json body has no file", func(t *testing.T) {
		h, _ := newHandler(t)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPut, "/feed/post/1", bytes.NewBufferString(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		p, err := h.FromRequest(c)
		require.NoError(t, err)
		assert.Empty(t, p)
	})

	t.Run("more than one image", func(t *testing.T) {
		h, _ := newHandler(t)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = multipartRequest(t, map[string]string{"a.png": "image/png", "b.png": "image/png"})

		_, err := h.FromRequest(c)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}
