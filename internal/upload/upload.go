package upload

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/pkg/utils"
)

// FieldName 上传表单中的图片字段
const FieldName = "image"

// ErrOutsideStore 待删除路径不属于上传目录
var ErrOutsideStore = errors.New("path outside upload store")

// 只信任客户端声明的 Content-Type，不做魔数校验
var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// Storage 落盘/对象存储后端；Save 返回对外可引用的路径
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, path string) error
	// Canonical 把客户端传来的路径规整成 Save 返回的形式；不属于本存储时返回 ErrOutsideStore
	Canonical(path string) (string, error)
}

type Handler struct {
	Store Storage
	Now   func() time.Time
}

func NewHandler(store Storage) *Handler {
	return &Handler{Store: store, Now: time.Now}
}

// FileName <ISO-8601 时间>-<原始文件名>
func FileName(now time.Time, original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return now.UTC().Format("2006-01-02T15:04:05.000Z") + "-" + base
}

func Allowed(contentType string) bool {
	return allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// Accept 存储单个文件；nil 或类型不在白名单时返回 ""（视为没有文件，不报错）
func (h *Handler) Accept(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil || !Allowed(fh.Header.Get("Content-Type")) {
		return "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", apperr.Internal("open upload failed", err)
	}
	defer f.Close()

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	name := FileName(now(), fh.Filename)
	p, err := h.Store.Save(ctx, name, f, fh.Size, fh.Header.Get("Content-Type"))
	if errors.Is(err, fs.ErrExist) {
		// 同一毫秒内同名文件：加短 id 再试一次
		if _, serr := f.Seek(0, io.SeekStart); serr == nil {
			name = FileName(now(), utils.NewID()[:8]+"-"+path.Base(strings.ReplaceAll(fh.Filename, "\\", "/")))
			p, err = h.Store.Save(ctx, name, f, fh.Size, fh.Header.Get("Content-Type"))
		}
	}
	if err != nil {
		return "", apperr.Internal("store upload failed", err)
	}
	return p, nil
}

// FromRequest 取 image 字段（至多一个文件）并存储；非 multipart 请求视为没有文件
func (h *Handler) FromRequest(c *gin.Context) (string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", apperr.Validation("Invalid multipart form.", apperr.Violation{Field: FieldName, Message: err.Error()})
	}
	files := form.File[FieldName]
	switch len(files) {
	case 0:
		return "", nil
	case 1:
		return h.Accept(c.Request.Context(), files[0])
	default:
		return "", apperr.Validation("Only one image per request.", apperr.Violation{Field: FieldName, Message: "Only one image per request."})
	}
}

func (h *Handler) Canonical(p string) (string, error) {
	return h.Store.Canonical(p)
}

// Remove 删除已存储的图片；文件不存在视为成功
func (h *Handler) Remove(ctx context.Context, p string) error {
	if strings.TrimSpace(p) == "" {
		return nil
	}
	return h.Store.Remove(ctx, p)
}
