package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local 本地目录存储；返回 "<prefix>/<name>" 形式的服务端相对路径
type Local struct {
	Dir    string
	Prefix string
}

func NewLocal(dir, urlPrefix string) *Local {
	prefix := strings.Trim(urlPrefix, "/")
	if prefix == "" {
		prefix = filepath.Base(dir)
	}
	return &Local{Dir: dir, Prefix: prefix}
}

func (s *Local) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", s.Dir, err)
	}
	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join(s.Prefix, name), nil
}

func (s *Local) Remove(_ context.Context, p string) error {
	name, err := s.objectName(p)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Local) Canonical(p string) (string, error) {
	name, err := s.objectName(p)
	if err != nil {
		return "", err
	}
	return path.Join(s.Prefix, name), nil
}

// objectName 只接受 <prefix>/<单层文件名>，拒绝目录穿越
func (s *Local) objectName(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	name, ok := strings.CutPrefix(clean, "/"+s.Prefix+"/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrOutsideStore, p)
	}
	return name, nil
}
