package upload

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio S3 兼容对象存储；返回对象的公开 URL
type Minio struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

func NewMinio(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Minio{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}, nil
}

func (s *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *Minio) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", name, err)
	}
	return s.PublicURL(name), nil
}

func (s *Minio) Remove(ctx context.Context, p string) error {
	name, err := s.objectName(p)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("minio remove %s: %w", name, err)
	}
	return nil
}

func (s *Minio) Canonical(p string) (string, error) {
	name, err := s.objectName(p)
	if err != nil {
		return "", err
	}
	return s.PublicURL(name), nil
}

func (s *Minio) PublicURL(name string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: s.endpoint, Path: "/" + s.bucket + "/" + name}).String()
}

func (s *Minio) objectName(p string) (string, error) {
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideStore, p)
	}
	name, ok := strings.CutPrefix(u.Path, "/"+s.bucket+"/")
	if !ok || u.Host != s.endpoint || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrOutsideStore, p)
	}
	return name, nil
}
