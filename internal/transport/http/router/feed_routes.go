package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-feed-api/internal/domain"
	"go-gin-feed-api/internal/service"
	httpez "go-gin-feed-api/internal/transport/http/ez"
	resp "go-gin-feed-api/internal/transport/http/response"
	"go-gin-feed-api/internal/upload"
)

// postForm JSON 或 multipart；multipart 时图片走 image 文件字段
type postForm struct {
	Title    string `json:"title" form:"title"`
	Content  string `json:"content" form:"content"`
	ImageURL string `json:"imageUrl" form:"imageUrl"`
}

type postOut struct {
	Message string       `json:"message"`
	Post    *domain.Post `json:"post"`
}

// feedModule /feed/*：帖子增删改查
type feedModule struct {
	svc     *service.PostService
	uploads *upload.Handler
	log     *zap.Logger
}

func (feedModule) Priority() int { return 20 }

// withImage 先存上传文件；业务失败时删掉刚存的文件
func (m feedModule) withImage(c *gin.Context, in *postForm, run func(service.PostInput) (*domain.Post, error)) (*domain.Post, error) {
	stored, err := m.uploads.FromRequest(c)
	if err != nil {
		return nil, err
	}
	pi := service.PostInput{Title: in.Title, Content: in.Content, ImageURL: in.ImageURL}
	if stored != "" {
		pi.ImageURL = stored
	}
	p, err := run(pi)
	if err != nil && stored != "" {
		if rmErr := m.uploads.Remove(context.WithoutCancel(c.Request.Context()), stored); rmErr != nil {
			m.log.Warn("remove unused upload failed", zap.String("path", stored), zap.Error(rmErr))
		}
	}
	return p, err
}

func (m feedModule) MountAPI(g gin.IRouter) {
	ez := httpez.New(g)

	type listQ struct {
		Page int `form:"page"`
	}
	type listOut struct {
		Message    string        `json:"message"`
		Posts      []domain.Post `json:"posts"`
		TotalItems int64         `json:"totalItems"`
	}
	httpez.RegisterAction(ez, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/feed/posts",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, viewer *domain.Identity, in *listQ) (listOut, error) {
			page, err := m.svc.List(c.Request.Context(), viewer, in.Page)
			if err != nil {
				return listOut{}, err
			}
			return listOut{Message: "Fetched posts successfully.", Posts: page.Posts, TotalItems: page.TotalItems}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[postForm, postOut]{
		Method: http.MethodPost,
		Path:   "/feed/posts",
		Binder: httpez.BindForm,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, viewer *domain.Identity, in *postForm) (postOut, error) {
			p, err := m.withImage(c, in, func(pi service.PostInput) (*domain.Post, error) {
				return m.svc.Create(c.Request.Context(), viewer, pi)
			})
			if err != nil {
				return postOut{}, err
			}
			return postOut{Message: "Post created successfully!", Post: p}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, postOut]{
		Method: http.MethodGet,
		Path:   "/feed/post/:postId",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *domain.Identity, _ *struct{}) (postOut, error) {
			p, err := m.svc.Get(c.Request.Context(), c.Param("postId"))
			if err != nil {
				return postOut{}, err
			}
			return postOut{Message: "Post fetched.", Post: p}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[postForm, postOut]{
		Method: http.MethodPut,
		Path:   "/feed/post/:postId",
		Binder: httpez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, viewer *domain.Identity, in *postForm) (postOut, error) {
			p, err := m.withImage(c, in, func(pi service.PostInput) (*domain.Post, error) {
				return m.svc.Update(c.Request.Context(), viewer, c.Param("postId"), pi)
			})
			if err != nil {
				return postOut{}, err
			}
			return postOut{Message: "Post updated!", Post: p}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Message]{
		Method: http.MethodDelete,
		Path:   "/feed/post/:postId",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, viewer *domain.Identity, _ *struct{}) (resp.Message, error) {
			if err := m.svc.Delete(c.Request.Context(), viewer, c.Param("postId")); err != nil {
				return resp.Message{}, err
			}
			return resp.Message{Message: "Deleted post."}, nil
		},
	})
}

// imageModule PUT /post-image：单独存图，返回路径供 create/update 引用
type imageModule struct {
	svc     *service.PostService
	uploads *upload.Handler
	log     *zap.Logger
}

func (imageModule) Priority() int { return 30 }

func (m imageModule) MountAPI(g gin.IRouter) {
	type imageForm struct {
		OldPath string `form:"oldPath"`
	}
	type imageOut struct {
		Message  string `json:"message"`
		FilePath string `json:"filePath,omitempty"`
	}
	httpez.RegisterAction(httpez.New(g), httpez.Action[imageForm, imageOut]{
		Method: http.MethodPut,
		Path:   "/post-image",
		Binder: httpez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, viewer *domain.Identity, in *imageForm) (imageOut, error) {
			stored, err := m.uploads.FromRequest(c)
			if err != nil {
				return imageOut{}, err
			}
			if stored == "" {
				return imageOut{Message: "No file provided!"}, nil
			}
			if in.OldPath != "" {
				old, err := m.svc.AuthorizeImageRemoval(c.Request.Context(), viewer, in.OldPath)
				if err != nil {
					if rmErr := m.uploads.Remove(context.WithoutCancel(c.Request.Context()), stored); rmErr != nil {
						m.log.Warn("remove unused upload failed", zap.String("path", stored), zap.Error(rmErr))
					}
					return imageOut{}, err
				}
				if err := m.uploads.Remove(c.Request.Context(), old); err != nil {
					m.log.Warn("remove old image failed", zap.String("path", old), zap.Error(err))
				}
			}
			return imageOut{Message: "File stored.", FilePath: stored}, nil
		},
	})
}
