package service

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/internal/domain"
	"go-gin-feed-api/internal/realtime"
	"go-gin-feed-api/pkg/utils"
)

// DefaultPageSize 每页帖子数
const DefaultPageSize = 2

// ImageStore 已存储图片的路径规整与删除；删除时文件不存在视为成功
type ImageStore interface {
	Canonical(path string) (string, error)
	Remove(ctx context.Context, path string) error
}

type PostInput struct {
	Title    string `json:"title" validate:"min=5"`
	Content  string `json:"content" validate:"min=5"`
	ImageURL string `json:"imageUrl"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

type PostPage struct {
	Posts      []domain.Post `json:"posts"`
	TotalItems int64         `json:"totalItems"`
}

type PostService struct {
	posts    domain.PostRepository
	users    domain.UserRepository
	images   ImageStore
	events   realtime.Publisher // 可为 nil
	pageSize int
	log      *zap.Logger
}

func NewPostService(posts domain.PostRepository, users domain.UserRepository, images ImageStore,
	events realtime.Publisher, pageSize int, l *zap.Logger) *PostService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostService{posts: posts, users: users, images: images, events: events, pageSize: pageSize, log: l}
}

func (s *PostService) PageSize() int { return s.pageSize }

// List 第 page 页（从 1 开始，<=0 按 1 处理），最新在前
func (s *PostService) List(ctx context.Context, viewer *domain.Identity, page int) (*PostPage, error) {
	if err := requireAuth(viewer); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	// 超大页码钳到 offset 不溢出的最后一页，结果为空页
	if last := (math.MaxInt - s.pageSize) / s.pageSize; page-1 > last {
		page = last + 1
	}
	rows, total, err := s.posts.List(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, apperr.Internal("fetching posts failed", err)
	}
	if rows == nil {
		rows = []domain.Post{}
	}
	return &PostPage{Posts: rows, TotalItems: total}, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("fetching post failed", err)
	}
	if p == nil {
		return nil, apperr.NotFound("Could not find post.")
	}
	return p, nil
}

// ListByIDs 按给定顺序返回，缺失的 id 跳过
func (s *PostService) ListByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}
	rows, err := s.posts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("fetching posts failed", err)
	}
	return rows, nil
}

// Create 先写帖子再追加反向引用；两步之间失败会留下孤儿帖子
func (s *PostService) Create(ctx context.Context, viewer *domain.Identity, in PostInput) (*domain.Post, error) {
	if err := requireAuth(viewer); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	if in.ImageURL == "" {
		return nil, apperr.Validation("No image provided.")
	}
	if err := s.canonicalImage(&in); err != nil {
		return nil, err
	}

	creator, err := s.users.FindByID(ctx, viewer.UserID)
	if err != nil {
		return nil, apperr.Internal("creating post failed", err)
	}
	if creator == nil {
		return nil, apperr.Unauthenticated("Invalid user.")
	}

	p := &domain.Post{
		ID:       utils.NewID(),
		Title:    in.Title,
		Content:  in.Content,
		ImageURL: in.ImageURL,
		Creator:  creator.ID,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		observe(opCreate, err)
		return nil, apperr.Internal("creating post failed", err)
	}
	if err := s.users.AddPost(ctx, creator.ID, p.ID); err != nil {
		s.log.Error("link post to creator failed", zap.String("post_id", p.ID), zap.String("user_id", creator.ID), zap.Error(err))
		observe(opCreate, err)
		return nil, apperr.Internal("creating post failed", err)
	}
	observe(opCreate, nil)
	s.publish(ctx, realtime.ActionCreate, p.ID, p)
	return p, nil
}

func (s *PostService) Update(ctx context.Context, viewer *domain.Identity, id string, in PostInput) (*domain.Post, error) {
	if err := requireAuth(viewer); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	if err := s.canonicalImage(&in); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Creator != viewer.UserID {
		return nil, apperr.Forbidden("Not authorized!")
	}

	// 换图：旧图删除失败只记日志
	if in.ImageURL != "" && in.ImageURL != p.ImageURL {
		if err := s.removeImage(ctx, p); err != nil {
			s.log.Warn("remove replaced image failed", zap.String("path", p.ImageURL), zap.Error(err))
		}
		p.ImageURL = in.ImageURL
	}
	p.Title = in.Title
	p.Content = in.Content
	if err := s.posts.Update(ctx, p); err != nil {
		observe(opUpdate, err)
		return nil, apperr.Internal("updating post failed", err)
	}
	observe(opUpdate, nil)
	s.publish(ctx, realtime.ActionUpdate, p.ID, p)
	return p, nil
}

// Delete 顺序：删图、删帖、移除反向引用；不回滚
func (s *PostService) Delete(ctx context.Context, viewer *domain.Identity, id string) error {
	if err := requireAuth(viewer); err != nil {
		return err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Creator != viewer.UserID {
		return apperr.Forbidden("Not authorized!")
	}

	if err := s.removeImage(ctx, p); err != nil {
		observe(opDelete, err)
		return apperr.Internal("deleting image failed", err)
	}
	if err := s.posts.Delete(ctx, p.ID); err != nil {
		observe(opDelete, err)
		return apperr.Internal("deleting post failed", err)
	}
	if err := s.users.RemovePost(ctx, p.Creator, p.ID); err != nil {
		s.log.Error("unlink post from creator failed", zap.String("post_id", p.ID), zap.String("user_id", p.Creator), zap.Error(err))
		observe(opDelete, err)
		return apperr.Internal("deleting post failed", err)
	}
	observe(opDelete, nil)
	s.publish(ctx, realtime.ActionDelete, p.ID, nil)
	return nil
}

// AuthorizeImageRemoval 规整 path；图片被别人的帖子引用时拒绝删除
func (s *PostService) AuthorizeImageRemoval(ctx context.Context, viewer *domain.Identity, path string) (string, error) {
	if err := requireAuth(viewer); err != nil {
		return "", err
	}
	canonical, err := s.images.Canonical(path)
	if err != nil {
		return "", apperr.Validation("Invalid old path.", apperr.Violation{Field: "oldPath", Message: err.Error()})
	}
	refs, err := s.posts.FindByImage(ctx, canonical)
	if err != nil {
		return "", apperr.Internal("checking image owner failed", err)
	}
	for _, r := range refs {
		if r.Creator != viewer.UserID {
			return "", apperr.Forbidden("Not authorized!")
		}
	}
	return canonical, nil
}

func (s *PostService) canonicalImage(in *PostInput) error {
	if in.ImageURL == "" {
		return nil
	}
	canonical, err := s.images.Canonical(in.ImageURL)
	if err != nil {
		return apperr.Validation("Invalid image path.", apperr.Violation{Field: "imageUrl", Message: err.Error()})
	}
	in.ImageURL = canonical
	return nil
}

// removeImage 其他帖子仍引用同一图片时保留文件
func (s *PostService) removeImage(ctx context.Context, p *domain.Post) error {
	refs, err := s.posts.FindByImage(ctx, p.ImageURL)
	if err != nil {
		return err
	}
	for _, r := range refs {
		if r.ID != p.ID {
			s.log.Info("image still referenced, keep file", zap.String("path", p.ImageURL), zap.String("post_id", r.ID))
			return nil
		}
	}
	return s.images.Remove(ctx, p.ImageURL)
}

func (s *PostService) publish(ctx context.Context, action, postID string, p *domain.Post) {
	if s.events == nil {
		return
	}
	ev := realtime.Event{Channel: realtime.ChannelPosts, Action: action, PostID: postID}
	if p != nil {
		ev.Post = p
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("publish post event failed", zap.String("action", action), zap.String("post_id", postID), zap.Error(err))
	}
}
