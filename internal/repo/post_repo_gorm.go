package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-gin-feed-api/internal/domain"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

var _ domain.PostRepository = (*PostRepo)(nil)

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PostRepo) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDs 按传入顺序返回，缺失的 id 直接跳过
func (r *PostRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Post, error) {
	if len(ids) == 0 {
		return []domain.Post{}, nil
	}
	var rows []domain.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]domain.Post, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PostRepo) List(ctx context.Context, offset, limit int) ([]domain.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) All(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) FindByImage(ctx context.Context, imageURL string) ([]domain.Post, error) {
	var posts []domain.Post
	if err := r.db.WithContext(ctx).Where("image_url = ?", imageURL).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepo) Update(ctx context.Context, p *domain.Post) error {
	return r.db.WithContext(ctx).
		Model(p).
		Select("title", "content", "image_url", "updated_at").
		Updates(p).Error
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{}).Error
}
