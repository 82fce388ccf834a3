package domain

import (
	"context"
	"time"
)

type Post struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImageURL  string    `gorm:"size:512;not null;index" json:"imageUrl"`
	Creator   string    `gorm:"size:32;not null;index" json:"creator"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id string) (*Post, error)
	FindByIDs(ctx context.Context, ids []string) ([]Post, error)
	// List 按 created_at 倒序分页，同一时间的顺序固定；total 为全部帖子数
	List(ctx context.Context, offset, limit int) ([]Post, int64, error)
	All(ctx context.Context) ([]Post, error)
	// FindByImage 引用同一图片路径的全部帖子
	FindByImage(ctx context.Context, imageURL string) ([]Post, error)
	// Update 只写 title/content/image_url，creator 不可变
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) error
}
