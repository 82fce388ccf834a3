package domain

import (
	"context"
	"time"
)

// DefaultStatus 新用户的初始状态
const DefaultStatus = "I am new!"

type User struct {
	ID           string    `gorm:"primaryKey;size:32" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Status       string    `gorm:"size:255;not null" json:"status"`
	PostIDs      []string  `gorm:"serializer:json;type:text" json:"posts"` // 反向引用，按创建顺序
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// HasPost 反向引用中是否包含该帖子
func (u *User) HasPost(postID string) bool {
	for _, id := range u.PostIDs {
		if id == postID {
			return true
		}
	}
	return false
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, q string, offset, limit int) ([]User, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AddPost(ctx context.Context, userID, postID string) error
	RemovePost(ctx context.Context, userID, postID string) error
}
