package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-feed-api/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.PostIDs == nil {
		u.PostIDs = []string{}
	}
	err := r.db.WithContext(ctx).Create(u).Error
	if err != nil && isDupKey(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, q string, offset, limit int) ([]domain.User, int64, error) {
	scope := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&domain.User{})
		if s := strings.TrimSpace(q); s != "" {
			like := "%" + s + "%"
			tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
		}
		return tx
	}
	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := scope().Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("status", status).Error
}

// AddPost / RemovePost 在事务里锁住用户行后读-改-写反向引用列表
func (r *UserRepo) AddPost(ctx context.Context, userID, postID string) error {
	return r.mutatePosts(ctx, userID, func(ids []string) []string {
		return append(ids, postID)
	})
}

func (r *UserRepo) RemovePost(ctx context.Context, userID, postID string) error {
	return r.mutatePosts(ctx, userID, func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if id != postID {
				out = append(out, id)
			}
		}
		return out
	})
}

func (r *UserRepo) mutatePosts(ctx context.Context, userID string, fn func([]string) []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		u.PostIDs = fn(u.PostIDs)
		if u.PostIDs == nil {
			u.PostIDs = []string{}
		}
		return tx.Model(&u).Select("post_ids", "updated_at").Updates(&u).Error
	})
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
