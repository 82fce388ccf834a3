package service

import (
	"context"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/internal/domain"
)

const scanBatch = 100

// Drift 帖子与用户反向引用之间的一条不一致
type Drift struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

// ConsistencyReport 非事务写入留下的不一致；只报告不修复
type ConsistencyReport struct {
	Users int `json:"users"`
	Posts int `json:"posts"`
	// 帖子存在但创建者的 posts 中没有它
	OrphanPosts []Drift `json:"orphanPosts"`
	// 用户 posts 中引用了不存在的帖子
	DanglingRefs []Drift `json:"danglingRefs"`
}

type UserPage struct {
	Users []domain.User `json:"users"`
	Total int64         `json:"total"`
}

type AdminService struct {
	users domain.UserRepository
	posts domain.PostRepository
}

func NewAdminService(users domain.UserRepository, posts domain.PostRepository) *AdminService {
	return &AdminService{users: users, posts: posts}
}

func (s *AdminService) Users(ctx context.Context, q string, offset, limit int) (*UserPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > scanBatch {
		limit = 20
	}
	rows, total, err := s.users.List(ctx, q, offset, limit)
	if err != nil {
		return nil, apperr.Internal("listing users failed", err)
	}
	if rows == nil {
		rows = []domain.User{}
	}
	return &UserPage{Users: rows, Total: total}, nil
}

func (s *AdminService) Consistency(ctx context.Context) (*ConsistencyReport, error) {
	posts, err := s.posts.All(ctx)
	if err != nil {
		return nil, apperr.Internal("scanning posts failed", err)
	}
	users := map[string]domain.User{}
	for offset := 0; ; offset += scanBatch {
		rows, _, err := s.users.List(ctx, "", offset, scanBatch)
		if err != nil {
			return nil, apperr.Internal("scanning users failed", err)
		}
		for _, u := range rows {
			users[u.ID] = u
		}
		if len(rows) < scanBatch {
			break
		}
	}

	rep := &ConsistencyReport{Users: len(users), Posts: len(posts), OrphanPosts: []Drift{}, DanglingRefs: []Drift{}}
	exists := make(map[string]bool, len(posts))
	for _, p := range posts {
		exists[p.ID] = true
		u, ok := users[p.Creator]
		if !ok || !u.HasPost(p.ID) {
			rep.OrphanPosts = append(rep.OrphanPosts, Drift{PostID: p.ID, UserID: p.Creator})
		}
	}
	for _, u := range users {
		for _, id := range u.PostIDs {
			if !exists[id] {
				rep.DanglingRefs = append(rep.DanglingRefs, Drift{PostID: id, UserID: u.ID})
			}
		}
	}
	return rep, nil
}
