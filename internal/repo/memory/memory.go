// Package memory 内存版仓储，实现与 gorm 仓储相同的接口，供测试使用。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-gin-feed-api/internal/domain"
)

type Store struct {
	mu    sync.RWMutex
	seq   int64
	now   func() time.Time
	users map[string]domain.User
	posts map[string]storedPost
}

type storedPost struct {
	domain.Post
	seq int64
}

var _ domain.UserRepository = (*Users)(nil)
var _ domain.PostRepository = (*Posts)(nil)

func New() *Store {
	return &Store{
		now:   func() time.Time { return time.Now().UTC() },
		users: make(map[string]domain.User),
		posts: make(map[string]storedPost),
	}
}

// WithClock 替换时间源，便于测试固定 created_at
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *Store) Users() *Users { return &Users{s: s} }
func (s *Store) Posts() *Posts { return &Posts{s: s} }

func cloneUser(u domain.User) *domain.User {
	u.PostIDs = append([]string{}, u.PostIDs...)
	return &u
}

// Users ----------------------------------------------------------------------

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, u *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.PostIDs == nil {
		u.PostIDs = []string{}
	}
	s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (r *Users) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *Users) List(_ context.Context, q string, offset, limit int) ([]domain.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q = strings.TrimSpace(q)
	matched := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if q == "" || strings.Contains(u.Email, q) || strings.Contains(u.Name, q) {
			matched = append(matched, *cloneUser(u))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return window(matched, offset, limit), int64(len(matched)), nil
}

func (r *Users) UpdateStatus(_ context.Context, id, status string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.Status = status
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (r *Users) AddPost(_ context.Context, userID, postID string) error {
	return r.mutate(userID, func(ids []string) []string { return append(ids, postID) })
}

func (r *Users) RemovePost(_ context.Context, userID, postID string) error {
	return r.mutate(userID, func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != postID {
				out = append(out, id)
			}
		}
		return out
	})
}

func (r *Users) mutate(userID string, fn func([]string) []string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PostIDs = fn(append([]string{}, u.PostIDs...))
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return nil
}

// Posts ----------------------------------------------------------------------

type Posts struct{ s *Store }

func (r *Posts) Create(_ context.Context, p *domain.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.seq++
	s.posts[p.ID] = storedPost{Post: *p, seq: s.seq}
	return nil
}

func (r *Posts) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sp, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	p := sp.Post
	return &p, nil
}

func (r *Posts) FindByIDs(_ context.Context, ids []string) ([]domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		if sp, ok := r.s.posts[id]; ok {
			out = append(out, sp.Post)
		}
	}
	return out, nil
}

func (r *Posts) List(ctx context.Context, offset, limit int) ([]domain.Post, int64, error) {
	all, _ := r.All(ctx)
	return window(all, offset, limit), int64(len(all)), nil
}

// All created_at 倒序；时间相同按写入顺序倒序
func (r *Posts) All(_ context.Context) ([]domain.Post, error) {
	r.s.mu.RLock()
	rows := make([]storedPost, 0, len(r.s.posts))
	for _, sp := range r.s.posts {
		rows = append(rows, sp)
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]domain.Post, len(rows))
	for i, sp := range rows {
		out[i] = sp.Post
	}
	return out, nil
}

func (r *Posts) FindByImage(_ context.Context, imageURL string) ([]domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Post{}
	for _, sp := range r.s.posts {
		if sp.ImageURL == imageURL {
			out = append(out, sp.Post)
		}
	}
	return out, nil
}

func (r *Posts) Update(_ context.Context, p *domain.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.posts[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	sp.Title, sp.Content, sp.ImageURL = p.Title, p.Content, p.ImageURL
	sp.UpdatedAt = s.now()
	s.posts[p.ID] = sp
	p.CreatedAt, p.UpdatedAt, p.Creator = sp.CreatedAt, sp.UpdatedAt, sp.Creator
	return nil
}

func (r *Posts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.posts, id)
	return nil
}

func window[T any](rows []T, offset, limit int) []T {
	if offset < 0 || offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return rows[offset:end]
}
