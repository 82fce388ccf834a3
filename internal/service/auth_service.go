package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/internal/domain"
	"go-gin-feed-api/pkg/utils"
)

type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(pw, digest string) bool
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens TokenIssuer, l *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: l}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal("signup failed", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("E-Mail address already exists!")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("signup failed", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: digest,
		Status:       domain.DefaultStatus,
		PostIDs:      []string{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同一邮箱：唯一索引兜底
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperr.Conflict("E-Mail address already exists!")
		}
		return nil, apperr.Internal("signup failed", err)
	}
	s.log.Info("user signed up", zap.String("user_id", u.ID))
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	if err := check(in); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal("login failed", err)
	}
	if u == nil {
		return nil, apperr.NotFound("A user with this email could not be found.")
	}
	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		return nil, apperr.Unauthenticated("Wrong password!")
	}
	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperr.Internal("issue token failed", err)
	}
	return &AuthResult{Token: tok, UserID: u.ID}, nil
}

// User 按 id 取用户，GraphQL 嵌套字段使用
func (s *AuthService) User(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("fetching user failed", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found.")
	}
	return u, nil
}

func (s *AuthService) Status(ctx context.Context, viewer *domain.Identity) (string, error) {
	if err := requireAuth(viewer); err != nil {
		return "", err
	}
	u, err := s.User(ctx, viewer.UserID)
	if err != nil {
		return "", err
	}
	return u.Status, nil
}

func (s *AuthService) UpdateStatus(ctx context.Context, viewer *domain.Identity, in StatusInput) (*domain.User, error) {
	if err := requireAuth(viewer); err != nil {
		return nil, err
	}
	in.Status = strings.TrimSpace(in.Status)
	if err := check(in); err != nil {
		return nil, err
	}
	u, err := s.User(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateStatus(ctx, u.ID, in.Status); err != nil {
		return nil, apperr.Internal("updating status failed", err)
	}
	u.Status = in.Status
	return u, nil
}
