package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-gin-feed-api/internal/domain"
)

// TokenTTL 令牌固定有效期
const TokenTTL = time.Hour

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTer 签发/校验 HS256 令牌；Secret 启动时从配置注入，更换即令全部旧令牌失效
type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time // 为空时用 time.Now
}

func NewJWTer(secret, issuer string) *JWTer {
	return &JWTer{Secret: []byte(secret), Issuer: issuer, TTL: TokenTTL}
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) Issue(userID, email string) (string, error) {
	if len(j.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	ttl := j.TTL
	if ttl <= 0 {
		ttl = TokenTTL
	}
	now := j.now()
	claims := Claims{
		Email:  email,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// Verify 校验令牌并返回调用者身份
func (j *JWTer) Verify(tokenStr string) (*domain.Identity, error) {
	c, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: c.UserID, Email: c.Email}, nil
}
