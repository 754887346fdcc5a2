package service

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/saude-console/internal/domain"
	"github.com/xela07ax/saude-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword готовит значение для auth.operator_password_hash.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// HashCostBelow: хеш оператора слабее настроенной стоимости или не bcrypt вовсе.
func HashCostBelow(hash string, cost int) bool {
	got, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return got < cost
}

// ScopeDashboard — единственный scope консоли.
const ScopeDashboard = "dashboard.read"

type AuthService struct {
	operator   domain.Operator
	privateKey *rsa.PrivateKey
	ttl        time.Duration
	now        func() time.Time
}

func NewAuthService(operator domain.Operator, privateKey *rsa.PrivateKey, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		operator:   operator,
		privateKey: privateKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// GenerateToken сверяет пароль с bcrypt-хешем из конфига и подписывает RS256 токен.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.privateKey == nil || s.operator.PasswordHash == "" {
		return nil, errors.New("token issuing is not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) == 1
	// хеш считаем всегда, чтобы время ответа не выдавало логин
	passErr := bcrypt.CompareHashAndPassword([]byte(s.operator.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &domain.CustomClaims{
		UserID: s.operator.Username,
		Scopes: map[string]bool{ScopeDashboard: true},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			Subject:   s.operator.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}
