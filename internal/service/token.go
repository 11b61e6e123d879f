package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/domain"
)

// Claims are the assertions carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Email *string         `json:"email,omitempty"`
	Role  domain.UserRole `json:"role"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies self-contained signed token pairs.
// Access and refresh tokens use distinct signing secrets, so a token of one
// kind never verifies against the other key. There is no server-side token
// store: tokens cannot be revoked before expiry, logout only clears the
// client-held refresh token.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// IssuePair mints an access/refresh token pair for the user.
func (s *TokenService) IssuePair(user *domain.User) (*TokenPair, error) {
	accessToken, err := s.sign(user.ID.String(), user.Email, user.Role, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(user.ID.String(), user.Email, user.Role, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(accessToken string) (*Claims, error) {
	return s.parse(accessToken, s.accessSecret)
}

// RenewAccess validates a refresh token and mints a fresh access token for
// the same subject. The user record is not re-fetched here; callers that
// need liveness re-check it themselves.
func (s *TokenService) RenewAccess(refreshToken string) (string, error) {
	claims, err := s.parse(refreshToken, s.refreshSecret)
	if err != nil {
		return "", err
	}
	return s.sign(claims.Subject, claims.Email, claims.Role, s.accessSecret, s.accessTTL)
}

// RefreshTTL exposes the refresh token lifetime so the boundary layer can
// align cookie expiry with it.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *TokenService) sign(subject string, email *string, role domain.UserRole, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
