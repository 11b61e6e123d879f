package service

import (
	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth   *AuthService
	Tokens *TokenService
}

// NewServices creates all services with their dependencies
func NewServices(userRepo repository.UserRepository, cfg *config.Config) *Services {
	passwords := NewPasswordPolicy(cfg)
	tokens := NewTokenService(cfg)
	resolver := NewIdentityResolver(userRepo)

	return &Services{
		Auth:   NewAuthService(userRepo, passwords, tokens, resolver),
		Tokens: tokens,
	}
}
