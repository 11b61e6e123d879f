package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/repository"
)

// AuthService is the authentication facade the boundary layer calls. It
// composes the password policy, token authority and identity resolver over
// the credential store.
type AuthService struct {
	userRepo  repository.UserRepository
	passwords *PasswordPolicy
	tokens    *TokenService
	resolver  *IdentityResolver
}

func NewAuthService(userRepo repository.UserRepository, passwords *PasswordPolicy, tokens *TokenService, resolver *IdentityResolver) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		passwords: passwords,
		tokens:    tokens,
		resolver:  resolver,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     domain.UserRole
}

// Register creates a password-credentialed account. The email is
// normalized before the uniqueness check; the returned user never carries
// the plaintext password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, storageErr(err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	if err := s.passwords.ValidateStrength(input.Password); err != nil {
		return nil, err
	}

	hashed, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUserWithPassword(ctx, email, hashed, role)
	if err != nil {
		// A concurrent registration can slip past the fail-fast check;
		// surface it the same way.
		if repository.IsUniqueViolation(err, repository.ConstraintEmail) {
			return nil, domain.ErrEmailTaken
		}
		return nil, storageErr(err)
	}
	return user, nil
}

// AuthenticatePassword verifies email/password credentials. Unknown email,
// wrong password and OAuth-only accounts all fail with the same
// ErrInvalidCredentials so callers cannot probe for account existence.
func (s *AuthService) AuthenticatePassword(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, storageErr(err)
	}
	if user == nil || !user.HasPassword() {
		return nil, domain.ErrInvalidCredentials
	}
	if !s.passwords.Verify(password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// AuthenticateOAuth resolves a provider profile to a user account.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, profile domain.OAuthProfile) (*domain.User, error) {
	return s.resolver.Resolve(ctx, profile)
}

// IssueTokens mints an access/refresh pair for an authenticated user.
func (s *AuthService) IssueTokens(user *domain.User) (*TokenPair, error) {
	return s.tokens.IssuePair(user)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	return s.tokens.RenewAccess(refreshToken)
}

// VerifyAccess validates an access token for request authorization.
func (s *AuthService) VerifyAccess(accessToken string) (*Claims, error) {
	return s.tokens.VerifyAccess(accessToken)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
