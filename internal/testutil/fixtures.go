package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	password string
	role     domain.UserRole
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: "Correct4!Battery",
		role:     domain.RoleUser,
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithRole sets the role
func (b *UserBuilder) WithRole(role domain.UserRole) *UserBuilder {
	b.role = role
	return b
}

// Build creates the user in the store and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user, err := repo.CreateUserWithPassword(context.Background(), domain.NormalizeEmail(b.email), string(hashed), b.role)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// ProfileBuilder creates OAuth profiles with a builder pattern
type ProfileBuilder struct {
	provider    domain.Provider
	providerID  string
	email       *string
	displayName string
	avatarURL   *string
}

// NewProfileBuilder creates a ProfileBuilder with default values
func NewProfileBuilder(provider domain.Provider) *ProfileBuilder {
	id := uuid.New().String()[:8]
	email := fmt.Sprintf("oauth_%s@example.com", id)
	return &ProfileBuilder{
		provider:    provider,
		providerID:  id,
		email:       &email,
		displayName: "Test User " + id,
	}
}

// WithProviderID sets the provider-issued identifier
func (b *ProfileBuilder) WithProviderID(id string) *ProfileBuilder {
	b.providerID = id
	return b
}

// WithEmail sets the email; empty clears it
func (b *ProfileBuilder) WithEmail(email string) *ProfileBuilder {
	if email == "" {
		b.email = nil
	} else {
		b.email = &email
	}
	return b
}

// WithDisplayName sets the display name
func (b *ProfileBuilder) WithDisplayName(name string) *ProfileBuilder {
	b.displayName = name
	return b
}

// WithAvatarURL sets the avatar URL
func (b *ProfileBuilder) WithAvatarURL(url string) *ProfileBuilder {
	b.avatarURL = &url
	return b
}

// Build returns the profile value
func (b *ProfileBuilder) Build() domain.OAuthProfile {
	return domain.OAuthProfile{
		Provider:    b.provider,
		ProviderID:  b.providerID,
		Email:       b.email,
		DisplayName: b.displayName,
		AvatarURL:   b.avatarURL,
	}
}
