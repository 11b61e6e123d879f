package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vcafe/identity-service/internal/domain"
)

// UniqueConstraint identifies which uniqueness invariant an insert violated.
type UniqueConstraint string

const (
	ConstraintEmail            UniqueConstraint = "email"
	ConstraintProviderIdentity UniqueConstraint = "provider_identity"
)

// UniqueViolation is returned by create operations when storage rejects a
// duplicate key. Callers branch on Constraint, never on backend error codes.
type UniqueViolation struct {
	Constraint UniqueConstraint
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique constraint violated: %s", e.Constraint)
}

// IsUniqueViolation reports whether err is a violation of the given
// constraint.
func IsUniqueViolation(err error, constraint UniqueConstraint) bool {
	var uv *UniqueViolation
	return errors.As(err, &uv) && uv.Constraint == constraint
}

// UserRepository is the credential store contract. Lookup methods return
// (nil, nil) when no record matches; only GetByID treats absence as an
// error. Create methods enforce the email and (provider, providerId)
// uniqueness invariants atomically and report duplicates as
// *UniqueViolation.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, normalizedEmail string) (*domain.User, error)
	FindLinkByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.OAuthLink, *domain.User, error)

	CreateUserWithPassword(ctx context.Context, email, passwordHash string, role domain.UserRole) (*domain.User, error)
	// CreateUserFromOAuth inserts the user and its first link as a single
	// atomic operation; a conflict on either key leaves no partial row.
	CreateUserFromOAuth(ctx context.Context, profile domain.OAuthProfile, role domain.UserRole) (*domain.User, error)
	CreateLinkForUser(ctx context.Context, userID uuid.UUID, profile domain.OAuthProfile) (*domain.OAuthLink, error)

	UpdateUserProfile(ctx context.Context, userID uuid.UUID, displayName string, avatarURL *string) (*domain.User, error)
}
