package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/repository"
)

// IdentityResolver maps an inbound OAuth profile to exactly one user,
// creating or linking accounts as needed. Resolution is idempotent:
// repeated calls with identical profile data return the same user and issue
// no writes.
type IdentityResolver struct {
	userRepo repository.UserRepository
}

func NewIdentityResolver(userRepo repository.UserRepository) *IdentityResolver {
	return &IdentityResolver{userRepo: userRepo}
}

// Resolve runs the resolution algorithm. When a create loses a race against
// a concurrent first-login for the same identity, the store reports a
// unique violation and the algorithm is re-run once: the winner's row is
// now visible and that user is returned. A violation on the second pass is
// a genuine integrity fault.
func (r *IdentityResolver) Resolve(ctx context.Context, profile domain.OAuthProfile) (*domain.User, error) {
	if profile.Email != nil {
		normalized := domain.NormalizeEmail(*profile.Email)
		profile.Email = &normalized
	}

	user, err := r.resolve(ctx, profile)
	var uv *repository.UniqueViolation
	if errors.As(err, &uv) {
		user, err = r.resolve(ctx, profile)
		if errors.As(err, &uv) {
			return nil, fmt.Errorf("%w: repeated unique violation for %s identity %s", domain.ErrStorageUnavailable, profile.Provider, profile.ProviderID)
		}
	}
	return user, err
}

func (r *IdentityResolver) resolve(ctx context.Context, profile domain.OAuthProfile) (*domain.User, error) {
	// 1. Exact link lookup
	link, user, err := r.userRepo.FindLinkByProviderID(ctx, profile.Provider, profile.ProviderID)
	if err != nil {
		return nil, storageErr(err)
	}
	if link != nil {
		return r.refreshProfile(ctx, user, profile)
	}

	// 2. Email-based linking: another provider reaching an existing account
	if profile.Email != nil {
		user, err := r.userRepo.FindByEmail(ctx, *profile.Email)
		if err != nil {
			return nil, storageErr(err)
		}
		if user != nil {
			if existing := user.LinkFor(profile.Provider); existing != nil && existing.ProviderID != profile.ProviderID {
				return nil, domain.ErrAccountLinkConflict
			}
			if _, err := r.userRepo.CreateLinkForUser(ctx, user.ID, profile); err != nil {
				return nil, createErr(err)
			}
			updated, err := r.userRepo.UpdateUserProfile(ctx, user.ID, profile.DisplayName, profile.AvatarURL)
			if err != nil {
				return nil, storageErr(err)
			}
			return updated, nil
		}
	}

	// 3. New account creation, atomic user + link
	created, err := r.userRepo.CreateUserFromOAuth(ctx, profile, domain.RoleUser)
	if err != nil {
		return nil, createErr(err)
	}
	return created, nil
}

// refreshProfile persists displayName/avatar changes on a returning login
// and is a no-op when nothing changed.
func (r *IdentityResolver) refreshProfile(ctx context.Context, user *domain.User, profile domain.OAuthProfile) (*domain.User, error) {
	if user.DisplayName == profile.DisplayName && equalOptional(user.AvatarURL, profile.AvatarURL) {
		return user, nil
	}
	updated, err := r.userRepo.UpdateUserProfile(ctx, user.ID, profile.DisplayName, profile.AvatarURL)
	if err != nil {
		return nil, storageErr(err)
	}
	return updated, nil
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

// createErr keeps unique violations typed for the retry path and folds
// everything else into StorageUnavailable.
func createErr(err error) error {
	var uv *repository.UniqueViolation
	if errors.As(err, &uv) {
		return err
	}
	return storageErr(err)
}
