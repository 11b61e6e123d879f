package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Links").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Links").First(&user, "email = ?", normalizedEmail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindLinkByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.OAuthLink, *domain.User, error) {
	var link domain.OAuthLink
	err := r.db.WithContext(ctx).
		First(&link, "provider = ? AND provider_id = ?", provider, providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var user domain.User
	err = r.db.WithContext(ctx).Preload("Links").First(&user, "id = ?", link.UserID).Error
	if err != nil {
		return nil, nil, err
	}
	return &link, &user, nil
}

func (r *userRepository) CreateUserWithPassword(ctx context.Context, email, passwordHash string, role domain.UserRole) (*domain.User, error) {
	user := &domain.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateUnique(err)
	}
	return user, nil
}

func (r *userRepository) CreateUserFromOAuth(ctx context.Context, profile domain.OAuthProfile, role domain.UserRole) (*domain.User, error) {
	user := &domain.User{
		ID:          uuid.New(),
		Email:       profile.Email,
		Role:        role,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	link := &domain.OAuthLink{
		ID:         uuid.New(),
		UserID:     user.ID,
		Provider:   profile.Provider,
		ProviderID: profile.ProviderID,
		RawProfile: datatypes.JSON(profile.Raw),
		CreatedAt:  time.Now(),
	}

	// User and link land together or not at all
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(link).Error
	})
	if err != nil {
		return nil, translateUnique(err)
	}

	user.Links = []domain.OAuthLink{*link}
	return user, nil
}

func (r *userRepository) CreateLinkForUser(ctx context.Context, userID uuid.UUID, profile domain.OAuthProfile) (*domain.OAuthLink, error) {
	link := &domain.OAuthLink{
		ID:         uuid.New(),
		UserID:     userID,
		Provider:   profile.Provider,
		ProviderID: profile.ProviderID,
		RawProfile: datatypes.JSON(profile.Raw),
		CreatedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, translateUnique(err)
	}
	return link, nil
}

func (r *userRepository) UpdateUserProfile(ctx context.Context, userID uuid.UUID, displayName string, avatarURL *string) (*domain.User, error) {
	updates := map[string]interface{}{
		"display_name": displayName,
		"avatar_url":   avatarURL,
		"updated_at":   time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// translateUnique maps Postgres duplicate-key errors onto the repository's
// typed UniqueViolation so callers never see backend error codes.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "provider_identity") {
			return &repository.UniqueViolation{Constraint: repository.ConstraintProviderIdentity}
		}
		return &repository.UniqueViolation{Constraint: repository.ConstraintEmail}
	}
	return err
}
