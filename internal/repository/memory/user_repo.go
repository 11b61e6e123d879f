package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vcafe/identity-service/internal/domain"
	"github.com/vcafe/identity-service/internal/repository"
	"gorm.io/datatypes"
)

// UserRepository is an in-memory credential store. It enforces the same
// uniqueness invariants as the Postgres implementation under a single
// mutex, which makes create operations atomic with respect to concurrent
// callers. Used by tests and local development.
type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	email map[string]uuid.UUID
	links map[linkKey]*domain.OAuthLink
}

type linkKey struct {
	provider   domain.Provider
	providerID string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[uuid.UUID]*domain.User),
		email: make(map[string]uuid.UUID),
		links: make(map[linkKey]*domain.OAuthLink),
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.copyUser(user), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, normalizedEmail string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.email[normalizedEmail]
	if !ok {
		return nil, nil
	}
	return r.copyUser(r.users[id]), nil
}

func (r *UserRepository) FindLinkByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.OAuthLink, *domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[linkKey{provider, providerID}]
	if !ok {
		return nil, nil, nil
	}
	linkCopy := *link
	return &linkCopy, r.copyUser(r.users[link.UserID]), nil
}

func (r *UserRepository) CreateUserWithPassword(ctx context.Context, email, passwordHash string, role domain.UserRole) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.email[email]; exists {
		return nil, &repository.UniqueViolation{Constraint: repository.ConstraintEmail}
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.users[user.ID] = user
	r.email[email] = user.ID
	return r.copyUser(user), nil
}

func (r *UserRepository) CreateUserFromOAuth(ctx context.Context, profile domain.OAuthProfile, role domain.UserRole) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{profile.Provider, profile.ProviderID}
	if _, exists := r.links[key]; exists {
		return nil, &repository.UniqueViolation{Constraint: repository.ConstraintProviderIdentity}
	}
	if profile.Email != nil {
		if _, exists := r.email[*profile.Email]; exists {
			return nil, &repository.UniqueViolation{Constraint: repository.ConstraintEmail}
		}
	}

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
	user.Links = []domain.OAuthLink{*link}

	r.users[user.ID] = user
	if profile.Email != nil {
		r.email[*profile.Email] = user.ID
	}
	r.links[key] = link
	return r.copyUser(user), nil
}

func (r *UserRepository) CreateLinkForUser(ctx context.Context, userID uuid.UUID, profile domain.OAuthProfile) (*domain.OAuthLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{profile.Provider, profile.ProviderID}
	if _, exists := r.links[key]; exists {
		return nil, &repository.UniqueViolation{Constraint: repository.ConstraintProviderIdentity}
	}
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	link := &domain.OAuthLink{
		ID:         uuid.New(),
		UserID:     userID,
		Provider:   profile.Provider,
		ProviderID: profile.ProviderID,
		RawProfile: datatypes.JSON(profile.Raw),
		CreatedAt:  time.Now(),
	}
	r.links[key] = link
	user.Links = append(user.Links, *link)

	linkCopy := *link
	return &linkCopy, nil
}

func (r *UserRepository) UpdateUserProfile(ctx context.Context, userID uuid.UUID, displayName string, avatarURL *string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.DisplayName = displayName
	user.AvatarURL = avatarURL
	user.UpdatedAt = time.Now()
	return r.copyUser(user), nil
}

// UserCount reports the number of stored users; used by tests asserting
// that concurrent resolution creates exactly one account.
func (r *UserRepository) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *UserRepository) copyUser(user *domain.User) *domain.User {
	cp := *user
	cp.Links = append([]domain.OAuthLink(nil), user.Links...)
	return &cp
}
