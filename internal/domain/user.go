package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NormalizeEmail lowercases and trims an email for storage and comparison.
// The email uniqueness invariant holds over normalized values.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRole is the authorization level attached to an account.
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleVIP       UserRole = "VIP"
	RoleModerator UserRole = "MODERATOR"
	RoleAdmin     UserRole = "ADMIN"
)

// AllRoles contains all valid roles in order of privilege
var AllRoles = []UserRole{RoleUser, RoleVIP, RoleModerator, RoleAdmin}

// IsValid checks if a role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleVIP, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r UserRole) String() string {
	return string(r)
}

type User struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	// Email is stored normalized (lowercased, trimmed) and is null for
	// OAuth-only accounts that never shared one.
	Email        *string     `json:"email" gorm:"uniqueIndex"`
	PasswordHash *string     `json:"-"`
	Role         UserRole    `json:"role" gorm:"not null;default:USER"`
	DisplayName  string      `json:"displayName"`
	AvatarURL    *string     `json:"avatarUrl"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Links        []OAuthLink `json:"links,omitempty" gorm:"foreignKey:UserID"`
}

// HasPassword reports whether the account can authenticate with a password.
// OAuth-only accounts have no hash and must never reach password comparison.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// LinkFor returns the user's link for the given provider, if any.
func (u *User) LinkFor(provider Provider) *OAuthLink {
	for i := range u.Links {
		if u.Links[i].Provider == provider {
			return &u.Links[i]
		}
	}
	return nil
}

// OAuthLink binds a third-party provider identity to a local user.
// The (provider, providerId) pair is globally unique and immutable once
// written.
type OAuthLink struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Provider   Provider       `json:"provider" gorm:"not null;uniqueIndex:idx_provider_identity"`
	ProviderID string         `json:"providerId" gorm:"not null;uniqueIndex:idx_provider_identity"`
	RawProfile datatypes.JSON `json:"-" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"createdAt"`
}
