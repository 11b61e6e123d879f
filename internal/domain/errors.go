package domain

import "errors"

// Registration and login errors
var (
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// OAuth resolution errors
var (
	ErrAccountLinkConflict = errors.New("provider identity is linked to another account")
	ErrUnknownProvider     = errors.New("unknown oauth provider")
)

// Storage errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
