package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Substrings that disqualify a password regardless of its character mix.
var weakSubstrings = []string{
	"password",
	"12345678",
	"qwerty",
	"admin",
	"letmein",
}

// PasswordPolicy validates password strength and produces/verifies bcrypt
// hashes. Strength validation is a pure function; hashing is CPU-bound and
// safe to run concurrently.
type PasswordPolicy struct {
	minLength int
	cost      int
}

func NewPasswordPolicy(cfg *config.Config) *PasswordPolicy {
	return &PasswordPolicy{
		minLength: cfg.PasswordMinLength,
		cost:      cfg.BcryptCost,
	}
}

func (p *PasswordPolicy) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. A mismatch is a
// plain false, not an error.
func (p *PasswordPolicy) Verify(password, hashedValue string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedValue), []byte(password)) == nil
}

// ValidateStrength checks length, character variety and the weak-substring
// deny list. All failures wrap domain.ErrWeakPassword.
func (p *PasswordPolicy) ValidateStrength(password string) error {
	if len(password) < p.minLength {
		return fmt.Errorf("%w: must be at least %d characters long", domain.ErrWeakPassword, p.minLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	classes := 0
	for _, present := range []bool{hasUpper, hasLower, hasDigit, hasSymbol} {
		if present {
			classes++
		}
	}
	if classes < 3 {
		return fmt.Errorf("%w: must contain at least 3 of: uppercase letter, lowercase letter, digit, symbol", domain.ErrWeakPassword)
	}

	lowered := strings.ToLower(password)
	for _, weak := range weakSubstrings {
		if strings.Contains(lowered, weak) {
			return fmt.Errorf("%w: too common", domain.ErrWeakPassword)
		}
	}

	return nil
}
