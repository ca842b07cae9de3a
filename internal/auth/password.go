package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default bcrypt cost factor
	DefaultBcryptCost = 12

	// MinPasswordLength is the minimum password length
	MinPasswordLength = 8

	// MaxPasswordLength caps input size to keep bcrypt cheap
	MaxPasswordLength = 128
)

// PasswordManager handles password hashing and validation
type PasswordManager struct {
	bcryptCost        int
	minPasswordLength int
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(bcryptCost, minLength int) *PasswordManager {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = DefaultBcryptCost
	}
	if minLength < MinPasswordLength {
		minLength = MinPasswordLength
	}
	return &PasswordManager{
		bcryptCost:        bcryptCost,
		minPasswordLength: minLength,
	}
}

// HashPassword hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		return "", fmt.Errorf("password too long")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(bytes), nil
}

// VerifyPassword verifies a password against a hash
func (p *PasswordManager) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks password policy
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < p.minPasswordLength || len(password) > MaxPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
