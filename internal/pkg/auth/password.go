// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"golang.org/x/crypto/bcrypt"
)

var repeatedChars = regexp.MustCompile(`(.)\1{2,}`)

var commonPasswords = []string{
	"password", "123456", "qwerty", "letmein", "welcome",
	"monkey", "dragon", "football", "iloveyou", "admin",
}

// PasswordManager handles password operations
type PasswordManager struct {
	cost int
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword validates and hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword validates password strength. Failures wrap errs.ErrWeakPassword.
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < 8 {
		return weak("password must be at least 8 characters long")
	}

	if len(password) > 128 {
		return weak("password must be no more than 128 characters long")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return weak("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return weak("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return weak("password must contain at least one number")
	}
	if !hasSpecial {
		return weak("password must contain at least one special character")
	}

	if repeatedChars.MatchString(password) {
		return weak("password cannot contain more than 2 repeating characters")
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return weak("password is too common and easily guessable")
		}
	}

	return nil
}

func weak(msg string) error {
	return fmt.Errorf("%w: %s", errs.ErrWeakPassword, msg)
}
