// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxDisplayNameLength = 150

// Service handles account business logic
type Service struct {
	repo      Repository
	passwords *auth.PasswordManager
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository, passwords *auth.PasswordManager, log logrus.FieldLogger) *Service {
	return &Service{
		repo:      repo,
		passwords: passwords,
		log:       log,
		now:       time.Now,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents profile changes
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ValidateEmail checks the address shape
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return errs.ErrInvalidEmail
	}
	return nil
}

// Register creates a new account with the non-privileged role
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Identity, error) {
	if err := ValidateEmail(req.Email); err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if len(displayName) > maxDisplayNameLength {
		return nil, errs.Validation("display name must be at most %d characters", maxDisplayNameLength)
	}

	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, errs.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &User{
		Email:       NormalizeEmail(req.Email),
		Password:    hash,
		DisplayName: displayName,
		Role:        RoleUser,
		IsActive:    true,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": account.ID,
		"email":   account.Email,
	}).Info("account registered")

	return account.Identity(), nil
}

// Authenticate checks credentials and returns the matching identity
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.passwords.VerifyPassword(password, account.Password); err != nil {
		return nil, errs.ErrWrongCredential
	}

	if !account.IsActive {
		return nil, errs.ErrDisabled
	}

	if err := s.repo.TouchLastLogin(ctx, account.ID, s.now().UTC()); err != nil {
		s.log.WithError(err).WithField("user_id", account.ID).Warn("failed to record last login")
	}

	return account.Identity(), nil
}

// GetProfile returns the account for id
func (s *Service) GetProfile(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes the display name
func (s *Service) UpdateProfile(ctx context.Context, id uint, req *UpdateProfileRequest) (*Identity, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, errs.Validation("display name is required")
	}
	if len(displayName) > maxDisplayNameLength {
		return nil, errs.Validation("display name must be at most %d characters", maxDisplayNameLength)
	}

	if err := s.repo.UpdateDisplayName(ctx, id, displayName); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.Identity(), nil
}

// ChangePassword replaces the password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, id uint, req *ChangePasswordRequest) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.passwords.VerifyPassword(req.CurrentPassword, account.Password); err != nil {
		return errs.ErrWrongCredential
	}

	if req.CurrentPassword == req.NewPassword {
		return errs.Validation("new password must be different from the current password")
	}

	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.WithField("user_id", id).Info("password changed")
	return nil
}
