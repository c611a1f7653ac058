package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

type memoryRepository struct {
	m      sync.Mutex
	users  map[uint]*User
	nextID uint
	err    error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: map[uint]*User{}, nextID: 1}
}

func (r *memoryRepository) Create(_ context.Context, u *User) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return errs.ErrDuplicateEmail
		}
	}
	u.ID = r.nextID
	r.nextID++
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == NormalizeEmail(email) {
			found := *u
			return &found, nil
		}
	}
	return nil, errs.NotFound("user")
}

func (r *memoryRepository) FindByID(_ context.Context, id uint) (*User, error) {
	r.m.Lock()
	defer r.m.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errs.NotFound("user")
	}
	found := *u
	return &found, nil
}

func (r *memoryRepository) UpdateDisplayName(_ context.Context, id uint, displayName string) error {
	r.m.Lock()
	defer r.m.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errs.NotFound("user")
	}
	u.DisplayName = displayName
	return nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id uint, hash string) error {
	r.m.Lock()
	defer r.m.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errs.NotFound("user")
	}
	u.Password = hash
	return nil
}

func (r *memoryRepository) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	r.m.Lock()
	defer r.m.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepository) {
	t.Helper()
	cfg := &config.Config{Security: config.SecurityConfig{BcryptCost: 4}}
	repo := newMemoryRepository()
	return NewService(repo, auth.NewPasswordManager(cfg), logger.Discard()), repo
}

func TestRegister_DefaultsToUserRole(t *testing.T) {
	svc, repo := newTestService(t)

	identity, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "  Ada@Example.com ",
		Password:    "Sunny#Day42",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "Ada", identity.DisplayName)
	assert.Equal(t, RoleUser, identity.Role)
	assert.False(t, identity.IsAdmin())

	stored, err := repo.FindByID(context.Background(), identity.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Sunny#Day42", stored.Password)
	assert.True(t, stored.IsActive)
}

func TestRegister_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "ada@example.com", Password: "Sunny#Day42"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Email: "ADA@example.com", Password: "Sunny#Day42"})
	assert.ErrorIs(t, err, errs.ErrDuplicateEmail)

	_, err = svc.Register(ctx, &RegisterRequest{Email: "not-an-email", Password: "Sunny#Day42"})
	assert.ErrorIs(t, err, errs.ErrInvalidEmail)

	_, err = svc.Register(ctx, &RegisterRequest{Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, errs.ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Email: "ada@example.com", Password: "Sunny#Day42"})
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, "ada@example.com", "Sunny#Day42")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, identity.ID)
	assert.Equal(t, "ada", identity.DisplayName)

	_, err = svc.Authenticate(ctx, "ada@example.com", "Wrong#Day42")
	assert.ErrorIs(t, err, errs.ErrWrongCredential)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "Sunny#Day42")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Authenticate(ctx, "ada", "Sunny#Day42")
	assert.ErrorIs(t, err, errs.ErrInvalidEmail)

	repo.users[registered.ID].IsActive = false
	_, err = svc.Authenticate(ctx, "ada@example.com", "Sunny#Day42")
	assert.ErrorIs(t, err, errs.ErrDisabled)
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Email: "ada@example.com", Password: "Sunny#Day42"})
	require.NoError(t, err)

	identity, err := svc.UpdateProfile(ctx, registered.ID, &UpdateProfileRequest{DisplayName: "Ada L."})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", identity.DisplayName)

	_, err = svc.UpdateProfile(ctx, registered.ID, &UpdateProfileRequest{DisplayName: "   "})
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = svc.ChangePassword(ctx, registered.ID, &ChangePasswordRequest{CurrentPassword: "Nope#Day42", NewPassword: "Rainy#Day42"})
	assert.ErrorIs(t, err, errs.ErrWrongCredential)

	err = svc.ChangePassword(ctx, registered.ID, &ChangePasswordRequest{CurrentPassword: "Sunny#Day42", NewPassword: "Rainy#Day42"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "ada@example.com", "Rainy#Day42")
	assert.NoError(t, err)
}
