package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

func TestValidatePassword(t *testing.T) {
	p := NewPasswordManager(testConfig())

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "Sunny#Day42", true},
		{"too short", "Ab1!", false},
		{"no upper", "sunny#day42", false},
		{"no lower", "SUNNY#DAY42", false},
		{"no number", "Sunny#Dayxy", false},
		{"no special", "SunnyDay42x", false},
		{"repeating", "Suuunny#42", false},
		{"common", "Password#42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, errs.ErrWeakPassword)
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	p := NewPasswordManager(testConfig())

	hash, err := p.HashPassword("Sunny#Day42")
	require.NoError(t, err)
	assert.NoError(t, p.VerifyPassword("Sunny#Day42", hash))
	assert.Error(t, p.VerifyPassword("Sunny#Day43", hash))

	_, err = p.HashPassword("weak")
	assert.ErrorIs(t, err, errs.ErrWeakPassword)
}
