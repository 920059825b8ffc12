package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/veststore/internal/auth"
	"github.com/example/veststore/internal/store/mocks"
)

func newTestUserService() *Service {
	return NewService(mocks.NewMemoryStore())
}

func TestService_Register_Success(t *testing.T) {
	service := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "alice@example.com", "password123", "Alice")

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, RoleCustomer, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "password123", u.PasswordHash)
}

func TestService_Register_Validation(t *testing.T) {
	service := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "", "password123", "Alice")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = service.Register(ctx, "alice@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = service.Register(ctx, "alice@example.com", "short", "Alice")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	service := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	_, err = service.Register(ctx, "alice@example.com", "password456", "Alice Again")

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Authenticate(t *testing.T) {
	service := newTestUserService()
	ctx := context.Background()

	registered, err := service.RegisterAdmin(ctx, "admin@example.com", "password123", "Admin")
	require.NoError(t, err)

	u, err := service.Authenticate(ctx, "admin@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.Equal(t, RoleAdmin, u.Role)

	_, err = service.Authenticate(ctx, "admin@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email reads the same as a wrong password.
	_, err = service.Authenticate(ctx, "ghost@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
