package services

import (
	"context"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Aiko", Email: " Aiko@Example.com ", Password: "s3cret-pass", Phone: "+15550100"})
	require.NoError(t, err)
	assert.Equal(t, "aiko@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "aiko@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "aiko@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Aiko", Email: "aiko@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "AIKO@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "long-enough"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "long-enough"}},
		{"short password", RegisterInput{Name: "A", Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateStaff(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	user, err := svc.CreateStaff(context.Background(), "Chef", "chef@example.com", "kitchen-pass")
	require.NoError(t, err)
	assert.True(t, user.Role.IsStaff())
}
