package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/auth"
)

// bcrypt cost 4 keeps these tests fast; the hashing logic is identical.
func newTestUserService() (*UserService, *mockUserRepo) {
	users := newMockUserRepo()
	svc := NewUserService(users, auth.NewPasswordServiceForTest(4), testLogger())
	return svc, users
}

func TestRegister(t *testing.T) {
	svc, _ := newTestUserService()

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "correct-horse")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	// The hash must never equal the plaintext
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestUserService()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "password1"},
		{"username too long", strings.Repeat("x", MaxUsernameLength+1), "a@example.com", "password1"},
		{"empty email", "alice", "", "password1"},
		{"email without @", "alice", "not-an-email", "password1"},
		{"email too long", "alice", strings.Repeat("x", MaxEmailLength) + "@e.co", "password1"},
		{"password too short", "alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "other@example.com", "password1")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestUserService()

	registered, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

// Wrong password and unknown username must be indistinguishable so login
// responses don't reveal which usernames exist.
func TestAuthenticate_BadCredentials(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(context.Background(), "alice", "wrong")
	_, unknownUser := svc.Authenticate(context.Background(), "nobody", "password1")

	assert.ErrorIs(t, wrongPassword, apperror.ErrUnauthorized)
	assert.ErrorIs(t, unknownUser, apperror.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestProfile_UnknownUser(t *testing.T) {
	svc, _ := newTestUserService()

	_, err := svc.Profile(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
