package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	users := newFakeUserRepo()
	return NewAuthService(users), users
}

func TestRegister_AndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	out, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Alice@Example.com",
		Password: "hunter22",
		FullName: "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.NotEmpty(t, out.User.PasswordHash)

	session, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	require.NotNil(t, session.User.LastLogin)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "other-pass"})
	require.Error(t, err)
	appErr, ok := err.(*AppError)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPCode)
	assert.Equal(t, "Email already registered", appErr.Message)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "hunter22"})
	require.NoError(t, err)

	// Wrong password and unknown email fail identically.
	for _, in := range []LoginInput{
		{Email: "a@b.com", Password: "wrong"},
		{Email: "nobody@b.com", Password: "hunter22"},
	} {
		_, err := svc.Login(context.Background(), in)
		require.Error(t, err)
		appErr, ok := err.(*AppError)
		require.True(t, ok)
		assert.Equal(t, 401, appErr.HTTPCode)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}
}

func TestGetProfile(t *testing.T) {
	svc, _ := newAuthFixture(t)

	out, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "hunter22"})
	require.NoError(t, err)

	user, err := svc.GetProfile(context.Background(), out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	_, err = svc.GetProfile(context.Background(), 999)
	require.Error(t, err)
	appErr, ok := err.(*AppError)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.HTTPCode)
}

func TestOAuthLogin_CreatesAndMatches(t *testing.T) {
	svc, users := newAuthFixture(t)

	identity := OAuthIdentity{ID: "12345", Email: "dev@example.com", FullName: "Dev"}

	first, err := svc.OAuthLogin(context.Background(), "github", identity)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, "github", first.User.Provider)

	// Second sign-in resolves by provider identity, not by creating again.
	second, err := svc.OAuthLogin(context.Background(), "github", identity)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Len(t, users.users, 1)
}

func TestOAuthLogin_LinksExistingEmail(t *testing.T) {
	svc, users := newAuthFixture(t)

	local, err := svc.Register(context.Background(), RegisterInput{Email: "dev@example.com", Password: "hunter22"})
	require.NoError(t, err)

	out, err := svc.OAuthLogin(context.Background(), "google", OAuthIdentity{ID: "g-1", Email: "dev@example.com"})
	require.NoError(t, err)
	assert.Equal(t, local.User.ID, out.User.ID)
	assert.Equal(t, "google", out.User.Provider)
	assert.Len(t, users.users, 1)
}

func TestOAuthLogin_RequiresEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.OAuthLogin(context.Background(), "github", OAuthIdentity{ID: "12345"})
	require.Error(t, err)
	appErr, ok := err.(*AppError)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
}
