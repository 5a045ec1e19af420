package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/storage/persistent"
)

func newTestAuth() (*Authenticator, *repository.Repository) {
	store := persistent.NewMemoryStore()
	repo := repository.New(store)
	return New(store, repo, "test-signing-key"), repo
}

func TestSignUpCreatesProfile(t *testing.T) {
	a, repo := newTestAuth()
	ctx := context.Background()

	res, err := a.SignUp(ctx, "Ana@Example.com", "password123", "Ana")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)

	user, err := repo.GetUser(ctx, res.UserID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, 10000, user.Goals.DailySteps)

	claims, err := a.ParseAuthToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: res.UserID, Email: "ana@example.com"}, claims)

	_, err = a.SignUp(ctx, "ana@example.com", "password456", "Other")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpRejectsBadInput(t *testing.T) {
	a, _ := newTestAuth()
	_, err := a.SignUp(context.Background(), "not-an-email", "password123", "Ana")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = a.SignUp(context.Background(), "ana@example.com", "short", "Ana")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignIn(t *testing.T) {
	a, _ := newTestAuth()
	ctx := context.Background()
	created, err := a.SignUp(ctx, "bo@example.com", "password123", "Bo")
	require.NoError(t, err)

	res, err := a.SignIn(ctx, "BO@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, res.UserID)

	_, err = a.SignIn(ctx, "bo@example.com", "wrongpass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokens(t *testing.T) {
	a, _ := newTestAuth()
	ctx := context.Background()
	created, err := a.SignUp(ctx, "cy@example.com", "password123", "Cy")
	require.NoError(t, err)

	res, err := a.Refresh(ctx, created.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, res.UserID)

	_, err = a.Refresh(ctx, created.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.ParseAuthToken(created.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAndForeignTokens(t *testing.T) {
	a, _ := newTestAuth()
	a.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, _, err := a.CreateTokens("u1", "u1@example.com")
	require.NoError(t, err)

	_, err = a.ParseAuthToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other, _ := newTestAuth()
	other.signingKey = []byte("another-key")
	foreign, _, err := other.CreateTokens("u1", "u1@example.com")
	require.NoError(t, err)
	_, err = a.ParseAuthToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	a, _ := newTestAuth()
	ctx := context.Background()
	created, err := a.SignUp(ctx, "di@example.com", "password123", "Di")
	require.NoError(t, err)

	assert.ErrorIs(t, a.ChangePassword(ctx, created.UserID, "wrongpass1", "newpass456"), ErrInvalidCredentials)
	require.NoError(t, a.ChangePassword(ctx, created.UserID, "password123", "newpass456"))

	_, err = a.SignIn(ctx, "di@example.com", "newpass456")
	assert.NoError(t, err)
}
