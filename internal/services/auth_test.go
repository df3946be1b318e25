package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetingscheduler/internal/clock"
	"meetingscheduler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt    string
	saltErr error
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return f.salt, f.saltErr }
func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err    error
	expiry time.Duration
}

func (f *fakeTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.expiry = expiry
	return "token-" + userID, nil
}

func newAuthFixture() (domain.AuthService, *fakeUserRepo, *fakeTokenIssuer) {
	users := newFakeUserRepo()
	issuer := &fakeTokenIssuer{}
	clk := clock.NewFixed(time.Date(2023, 4, 1, 9, 0, 0, 0, time.UTC))
	return NewAuthService(users, &fakePasswordHasher{salt: "salt"}, issuer, time.Hour, clk), users, issuer
}

func TestAuthService_SignUp(t *testing.T) {
	svc, users, _ := newAuthFixture()
	u, err := svc.SignUp(context.Background(), " Mario@Example.com ", "supersecret", " Mario ")
	require.NoError(t, err)

	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "mario@example.com", u.Email)
	assert.Equal(t, "Mario", u.Name)
	assert.Equal(t, "hash-salt-supersecret", u.PasswordHash)
	assert.Equal(t, time.Date(2023, 4, 1, 9, 0, 0, 0, time.UTC), u.CreatedAt)
	_, err = users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
}

func TestAuthService_SignUp_invalid(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "mario-at-example", "supersecret"},
		{"short password", "mario@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthFixture()
			_, err := svc.SignUp(context.Background(), tt.email, tt.password, "Mario")
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestAuthService_SignUp_duplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "mario@example.com", "supersecret", "Mario")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "MARIO@example.com", "anothersecret", "Other")
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestAuthService_SignUp_saltError(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users, &fakePasswordHasher{saltErr: errors.New("no entropy")}, &fakeTokenIssuer{}, time.Hour, clock.NewSystem())
	_, err := svc.SignUp(context.Background(), "mario@example.com", "supersecret", "Mario")
	require.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, issuer := newAuthFixture()
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "mario@example.com", "supersecret", "Mario")
	require.NoError(t, err)

	token, u, err := svc.Login(ctx, "Mario@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "token-user-1", token)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, time.Hour, issuer.expiry)
}

func TestAuthService_Login_failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "luigi@example.com", "supersecret"},
		{"wrong password", "mario@example.com", "wrongpassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthFixture()
			ctx := context.Background()
			_, err := svc.SignUp(ctx, "mario@example.com", "supersecret", "Mario")
			require.NoError(t, err)

			_, _, err = svc.Login(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_Login_repoAndTokenErrors(t *testing.T) {
	svc, users, issuer := newAuthFixture()
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "mario@example.com", "supersecret", "Mario")
	require.NoError(t, err)

	issuer.err = errors.New("signing failed")
	_, _, err = svc.Login(ctx, "mario@example.com", "supersecret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)

	users.err = errors.New("db down")
	_, _, err = svc.Login(ctx, "mario@example.com", "supersecret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestAuthService_GetByID(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	created, err := svc.SignUp(ctx, "mario@example.com", "supersecret", "Mario")
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
