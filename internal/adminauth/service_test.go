package adminauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/relacksation-backend/pkg/auth"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	created   []string
	revoked   []string
	createErr error
}

func (f *fakeSessions) Create(_ context.Context, adminID string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, adminID)
	return "access-1", nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "relacksation",
	ExpirationMinutes: 30,
	SessionTTLMinutes: 60,
}

func newTestService(t *testing.T, sessions *fakeSessions) *service {
	t.Helper()
	hash, err := security.HashPassword("hunter22", config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)

	svc, err := NewService(config.AdminConfig{Email: "Owner@Example.com", PasswordHash: hash}, testJWT, sessions)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return impl
}

func TestLoginIssuesTokenBoundToSession(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestService(t, sessions)

	res, err := svc.Login(context.Background(), " owner@example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "owner@example.com", res.AdminID)
	assert.Equal(t, auth.RoleOwner, res.Role)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), res.ExpiresAt)
	assert.Equal(t, []string{"owner@example.com"}, sessions.created)
	assert.NotEmpty(t, res.AccessToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestService(t, sessions)

	_, err := svc.Login(context.Background(), "owner@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.Login(context.Background(), "intruder@example.com", "hunter22")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.Login(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	assert.Empty(t, sessions.created)
}

func TestLoginSessionStoreFailure(t *testing.T) {
	sessions := &fakeSessions{createErr: errors.New("redis down")}
	svc := newTestService(t, sessions)

	_, err := svc.Login(context.Background(), "owner@example.com", "hunter22")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestService(t, sessions)

	require.NoError(t, svc.Logout(context.Background(), "access-1"))
	assert.Equal(t, []string{"access-1"}, sessions.revoked)

	err := svc.Logout(context.Background(), " ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(config.AdminConfig{}, testJWT, &fakeSessions{})
	require.Error(t, err)
	_, err = NewService(config.AdminConfig{Email: "a@b.c", PasswordHash: "x"}, testJWT, nil)
	require.Error(t, err)
}
