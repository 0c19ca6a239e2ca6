package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/relacksation-backend/pkg/auth"
	"github.com/angelmondragon/relacksation-backend/pkg/auth/session"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
)

var adminJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type sessionStub struct {
	live bool
	err  error
}

func (s sessionStub) HasSession(context.Context, string) (bool, error) {
	return s.live, s.err
}

func ownerToken(t *testing.T, issuedAt time.Time) (token, accessID string) {
	t.Helper()
	accessID = session.NewAccessID()
	token, err := auth.MintAccessToken(adminJWT, issuedAt, auth.AccessTokenPayload{
		AdminID: "owner@example.com",
		Role:    auth.RoleOwner,
		JTI:     accessID,
	})
	require.NoError(t, err)
	return token, accessID
}

func serveAdmin(verifier session.AccessSessionChecker, authorization string, next http.Handler) *httptest.ResponseRecorder {
	if next == nil {
		next = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/bookings", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	AdminAuth(adminJWT, verifier, nil)(next).ServeHTTP(rec, req)
	return rec
}

func errorCodeAndMessage(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code, body.Error.Message
}

func TestAdminAuthRejections(t *testing.T) {
	live, _ := ownerToken(t, time.Now())
	expired, _ := ownerToken(t, time.Now().Add(-2*time.Hour))

	cases := []struct {
		name     string
		header   string
		verifier session.AccessSessionChecker
		status   int
		message  string
	}{
		{"missing header", "", sessionStub{live: true}, http.StatusUnauthorized, "missing credentials"},
		{"garbage token", "Bearer not-a-jwt", sessionStub{live: true}, http.StatusUnauthorized, "invalid token"},
		{"expired token", "Bearer " + expired, sessionStub{live: true}, http.StatusUnauthorized, "token expired"},
		{"revoked session", "Bearer " + live, sessionStub{live: false}, http.StatusUnauthorized, "session revoked or expired"},
		{"session store down", "Bearer " + live, sessionStub{err: errors.New("redis down")}, http.StatusServiceUnavailable, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveAdmin(tc.verifier, tc.header, nil)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
				_, msg := errorCodeAndMessage(t, rec)
				assert.Equal(t, tc.message, msg)
			} else {
				code, _ := errorCodeAndMessage(t, rec)
				assert.Equal(t, "DEPENDENCY_ERROR", code)
			}
		})
	}
}

func TestAdminAuthSeedsIdentity(t *testing.T) {
	token, accessID := ownerToken(t, time.Now())

	var seen Identity
	rec := serveAdmin(sessionStub{live: true}, "bearer "+token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		assert.Equal(t, seen.AdminID, AdminIDFromContext(r.Context()))
		assert.Equal(t, seen.AccessID, AccessIDFromContext(r.Context()))
		assert.Equal(t, seen.Role, RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, Identity{AdminID: "owner@example.com", Role: auth.RoleOwner, AccessID: accessID}, seen)
}

func TestAdminAuthWithoutVerifierTrustsToken(t *testing.T) {
	token, _ := ownerToken(t, time.Now())
	assert.Equal(t, http.StatusNoContent, serveAdmin(nil, "Bearer "+token, nil).Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("  BEARER   abc "))
	assert.Equal(t, "abc", bearerToken("abc"))
	assert.Empty(t, bearerToken(""))
}

func TestWithAdminIDKeepsOtherIdentityFields(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Role: auth.RoleOwner, AccessID: "jti"})
	ctx = WithAdminID(ctx, "owner@example.com")

	assert.Equal(t, Identity{AdminID: "owner@example.com", Role: auth.RoleOwner, AccessID: "jti"}, IdentityFromContext(ctx))
	assert.Empty(t, AdminIDFromContext(context.Background()))
}
