package adminauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/relacksation-backend/pkg/auth"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/security"
)

type sessionManager interface {
	Create(ctx context.Context, adminID string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

// LoginResult is returned to the admin client after a successful login.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	AdminID     string    `json:"adminId"`
	Role        string    `json:"role"`
}

// Service authenticates the owner account configured through the
// environment and manages its token-backed sessions.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	admin    config.AdminConfig
	jwt      config.JWTConfig
	sessions sessionManager
	now      func() time.Time
}

func NewService(admin config.AdminConfig, jwtCfg config.JWTConfig, sessions sessionManager) (Service, error) {
	if strings.TrimSpace(admin.Email) == "" {
		return nil, fmt.Errorf("admin email required")
	}
	if strings.TrimSpace(admin.PasswordHash) == "" {
		return nil, fmt.Errorf("admin password hash required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{admin: admin, jwt: jwtCfg, sessions: sessions, now: time.Now}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	// hash is verified even on an email mismatch so both paths cost the same
	ok, err := security.VerifyPassword(password, s.admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || email != strings.ToLower(strings.TrimSpace(s.admin.Email)) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	accessID, err := s.sessions.Create(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		AdminID: email,
		Role:    auth.RoleOwner,
		JTI:     accessID,
	})
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute).UTC(),
		AdminID:     email,
		Role:        auth.RoleOwner,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
