package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/relacksation-backend/api/responses"
	pkgAuth "github.com/angelmondragon/relacksation-backend/pkg/auth"
	"github.com/angelmondragon/relacksation-backend/pkg/auth/session"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/relacksation-backend/pkg/errors"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

// AdminAuth admits requests carrying a valid owner bearer token whose session
// is still live in Redis. A nil verifier skips the session lookup.
func AdminAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r.Context(), cfg, verifier, bearerToken(r.Header.Get("Authorization")))
			if err != nil {
				if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="relacks-admin"`)
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			if logg != nil {
				ctx = logg.WithAdminID(ctx, id.AdminID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, token string) (Identity, error) {
	if token == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	switch {
	case errors.Is(err, pkgAuth.ErrTokenExpired):
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired")
	case err != nil:
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	case claims.ID == "":
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	case claims.Role != pkgAuth.RoleOwner:
		return Identity{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	if verifier != nil {
		live, err := verifier.HasSession(ctx, claims.ID)
		if err != nil {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired")
		}
	}
	return Identity{AdminID: claims.AdminID, Role: claims.Role, AccessID: claims.ID}, nil
}

// bearerToken accepts both "Bearer <jwt>" and a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, rest, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
