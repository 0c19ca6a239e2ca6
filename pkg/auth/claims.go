package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleOwner is the only admin role today.
const RoleOwner = "owner"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AdminID string
	Role    string
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to admins.
type AccessTokenClaims struct {
	AdminID string `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}
