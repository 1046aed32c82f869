package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/ayimolou/ayimolou-backend/pkg/enums"
)

// AccessTokenPayload is the identity asserted when minting a token.
type AccessTokenPayload struct {
	UserID string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims is the identity-provider token. user_id is the provider
// uid and matches users.id.
type AccessTokenClaims struct {
	UserID string         `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
