package token

import (
	"fmt"
	"time"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the claims the portal backend embeds in its bearer
// tokens. The subject carries the user's email.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseIdentity extracts an Identity from a bearer token. This is the one
// place in the codebase that decodes token claims; screens and stores
// must go through it rather than re-implementing token parsing.
//
// The token is parsed without signature verification: validation is the
// backend's job, the client only reads the embedded claims.
func ParseIdentity(tokenString string) (*identity.Identity, error) {
	claims, err := parseClaims(tokenString)
	if err != nil {
		return nil, err
	}

	email := claims.Subject
	if email == "" {
		return nil, fmt.Errorf("token has no subject claim")
	}

	return &identity.Identity{
		Email: email,
		Role:  identity.NormalizeRole(claims.Role),
		Token: tokenString,
	}, nil
}

// ExpiresAt returns the token's embedded expiry, or the zero time if the
// token carries none
func ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := parseClaims(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

func parseClaims(tokenString string) (*Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
