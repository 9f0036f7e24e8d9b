package api

import (
	"fmt"

	"github.com/FairForge/aethernav/internal/policy"
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims carries the identity context inside a bearer token.
type UserClaims struct {
	Roles     []string `json:"roles,omitempty"`
	TenantID  string   `json:"tenant_id,omitempty"`
	Locale    string   `json:"locale,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// ParseUserToken validates an HS256 bearer token and maps its claims onto a
// user context. The subject claim becomes the user id.
func ParseUserToken(secret, tokenString string) (policy.UserContext, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return policy.UserContext{}, fmt.Errorf("api: parse token: %w", err)
	}
	if !token.Valid {
		return policy.UserContext{}, fmt.Errorf("api: invalid token")
	}

	return policy.UserContext{
		UserID:    claims.Subject,
		Roles:     claims.Roles,
		TenantID:  claims.TenantID,
		Locale:    claims.Locale,
		SessionID: claims.SessionID,
	}, nil
}
