package security

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

const ScopeTimelineRead = "timeline:read"

type RequestClaims struct {
	UserID string   `json:"sub"`
	Email  string   `json:"email"`
	Scope  []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

func (c *RequestClaims) HasScope(scope string) bool {
	return slices.Contains(c.Scope, scope)
}
