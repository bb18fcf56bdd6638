package security

import (
	"testing"
	"time"
	"uptimeline/config"
	"uptimeline/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_RoundTrip(t *testing.T) {
	ts := NewTokenService(&config.AuthConfig{Secret: "0123456789abcdef", ExpiryMin: 5})

	token, err := ts.GenerateAccessToken(RequestClaims{
		UserID: "u-1",
		Email:  "ops@example.com",
		Scope:  []string{ScopeTimelineRead},
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ts.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "ops@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.HasScope(ScopeTimelineRead) {
		t.Errorf("HasScope(%s) = false, want true", ScopeTimelineRead)
	}
	if claims.HasScope("checks:write") {
		t.Error("HasScope(checks:write) = true, want false")
	}
}

func TestTokenService_Rejects(t *testing.T) {
	ts := NewTokenService(&config.AuthConfig{Secret: "0123456789abcdef", ExpiryMin: 5})
	other := NewTokenService(&config.AuthConfig{Secret: "fedcba9876543210", ExpiryMin: 5})

	foreign, _ := other.GenerateAccessToken(RequestClaims{UserID: "u-1", Email: "a@b.c"})

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, RequestClaims{
		UserID: "u-1",
		Email:  "a@b.c",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, _ := expired.SignedString([]byte("0123456789abcdef"))

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, RequestClaims{UserID: "u-1", Email: "a@b.c"})
	noExpiryToken, _ := noExpiry.SignedString([]byte("0123456789abcdef"))

	for name, token := range map[string]string{
		"garbage":   "not.a.token",
		"foreign":   foreign,
		"expired":   expiredToken,
		"no expiry": noExpiryToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ts.ValidateAccessToken(token)
			if !apperror.IsKind(err, apperror.Unauthorised) {
				t.Errorf("ValidateAccessToken err = %v, want unauthorised", err)
			}
		})
	}
}

func TestAgentKeyVerifier(t *testing.T) {
	hash, err := HashAgentKey("probe-secret")
	if err != nil {
		t.Fatalf("HashAgentKey: %v", err)
	}
	v := NewAgentKeyVerifier(hash)

	for i := 0; i < 2; i++ {
		ok, err := v.Verify("probe-secret")
		if err != nil || !ok {
			t.Fatalf("Verify(correct) attempt %d = %v, %v; want true", i, ok, err)
		}
	}

	if ok, _ := v.Verify("wrong"); ok {
		t.Error("Verify(wrong) = true, want false")
	}
	if ok, _ := v.Verify(""); ok {
		t.Error("Verify(empty) = true, want false")
	}
}

func TestAgentKeyVerifier_BadHash(t *testing.T) {
	v := NewAgentKeyVerifier("not-a-hash")
	if ok, err := v.Verify("anything"); ok || err == nil {
		t.Errorf("Verify with malformed hash = %v, %v; want false and an error", ok, err)
	}
}
