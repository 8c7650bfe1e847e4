package approval

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return signed
}

func TestResolveActorDisabledVerifierPassesRawThrough(t *testing.T) {
	v := NewActorVerifier("")
	actor, err := v.ResolveActor("ops-oncall")
	if err != nil {
		t.Fatalf("ResolveActor() error = %v", err)
	}
	if actor != "ops-oncall" {
		t.Errorf("ResolveActor() = %q, want %q", actor, "ops-oncall")
	}
}

func TestResolveActorValidTokenReturnsSubject(t *testing.T) {
	v := NewActorVerifier("s3cret")
	token := signToken(t, "s3cret", "user-42")

	actor, err := v.ResolveActor(token)
	if err != nil {
		t.Fatalf("ResolveActor() error = %v", err)
	}
	if actor != "user-42" {
		t.Errorf("ResolveActor() = %q, want %q", actor, "user-42")
	}
}

func TestResolveActorNonTokenRawStringPassesThrough(t *testing.T) {
	v := NewActorVerifier("s3cret")
	actor, err := v.ResolveActor("not-a-jwt")
	if err != nil {
		t.Fatalf("ResolveActor() error = %v", err)
	}
	if actor != "not-a-jwt" {
		t.Errorf("ResolveActor() = %q, want raw string passthrough", actor)
	}
}

func TestResolveActorWrongSecretFallsBackToRaw(t *testing.T) {
	v := NewActorVerifier("s3cret")
	token := signToken(t, "different-secret", "user-99")

	actor, err := v.ResolveActor(token)
	if err != nil {
		t.Fatalf("ResolveActor() error = %v", err)
	}
	if actor != token {
		t.Errorf("ResolveActor() = %q, want the raw token string back unverified", actor)
	}
}
