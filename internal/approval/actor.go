package approval

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ActorClaims is the JWT payload an approval actor may optionally present
// instead of a bare actor string: its subject claim becomes the resolved
// actor. This is additive verification, not a requirement — ResolveActor
// falls back to the raw string whenever it does not parse as a JWT signed
// with secret.
type ActorClaims struct {
	jwt.RegisteredClaims
}

// ActorVerifier optionally turns a bearer JWT into a verified actor
// identity string for resolve_approval, grounded on the same
// HS256-subject-claim convention as the teacher's auth.JWTService.
type ActorVerifier struct {
	secret []byte
}

// NewActorVerifier builds a verifier bound to secret. An empty secret
// disables verification entirely: ResolveActor then always returns raw.
func NewActorVerifier(secret string) *ActorVerifier {
	return &ActorVerifier{secret: []byte(secret)}
}

// ResolveActor returns the verified JWT subject for raw when raw parses
// and validates as a token signed with the verifier's secret; otherwise it
// returns raw unchanged. A disabled verifier (no secret) always passes raw
// through.
func (v *ActorVerifier) ResolveActor(raw string) (string, error) {
	if v == nil || len(v.secret) == 0 || strings.TrimSpace(raw) == "" {
		return raw, nil
	}

	parsed, err := jwt.ParseWithClaims(raw, &ActorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		// Not a token (or not one we can verify): treat raw as a plain actor
		// string, per the additive-not-required contract.
		return raw, nil
	}

	claims, ok := parsed.Claims.(*ActorClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return raw, nil
	}
	return claims.Subject, nil
}
