// README: HS256 JWT verifier for the local API when Firebase is not configured.
package infra

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type partnerClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier verifies HS256 tokens signed with secret. The subject is the
// caller UID and the optional "role" claim is passed through.
func NewJWTVerifier(secret string) (TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &jwtVerifier{secret: []byte(secret)}, nil
}

func (v *jwtVerifier) VerifyIDToken(_ context.Context, idToken string) (*FirebaseToken, error) {
	tok, err := jwt.ParseWithClaims(idToken, &partnerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*partnerClaims)
	if c == nil || c.Subject == "" {
		return nil, errors.New("invalid claims")
	}
	claims := map[string]interface{}{}
	if c.Role != "" {
		claims["role"] = strings.ToLower(c.Role)
	}
	return &FirebaseToken{UID: c.Subject, Claims: claims}, nil
}

// IssueJWT signs a token for uid, used by the CLI to mint local API tokens.
func IssueJWT(secret, uid, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := partnerClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
