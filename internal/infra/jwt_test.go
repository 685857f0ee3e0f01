package infra

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	tok, err := IssueJWT("s3cret", "partner-1", "Partner", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	v, err := NewJWTVerifier("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	got, err := v.VerifyIDToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UID != "partner-1" || got.Claims["role"] != "partner" {
		t.Fatalf("unexpected token %+v", got)
	}
}

func TestJWTRejects(t *testing.T) {
	v, _ := NewJWTVerifier("s3cret")
	ctx := context.Background()

	wrong, _ := IssueJWT("other", "partner-1", "", time.Hour)
	if _, err := v.VerifyIDToken(ctx, wrong); err == nil {
		t.Error("expected signature mismatch to fail")
	}
	expired, _ := IssueJWT("s3cret", "partner-1", "", -time.Minute)
	if _, err := v.VerifyIDToken(ctx, expired); err == nil {
		t.Error("expected expired token to fail")
	}
	noSub, _ := IssueJWT("s3cret", "", "", time.Hour)
	if _, err := v.VerifyIDToken(ctx, noSub); err == nil {
		t.Error("expected token without subject to fail")
	}
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := v.VerifyIDToken(ctx, none); err == nil {
		t.Error("expected alg none to fail")
	}
	if _, err := NewJWTVerifier(""); err == nil {
		t.Error("expected empty secret to fail")
	}
}
