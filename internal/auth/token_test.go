package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pavelanni/englishquiz/internal/model"
)

func newTestIssuer(t *testing.T, secret string, ttl time.Duration) *Issuer {
	t.Helper()
	i, err := NewIssuer(secret, ttl)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return i
}

func TestIssueAndVerify(t *testing.T) {
	i := newTestIssuer(t, "s3cret", time.Hour)
	token, err := i.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := i.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != 7 {
		t.Errorf("Verify() = %d, want 7", id)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	i := newTestIssuer(t, "x", 0)
	if i.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", i.TTL(), DefaultTTL)
	}
}

func TestVerifyRejects(t *testing.T) {
	i := newTestIssuer(t, "s3cret", time.Hour)
	valid, err := i.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expiredIssuer := newTestIssuer(t, "s3cret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(1)
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}

	otherSecret, err := newTestIssuer(t, "other", time.Hour).Issue(1)
	if err != nil {
		t.Fatalf("Issue other: %v", err)
	}

	parts := strings.Split(valid, ".")
	tamperedPayload := parts[0] + "." + parts[1] + "x." + parts[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign no expiry: %v", err)
	}

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign bad subject: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"tampered payload", tamperedPayload},
		{"alg none", none},
		{"no expiry", noExpiry},
		{"non-numeric subject", badSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := i.Verify(tt.token)
			if !errors.Is(err, model.ErrUnauthorized) {
				t.Errorf("Verify() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}
