package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestIssueAndVerify(t *testing.T) {
	token, err := NewIssuer(testSecret, time.Hour).Issue("user-1", "user1@example.com")
	if err != nil {
		t.Fatal(err)
	}
	sess, err := NewVerifier(testSecret, false).Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.Identity != "user-1" || sess.Email != "user1@example.com" {
		t.Fatalf("session = %+v", sess)
	}
	if sess.ID == "" || sess.ExpiresAt.IsZero() {
		t.Fatalf("session missing id or expiry: %+v", sess)
	}
}

func TestVerifyRejectsWrongSecretAndExpired(t *testing.T) {
	token, _ := NewIssuer("other", time.Hour).Issue("user-1", "")
	if _, err := NewVerifier(testSecret, false).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v", err)
	}

	issuer := NewIssuer(testSecret, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := issuer.Issue("user-1", "")
	if _, err := NewVerifier(testSecret, false).Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired err = %v", err)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte(testSecret))
	if _, err := NewVerifier(testSecret, false).Verify(token); err == nil {
		t.Fatal("token without exp should be rejected")
	}
}

func TestVerifyFallsBackToUserIDAndTokenHash(t *testing.T) {
	claims := jwt.MapClaims{"user_id": "legacy-user", "exp": time.Now().Add(time.Hour).Unix()}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	sess, err := NewVerifier(testSecret, false).Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Identity != "legacy-user" {
		t.Fatalf("Identity = %q", sess.Identity)
	}
	if sess.ID != hashToken(token) {
		t.Fatal("session id should be the token hash when jti is absent")
	}
}

func TestDevToken(t *testing.T) {
	if _, err := NewVerifier(testSecret, false).Verify(DevToken); err == nil {
		t.Fatal("dev token must be refused unless allowed")
	}
	sess, err := NewVerifier("", true).Verify(DevToken)
	if err != nil || sess.Identity != DevIdentity {
		t.Fatalf("dev token: %+v, %v", sess, err)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("BearerToken = %q,%v", tok, ok)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer"} {
		if _, ok := BearerToken(h); ok {
			t.Errorf("BearerToken(%q) should fail", h)
		}
	}
}
