// Package auth turns bearer tokens from the identity provider into sessions.
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DevToken is accepted as a bearer token when the verifier allows it
const DevToken = "dummy-token-for-development"

// Identity of the development token
const (
	DevIdentity = "dev-user"
	DevEmail    = "dev@danam.local"
)

var (
	ErrMissingSecret = errors.New("JWT secret missing")
	ErrInvalidToken  = errors.New("token is invalid or expired")
	ErrNoIdentity    = errors.New("token carries no user identity")
)

// Claims is the token payload; sub carries the identity, user_id is the older spelling
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens
type Verifier struct {
	secret        []byte
	allowDevToken bool
	now           func() time.Time
}

// NewVerifier returns a verifier for tokens signed with secret
func NewVerifier(secret string, allowDevToken bool) *Verifier {
	return &Verifier{secret: []byte(secret), allowDevToken: allowDevToken, now: time.Now}
}

// Verify parses a token and returns the session it represents
func (v *Verifier) Verify(tokenString string) (session.Session, error) {
	if v.allowDevToken && tokenString == DevToken {
		return session.Session{
			ID:        "dev-" + hashToken(tokenString),
			Identity:  DevIdentity,
			Email:     DevEmail,
			ExpiresAt: v.now().Add(24 * time.Hour),
		}, nil
	}
	if len(v.secret) == 0 {
		return session.Session{}, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(v.now))
	if err != nil || !token.Valid {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := claims.Subject
	if identity == "" {
		identity = claims.UserID
	}
	if identity == "" {
		return session.Session{}, ErrNoIdentity
	}

	id := claims.ID
	if id == "" {
		id = hashToken(tokenString)
	}
	return session.Session{
		ID:        id,
		Identity:  identity,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Issuer mints tokens the Verifier accepts; used by the devtoken command and tests
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer signing with secret
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for identity
func (i *Issuer) Issue(identity, email string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := i.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func hashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
