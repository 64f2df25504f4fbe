package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quotad/internal/models"
)

var signingMethod = jwt.SigningMethodHS256

var ErrNoToken = errors.New("no bearer token")

// TokenVerifier reads the identity provider's bearer token.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret, issuer string, now func() time.Time) *TokenVerifier {
	if now == nil {
		now = time.Now
	}
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, now: now}
}

func (tv *TokenVerifier) Enabled() bool {
	return len(tv.secret) > 0
}

// Verify validates an Authorization header value and returns the
// registered identity it carries.
func (tv *TokenVerifier) Verify(header string) (models.Identity, error) {
	if !tv.Enabled() {
		return models.Identity{}, errors.New("identity provider disabled")
	}
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return models.Identity{}, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(tv.now),
	}
	if tv.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tv.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return tv.secret, nil
	}, opts...)
	if err != nil {
		return models.Identity{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return models.Identity{}, errors.New("token has no subject")
	}
	return models.Identity{Registered: true, OwnerID: claims.Subject}, nil
}

// Identify never fails: anything short of a valid token is anonymous.
func (tv *TokenVerifier) Identify(header string) models.Identity {
	id, err := tv.Verify(header)
	if err != nil {
		return models.Identity{}
	}
	return id
}

// IssueToken mints a token the verifier accepts. Used by tests and local tooling.
func (tv *TokenVerifier) IssueToken(subject string, ttl time.Duration) (string, error) {
	if !tv.Enabled() {
		return "", errors.New("identity provider disabled")
	}
	now := tv.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    tv.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(tv.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
