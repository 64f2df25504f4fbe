package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotad/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
}

func TestTokenVerifier_ValidToken(t *testing.T) {
	tv := NewTokenVerifier("secret", "auth.convertpro", fixedNow)
	token, err := tv.IssueToken("uid-1", time.Hour)
	require.NoError(t, err)

	id, err := tv.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{Registered: true, OwnerID: "uid-1"}, id)
}

func TestTokenVerifier_MissingHeader(t *testing.T) {
	tv := NewTokenVerifier("secret", "", fixedNow)
	_, err := tv.Verify("")
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = tv.Verify("Basic abc")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, models.Identity{}, tv.Identify(""))
}

func TestTokenVerifier_WrongSecret(t *testing.T) {
	issuer := NewTokenVerifier("other", "", fixedNow)
	token, err := issuer.IssueToken("uid-1", time.Hour)
	require.NoError(t, err)

	tv := NewTokenVerifier("secret", "", fixedNow)
	_, err = tv.Verify("Bearer " + token)
	assert.Error(t, err)
	assert.Equal(t, models.Identity{}, tv.Identify("Bearer "+token))
}

func TestTokenVerifier_Expired(t *testing.T) {
	past := func() time.Time { return fixedNow().Add(-2 * time.Hour) }
	token, err := NewTokenVerifier("secret", "", past).IssueToken("uid-1", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenVerifier("secret", "", fixedNow).Verify("Bearer " + token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenVerifier_WrongIssuer(t *testing.T) {
	token, err := NewTokenVerifier("secret", "someone-else", fixedNow).IssueToken("uid-1", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenVerifier("secret", "auth.convertpro", fixedNow).Verify("Bearer " + token)
	assert.Error(t, err)
}

func TestTokenVerifier_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "uid-1", ExpiresAt: jwt.NewNumericDate(fixedNow().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenVerifier("secret", "", fixedNow).Verify("Bearer " + token)
	assert.Error(t, err)
}

func TestTokenVerifier_EmptySubject(t *testing.T) {
	tv := NewTokenVerifier("secret", "", fixedNow)
	token, err := tv.IssueToken("", time.Hour)
	require.NoError(t, err)
	_, err = tv.Verify("Bearer " + token)
	assert.Error(t, err)
}

func TestTokenVerifier_Disabled(t *testing.T) {
	tv := NewTokenVerifier("", "", fixedNow)
	assert.False(t, tv.Enabled())
	assert.Equal(t, models.Identity{}, tv.Identify("Bearer anything"))
	_, err := tv.IssueToken("uid", time.Hour)
	assert.Error(t, err)
}
