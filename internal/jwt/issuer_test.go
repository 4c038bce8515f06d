package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer("s3cret", "soma", time.Hour)
	require.NoError(t, err)

	tok, exp, err := iss.Issue("u123", "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u123", claims.Subject)
	assert.Equal(t, RoleVendor, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestParse_Rejects(t *testing.T) {
	iss, err := NewIssuer("s3cret", "soma", time.Hour)
	require.NoError(t, err)
	tok, _, err := iss.Issue("u123", RoleAdmin)
	require.NoError(t, err)

	other, err := NewIssuer("other-secret", "soma", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss, err := NewIssuer("s3cret", "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = wrongIss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// "none" y otros algoritmos no se aceptan.
	unsigned, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, jwtv5.MapClaims{"sub": "u123", "iss": "soma"}).
		SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	iss, err := NewIssuer("s3cret", "soma", time.Minute)
	require.NoError(t, err)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := iss.Issue("u123", "")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", "soma", 0)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
