package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	j := &JWTer{Secret: []byte("k"), Issuer: "lawdesk", TTL: time.Hour}
	tok, err := j.Issue("6650b1c2e4b0a1a2b3c4d5e6", "lawyer")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "6650b1c2e4b0a1a2b3c4d5e6", c.UID)
	assert.Equal(t, "lawyer", c.Role)
	assert.Equal(t, c.UID, c.Subject)

	_, err = j.Issue("", "lawyer")
	assert.Error(t, err)
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j := &JWTer{Secret: []byte("k"), Issuer: "lawdesk", TTL: time.Hour, Now: func() time.Time { return now }}
	tok, err := j.Issue("u1", "admin")
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "lawdesk", TTL: time.Hour, Now: j.Now}
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	wrongIssuer := &JWTer{Secret: []byte("k"), Issuer: "someone-else", TTL: time.Hour, Now: j.Now}
	_, err = wrongIssuer.Parse(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	later := &JWTer{Secret: []byte("k"), Issuer: "lawdesk", TTL: time.Hour, Now: func() time.Time { return now.Add(2 * time.Hour) }}
	_, err = later.Parse(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = j.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
