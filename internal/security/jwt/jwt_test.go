package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	m := NewManager("0123456789abcdef", 60, "authlog")
	tok, err := m.Generate(7, []int64{1, 2}, "jti-1")
	require.NoError(t, err)

	c, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.UserID)
	assert.Equal(t, []int64{1, 2}, c.Roles)
	assert.Equal(t, "jti-1", c.JTI)
	assert.Equal(t, time.Minute, m.ExpireDuration())
}

func TestParse_Rejects(t *testing.T) {
	m := NewManager("0123456789abcdef", 60, "authlog")

	other, err := NewManager("0123456789abcdef", 60, "other").Generate(7, nil, "j")
	require.NoError(t, err)
	_, err = m.Parse(other)
	assert.Error(t, err, "issuer mismatch")

	wrongKey, err := NewManager("fedcba9876543210", 60, "authlog").Generate(7, nil, "j")
	require.NoError(t, err)
	_, err = m.Parse(wrongKey)
	assert.Error(t, err)

	expired, err := NewManager("0123456789abcdef", -60, "authlog").Generate(7, nil, "j")
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.Error(t, err)

	noSub, err := m.Generate(0, nil, "j")
	require.NoError(t, err)
	_, err = m.Parse(noSub)
	assert.Error(t, err)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{UserID: 7}).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(none)
	assert.Error(t, err)
}
