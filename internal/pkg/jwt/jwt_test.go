package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)
	token, claims, err := svc.GenerateToken("user-1", "hospital")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "hospital", got.Role)
	assert.Equal(t, claims.ID, got.ID)

	_, other, err := svc.GenerateToken("user-1", "hospital")
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, other.ID)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := New("secret", time.Hour)

	expired, _, err := New("secret", -time.Minute).GenerateToken("u", "donor")
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, _, err := New("other", time.Hour).GenerateToken("u", "donor")
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, &Claims{UserID: "u"})
	unsigned, err := none.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
