package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	signed, err := GenerateJWT("u1", "a@x.com", "ADMIN", "secret", 5)
	require.NoError(t, err)

	claims, err := ValidateJWT(signed, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, err := GenerateJWT("u1", "a@x.com", "", "secret", 5)
	require.NoError(t, err)

	_, err = ValidateJWT(signed, "other")
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	signed, err := GenerateJWT("u1", "a@x.com", "", "secret", -1)
	require.NoError(t, err)

	_, err = ValidateJWT(signed, "secret")
	assert.EqualError(t, err, "token has expired")
}

func TestValidateRejectsEmpty(t *testing.T) {
	_, err := ValidateJWT("", "secret")
	assert.Error(t, err)
}
