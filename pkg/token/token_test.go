package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbibank/internal/model"
	"cbibank/pkg/token"
)

func TestGenerateAndParse(t *testing.T) {
	m := token.NewManager("test-secret", "cbibank", time.Hour)

	signed, err := m.Generate(42, model.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, model.RoleCustomer, claims.Role)
	assert.Equal(t, "cbibank", claims.Issuer)
}

func TestParse_Expired(t *testing.T) {
	m := token.NewManager("test-secret", "cbibank", -time.Minute)

	signed, err := m.Generate(1, model.RoleCustomer)
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := token.NewManager("secret-a", "cbibank", time.Hour)
	validator := token.NewManager("secret-b", "cbibank", time.Hour)

	signed, err := issuer.Generate(1, model.RoleAdmin)
	require.NoError(t, err)

	_, err = validator.Parse(signed)
	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestParse_Malformed(t *testing.T) {
	m := token.NewManager("test-secret", "cbibank", time.Hour)

	_, err := m.Parse("not-a-jwt")
	assert.ErrorIs(t, err, token.ErrTokenMalformed)
}
