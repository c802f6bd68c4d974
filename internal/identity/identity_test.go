package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/DhavalSuthar-24/stepsquad/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFor(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleFor("admin", "x@y", "boss@y"))
	assert.Equal(t, RoleMember, RoleFor("MEMBER", "boss@y", "boss@y"))
	assert.Equal(t, RoleAdmin, RoleFor("", "Boss@Y", "boss@y"))
	assert.Equal(t, RoleMember, RoleFor("superuser", "x@y", "boss@y"))
}

func TestJWTProvider(t *testing.T) {
	signed, err := token.GenerateJWT("u1", "boss@y", "", "s3cret", 5)
	require.NoError(t, err)

	p := JWTProvider{Secret: "s3cret", AdminEmail: "boss@y"}
	principal, err := p.Resolve(context.Background(), Credential{BearerToken: signed})
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "u1", Email: "boss@y", Role: RoleAdmin}, principal)
	assert.False(t, principal.RoleClaimed)

	_, err = p.Resolve(context.Background(), Credential{})
	assert.True(t, errors.Is(err, ErrNoCredential))
}

func TestDevHeaderProviderIsStable(t *testing.T) {
	p := DevHeaderProvider{AdminEmail: "admin@stepsquad.com"}
	a, err := p.Resolve(context.Background(), Credential{DevUser: "Member@Example.com"})
	require.NoError(t, err)
	b, err := p.Resolve(context.Background(), Credential{DevUser: "member@example.com"})
	require.NoError(t, err)

	assert.Equal(t, a.UserID, b.UserID)
	assert.Equal(t, "member@example.com", a.Email)
	assert.Equal(t, RoleMember, a.Role)

	admin, err := p.Resolve(context.Background(), Credential{DevUser: "admin@stepsquad.com"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestChainReportsRealFailure(t *testing.T) {
	chain := Chain{JWTProvider{Secret: "s"}, DevHeaderProvider{}}

	_, err := chain.Resolve(context.Background(), Credential{})
	assert.True(t, errors.Is(err, ErrNoCredential))

	_, err = chain.Resolve(context.Background(), Credential{BearerToken: "garbage"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoCredential))

	p, err := chain.Resolve(context.Background(), Credential{DevUser: "a@b"})
	require.NoError(t, err)
	assert.Equal(t, "a@b", p.Email)
}
