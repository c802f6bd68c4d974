// Package identity turns request credentials into an authenticated principal.
// The rest of the service trusts a resolved Principal verbatim.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/DhavalSuthar-24/stepsquad/pkg/token"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ParseRole accepts ADMIN or MEMBER in any case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	}
	return "", false
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`

	// RoleClaimed is set when the credential carried an explicit role, which
	// then overrides the stored one.
	RoleClaimed bool `json:"-"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Credential is whatever the transport extracted from the request.
type Credential struct {
	BearerToken string
	DevUser     string
}

var ErrNoCredential = errors.New("no credential supplied")

// Provider resolves a credential into a principal.
type Provider interface {
	Resolve(ctx context.Context, cred Credential) (Principal, error)
}

// RoleFor picks the role from an explicit claim, then the admin email rule.
func RoleFor(claim, email, adminEmail string) Role {
	if r, ok := ParseRole(claim); ok {
		return r
	}
	if adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), adminEmail) {
		return RoleAdmin
	}
	return RoleMember
}

// JWTProvider verifies HS256 bearer tokens.
type JWTProvider struct {
	Secret     string
	AdminEmail string
}

func (p JWTProvider) Resolve(_ context.Context, cred Credential) (Principal, error) {
	if cred.BearerToken == "" {
		return Principal{}, ErrNoCredential
	}
	claims, err := token.ValidateJWT(cred.BearerToken, p.Secret)
	if err != nil {
		return Principal{}, err
	}
	_, claimed := ParseRole(claims.Role)
	return Principal{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        RoleFor(claims.Role, claims.Email, p.AdminEmail),
		RoleClaimed: claimed,
	}, nil
}

// DevHeaderProvider trusts an X-Dev-User email header. Local development only.
type DevHeaderProvider struct {
	AdminEmail string
}

func (p DevHeaderProvider) Resolve(_ context.Context, cred Credential) (Principal, error) {
	email := strings.ToLower(strings.TrimSpace(cred.DevUser))
	if email == "" {
		return Principal{}, ErrNoCredential
	}
	return Principal{
		UserID: DevUserID(email),
		Email:  email,
		Role:   RoleFor("", email, p.AdminEmail),
	}, nil
}

// DevUserID derives a stable uid from an email.
func DevUserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}

// Chain tries providers in order and returns the first success. A provider
// that sees no credential of its kind is skipped.
type Chain []Provider

func (c Chain) Resolve(ctx context.Context, cred Credential) (Principal, error) {
	lastErr := ErrNoCredential
	for _, p := range c {
		principal, err := p.Resolve(ctx, cred)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, ErrNoCredential) {
			lastErr = err
		}
	}
	return Principal{}, lastErr
}
