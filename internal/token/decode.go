// Package token handles the upstream bearer token: persistence in a
// per-session slot and advisory decoding of its JWT claims.
//
// Decoding here never verifies a signature. The identity it yields is for
// display and routing only and MUST NOT be treated as a trust boundary; real
// authorization happens on the backend on every API call via the bearer
// token itself.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "verigate/pkg/domain-errors"
)

// Identity is the user identity carried in the backend-issued JWT. It is
// derived, never independently persisted: reconstructed from the token
// whenever a session is restored.
type Identity struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     string    `json:"createdAt"`
	ExpiresAt     time.Time `json:"-"`
}

// Canonical role vocabulary. Legacy role names from the older API are
// normalized at decode time (see normalizeRole).
const (
	RoleUser             = "user"
	RoleInstitutionAdmin = "institution_admin"
	RoleEmployer         = "employer"
	RoleAdmin            = "admin"
	RoleSuperAdmin       = "super_admin"
)

type claims struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
	jwt.RegisteredClaims
}

// Decode extracts the identity from a bearer token without verifying its
// signature. Expired or malformed tokens return a coded unauthorized error;
// callers are expected to clear the stored token in response.
func Decode(tokenString string) (*Identity, error) {
	return decodeAt(tokenString, time.Now())
}

func decodeAt(tokenString string, now time.Time) (*Identity, error) {
	var c claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &c); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	}

	id := c.ID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	identity := &Identity{
		ID:            id,
		Email:         c.Email,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Role:          normalizeRole(c.Role),
		Status:        c.Status,
		EmailVerified: c.EmailVerified,
		CreatedAt:     c.CreatedAt,
	}
	if c.ExpiresAt != nil {
		identity.ExpiresAt = c.ExpiresAt.Time
	}
	return identity, nil
}

// normalizeRole maps the legacy role vocabulary onto the canonical one. The
// older API used individual/university; both still appear in long-lived
// tokens.
func normalizeRole(role string) string {
	switch role {
	case "individual":
		return RoleUser
	case "university":
		return RoleInstitutionAdmin
	default:
		return role
	}
}
