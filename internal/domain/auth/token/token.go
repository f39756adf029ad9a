package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"

	"github.com/quillist/auth-core/internal/domain/auth/model"
)

// Purpose scopes a single-use link token to exactly one flow.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	// Refresh discriminates token kind on the wire; access tokens never
	// set it, so neither kind validates as the other.
	Refresh bool `json:"refresh"`
}

type PurposeClaims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
}

type Codec interface {
	GenerateAccessToken(userID uuid.UUID, role model.Role) (token string, exp time.Time, jti string, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, jti string, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)

	// Purpose tokens back email-verification and password-reset links.
	GeneratePurposeToken(email string, purpose Purpose) (token string, err error)
	ValidatePurposeToken(token string, purpose Purpose) (claims PurposeClaims, err error)
}
