package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/quillist/auth-core/internal/domain/auth/errors"
	"github.com/quillist/auth-core/internal/domain/auth/model"
	token2 "github.com/quillist/auth-core/internal/domain/auth/token"
	"github.com/quillist/auth-core/internal/infra/config"
)

// CodecImpl signs and verifies all tokens with a single process-wide
// HS256 secret. The secret, TTLs, issuer and audience are fixed at
// construction.
type CodecImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	purposeTTL time.Duration
	issuer     string
	audience   string
}

func NewCodec(cfg *config.Config) (*CodecImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty JWT secret"), "NewCodec")
	}

	purposeTTL := cfg.VerifyTokenTTL
	if purposeTTL <= 0 {
		purposeTTL = time.Hour
	}

	return &CodecImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		purposeTTL: purposeTTL,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}, nil
}

func (c *CodecImpl) registeredClaims(subject string, ttl time.Duration, jti string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    c.issuer,
		Audience:  jwt.ClaimStrings{c.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
}

func (c *CodecImpl) GenerateAccessToken(userID uuid.UUID, role model.Role) (string, time.Time, string, error) {
	jti := uuid.NewString()

	claims := token2.AccessClaims{
		RegisteredClaims: c.registeredClaims(userID.String(), c.accessTTL, jti),
		Role:             role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, jti, nil
}

func (c *CodecImpl) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, string, error) {
	jti := uuid.NewString()

	claims := token2.RefreshClaims{
		RegisteredClaims: c.registeredClaims(userID.String(), c.refreshTTL, jti),
		Refresh:          true,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign refresh token")
	}

	return signed, claims.ExpiresAt.Time, jti, nil
}

func (c *CodecImpl) parse(raw string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(30*time.Second))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		// Expiry is reported separately so callers can hint a refresh
		// instead of a re-login.
		return customErrors.ErrTokenExpired
	case err != nil, !token.Valid:
		return customErrors.ErrInvalidToken
	}
	return nil
}

func (c *CodecImpl) checkIssuerAudience(rc jwt.RegisteredClaims) error {
	if c.issuer != "" && rc.Issuer != c.issuer {
		return customErrors.ErrInvalidToken
	}
	if c.audience != "" {
		ok := false
		for _, a := range rc.Audience {
			if a == c.audience {
				ok = true
				break
			}
		}
		if !ok {
			return customErrors.ErrInvalidToken
		}
	}
	return nil
}

func (c *CodecImpl) ValidateAccessToken(raw string) (token2.AccessClaims, error) {
	var claims token2.AccessClaims
	if err := c.parse(raw, &claims); err != nil {
		return token2.AccessClaims{}, err
	}
	if err := c.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return token2.AccessClaims{}, err
	}
	// A refresh token parses into AccessClaims with an empty role;
	// access tokens always carry one.
	if !claims.Role.Valid() {
		return token2.AccessClaims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

func (c *CodecImpl) ValidateRefreshToken(raw string) (token2.RefreshClaims, error) {
	var claims token2.RefreshClaims
	if err := c.parse(raw, &claims); err != nil {
		return token2.RefreshClaims{}, err
	}
	if err := c.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return token2.RefreshClaims{}, err
	}
	if !claims.Refresh {
		return token2.RefreshClaims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

func (c *CodecImpl) GeneratePurposeToken(email string, purpose token2.Purpose) (string, error) {
	claims := token2.PurposeClaims{
		RegisteredClaims: c.registeredClaims(email, c.purposeTTL, uuid.NewString()),
		Purpose:          purpose,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", customErrors.WrapInternal(err, "sign purpose token")
	}
	return signed, nil
}

func (c *CodecImpl) ValidatePurposeToken(raw string, purpose token2.Purpose) (token2.PurposeClaims, error) {
	var claims token2.PurposeClaims
	if err := c.parse(raw, &claims); err != nil {
		return token2.PurposeClaims{}, err
	}
	if err := c.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return token2.PurposeClaims{}, err
	}
	if claims.Purpose != purpose {
		return token2.PurposeClaims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}
