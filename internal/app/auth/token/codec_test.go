package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/quillist/auth-core/internal/domain/auth/errors"
	"github.com/quillist/auth-core/internal/domain/auth/model"
	token2 "github.com/quillist/auth-core/internal/domain/auth/token"
	"github.com/quillist/auth-core/internal/infra/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		VerifyTokenTTL:  time.Hour,
		Issuer:          "test",
		Audience:        "test",
	}
}

func TestCodec_GenerateValidate(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()
	tok, exp, jti, err := codec.GenerateAccessToken(uid, model.RoleUser)
	if err != nil || exp.IsZero() || jti == "" {
		t.Fatalf("bad generate: %v", err)
	}
	claims, err := codec.ValidateAccessToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != uid.String() {
		t.Fatalf("want %s got %s", uid, claims.Subject)
	}
	if claims.Role != model.RoleUser {
		t.Fatalf("role snapshot lost: %q", claims.Role)
	}
}

func TestCodec_EmptySecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	if _, err := NewCodec(cfg); err == nil {
		t.Fatal("expected configuration error for empty secret")
	}
}

func TestCodec_ValidateErrors(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	if _, err := codec.ValidateAccessToken("bad"); !customErrors.IsInvalidToken(err) {
		t.Fatalf("want invalid token, got %v", err)
	}

	otherCfg := testConfig()
	otherCfg.JWTSecret = "other-secret"
	other, _ := NewCodec(otherCfg)
	tok, _, _, _ := other.GenerateAccessToken(uuid.New(), model.RoleUser)
	if _, err := codec.ValidateAccessToken(tok); !customErrors.IsInvalidToken(err) {
		t.Fatalf("want signature error, got %v", err)
	}
}

func TestCodec_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -2 * time.Minute // beyond the leeway
	codec, _ := NewCodec(cfg)

	tok, _, _, _ := codec.GenerateAccessToken(uuid.New(), model.RoleUser)
	_, err := codec.ValidateAccessToken(tok)
	if !customErrors.IsTokenExpired(err) {
		t.Fatalf("want expired, got %v", err)
	}
	if customErrors.IsInvalidToken(err) {
		t.Fatal("expired must not be reported as invalid")
	}
}

func TestCodec_KindConfusionRejected(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	uid := uuid.New()

	access, _, _, _ := codec.GenerateAccessToken(uid, model.RoleUser)
	if _, err := codec.ValidateRefreshToken(access); !customErrors.IsInvalidToken(err) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}

	refresh, _, _, _ := codec.GenerateRefreshToken(uid)
	if _, err := codec.ValidateAccessToken(refresh); !customErrors.IsInvalidToken(err) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestCodec_RefreshCycle(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	uid := uuid.New()
	rTok, exp, jti, err := codec.GenerateRefreshToken(uid)
	if err != nil || exp.IsZero() || jti == "" {
		t.Fatalf("bad generate: %v", err)
	}
	cl, err := codec.ValidateRefreshToken(rTok)
	if err != nil || cl.Subject != uid.String() {
		t.Fatalf("validate error: %v", err)
	}
}

func TestCodec_FreshJTIPerIssuance(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	uid := uuid.New()
	_, _, jti1, _ := codec.GenerateAccessToken(uid, model.RoleUser)
	_, _, jti2, _ := codec.GenerateAccessToken(uid, model.RoleUser)
	if jti1 == jti2 {
		t.Fatal("jti reused across issuances")
	}
}

func TestCodec_InvalidAlg(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1"}).SignedString([]byte("test-secret"))
	if _, err := codec.ValidateAccessToken(tok); err == nil {
		t.Fatal("expected invalid alg")
	}
	if _, err := codec.ValidateRefreshToken(tok); err == nil {
		t.Fatal("expected invalid alg")
	}
}

func TestCodec_InvalidAudience(t *testing.T) {
	cfg := testConfig()
	codec, _ := NewCodec(cfg)
	otherCfg := *cfg
	otherCfg.Audience = "other"
	other, _ := NewCodec(&otherCfg)
	tok, _, _, _ := other.GenerateAccessToken(uuid.New(), model.RoleUser)
	if _, err := codec.ValidateAccessToken(tok); err == nil {
		t.Fatal("expected audience error")
	}
}

func TestCodec_PurposeTokens(t *testing.T) {
	codec, _ := NewCodec(testConfig())

	tok, err := codec.GeneratePurposeToken("a@example.com", token2.PurposeEmailVerify)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := codec.ValidatePurposeToken(tok, token2.PurposeEmailVerify)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "a@example.com" {
		t.Fatalf("want email subject, got %q", claims.Subject)
	}

	// A verification token must not pass as a reset token.
	if _, err := codec.ValidatePurposeToken(tok, token2.PurposePasswordReset); !customErrors.IsInvalidToken(err) {
		t.Fatalf("purpose confusion accepted: %v", err)
	}
}
