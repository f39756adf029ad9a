package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quillist/auth-core/internal/adapters/transport/http/dto"
	customErrors "github.com/quillist/auth-core/internal/domain/auth/errors"
	"github.com/quillist/auth-core/internal/domain/auth/mail"
	"github.com/quillist/auth-core/internal/domain/auth/model"
	repo "github.com/quillist/auth-core/internal/domain/auth/repo"
	"github.com/quillist/auth-core/internal/domain/auth/token"
	"github.com/quillist/auth-core/internal/infra/config"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

const mailTimeout = 10 * time.Second

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	codec     token.Codec
	mailer    mail.Mailer
	cfg       *config.Config
	v         *validator.Validate
	log       *zap.Logger
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.User, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, model.User, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	Logout(context.Context, dto.LogoutDTO) error
	Validate(context.Context, dto.ValidateDTO) (model.User, error)
	VerifyEmail(ctx context.Context, rawToken string) error
	RequestPasswordReset(context.Context, dto.PasswordResetRequestDTO) error
	ConfirmPasswordReset(ctx context.Context, rawToken string, in dto.PasswordResetConfirmDTO) error
	AdminRevoke(context.Context, dto.AdminRevokeDTO) error
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	codec token.Codec,
	mailer mail.Mailer,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	return &authService{
		userRepo: ur, tokenRepo: tr, codec: codec, mailer: mailer,
		cfg: cfg, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	passwordHash, err := argon2id.CreateHash(in.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		IsVerified:   false,
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, err
	}

	a.sendVerificationMail(user)

	return user, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// Same error as a wrong password so callers cannot probe for
		// registered emails.
		return model.TokenPair{}, model.User{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, model.User{}, err
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, model.User{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.TokenPair{}, model.User{}, customErrors.ErrInvalidCredentials
	}

	pair, err := a.issueTokens(user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}
	return pair, user, nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	// Single-use rotation: exactly one concurrent caller can win the
	// revocation of the presented jti. Losers see an already-revoked
	// token, the signal that the session may be compromised.
	won, err := a.tokenRepo.RevokeIfActive(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapUnavailable(err, "Refresh")
	}
	if !won {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	if in.AccessToken != "" {
		// Access may already be expired; that is not an error.
		if acc, errAcc := a.codec.ValidateAccessToken(in.AccessToken); errAcc == nil {
			_ = a.tokenRepo.RevokeAccess(ctx, acc.ID, acc.ExpiresAt.Time)
		}
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	// Reload the user so the new access token carries the current role,
	// not the one frozen at the previous issuance.
	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, err
	}

	return a.issueTokens(user.ID, user.Role)
}

func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return customErrors.WrapUnavailable(err, "Logout")
	}

	if acc, err := a.codec.ValidateAccessToken(in.AccessToken); err == nil {
		_ = a.tokenRepo.RevokeAccess(ctx, acc.ID, acc.ExpiresAt.Time)
	}
	return nil
}

// Validate is the Access Guard core: decode, revocation check, user load.
// It performs no role logic.
func (a *authService) Validate(ctx context.Context, in dto.ValidateDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.ValidateAccessToken(in.AccessToken)
	if err != nil {
		return model.User{}, err
	}

	revoked, err := a.tokenRepo.IsAccessRevoked(ctx, claims.ID)
	if err != nil {
		if !a.cfg.RevocationFailOpen {
			return model.User{}, customErrors.WrapUnavailable(err, "Validate")
		}
		a.log.Warn("revocation store unreachable, accepting token unchecked",
			zap.Error(err))
		revoked = false
	}
	if revoked {
		return model.User{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.User{}, err
	}
	return user, nil
}

func (a *authService) VerifyEmail(ctx context.Context, rawToken string) error {
	claims, err := a.codec.ValidatePurposeToken(rawToken, token.PurposeEmailVerify)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}

	user.IsVerified = true
	return a.userRepo.UpdateUser(ctx, user)
}

func (a *authService) RequestPasswordReset(ctx context.Context, in dto.PasswordResetRequestDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	// Always reports success; an unknown email sends nothing but looks
	// identical to the caller.
	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return nil
		}
		return err
	}

	resetToken, err := a.codec.GeneratePurposeToken(user.Email, token.PurposePasswordReset)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/password-reset-confirm/%s", a.cfg.APIURL, resetToken)
	a.sendAsync(user.Email, "Reset your Quillist account password", fmt.Sprintf(`
		<h1>Reset your Quillist account password</h1>
		<p>Please click <a href="%s">this</a> link to reset your account password.</p>
	`, link))

	return nil
}

func (a *authService) ConfirmPasswordReset(ctx context.Context, rawToken string, in dto.PasswordResetConfirmDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}
	if in.NewPassword != in.ConfirmNewPassword {
		return customErrors.NewInvalidArgument("passwords do not match")
	}

	claims, err := a.codec.ValidatePurposeToken(rawToken, token.PurposePasswordReset)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}

	passwordHash, err := argon2id.CreateHash(in.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ConfirmPasswordReset")
	}

	user.PasswordHash = passwordHash
	return a.userRepo.UpdateUser(ctx, user)
}

// AdminRevoke blocklists an individually identified jti. No user index
// of active tokens is kept, so the entry is held for the full refresh
// lifetime, the longest any token carrying this jti could still live.
func (a *authService) AdminRevoke(ctx context.Context, in dto.AdminRevokeDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	exp := time.Now().Add(a.cfg.RefreshTokenTTL)
	if err := a.tokenRepo.Revoke(ctx, in.JTI, exp); err != nil {
		return customErrors.WrapUnavailable(err, "AdminRevoke")
	}
	if err := a.tokenRepo.RevokeAccess(ctx, in.JTI, exp); err != nil {
		return customErrors.WrapUnavailable(err, "AdminRevoke")
	}
	return nil
}

func (a *authService) issueTokens(uid uuid.UUID, role model.Role) (model.TokenPair, error) {
	at, atExp, _, err := a.codec.GenerateAccessToken(uid, role)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, jti, err := a.codec.GenerateRefreshToken(uid)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:     at,
		RefreshToken:    rt,
		AccessTTL:       atExp.Sub(now),
		RefreshTTL:      rtExp.Sub(now),
		UserId:          uid,
		RefreshTokenJTI: jti,
	}, nil
}

func (a *authService) sendVerificationMail(user model.User) {
	verifyToken, err := a.codec.GeneratePurposeToken(user.Email, token.PurposeEmailVerify)
	if err != nil {
		a.log.Error("generate verification token", zap.Error(err))
		return
	}

	link := fmt.Sprintf("%s/verify/%s", a.cfg.APIURL, verifyToken)
	a.sendAsync(user.Email, "Verify your Quillist account", fmt.Sprintf(`
		<h1>Welcome to Quillist</h1>
		<p>Thank you for signing up, %s!</p>
		<p>Please click <a href="%s">this</a> link to verify your account.</p>
	`, user.Username, link))
}

// sendAsync triggers delivery without awaiting it; the request that
// caused the mail never blocks on or fails with the mail provider.
func (a *authService) sendAsync(to, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := a.mailer.Send(ctx, to, subject, body); err != nil {
			a.log.Warn("mail delivery failed",
				zap.String("subject", subject), zap.Error(err))
		}
	}()
}
