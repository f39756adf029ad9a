package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quillist/auth-core/internal/adapters/transport/http/dto"
	"github.com/quillist/auth-core/internal/adapters/transport/http/middleware"
	appsvc "github.com/quillist/auth-core/internal/app/auth/service"
	authErrors "github.com/quillist/auth-core/internal/domain/auth/errors"
	"github.com/quillist/auth-core/internal/domain/auth/model"
	"github.com/quillist/auth-core/internal/infra/config"
)

type Handler struct {
	svc appsvc.Service
	cfg *config.Config
	log *zap.Logger
}

func NewHandler(svc appsvc.Service, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

// Register mounts all auth routes on the router.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
	r.GET("/verify/:token", h.verifyEmail)
	r.POST("/password-reset-request", h.passwordResetRequest)
	r.POST("/password-reset-confirm/:token", h.passwordResetConfirm)
	r.GET("/health", h.health)

	authed := r.Group("", middleware.Authenticate(h.svc))
	authed.GET("/me", middleware.RequireRoles(model.RoleAdmin, model.RoleUser), h.me)
	authed.POST("/admin/revoke", middleware.RequireRoles(model.RoleAdmin), h.adminRevoke)
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "account created, check your email to verify it",
		"user":    userResponse(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, user, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair, userResponse(user))
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair, nil)
}

func (h *Handler) logout(c *gin.Context) {
	var body dto.LogoutDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Logout(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) verifyEmail(c *gin.Context) {
	if err := h.svc.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account verified, you can now log in"})
}

func (h *Handler) passwordResetRequest(c *gin.Context) {
	var body dto.PasswordResetRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset link sent, check your email"})
}

func (h *Handler) passwordResetConfirm(c *gin.Context) {
	var body dto.PasswordResetConfirmDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ConfirmPasswordReset(c.Request.Context(), c.Param("token"), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successfully"})
}

func (h *Handler) me(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

func (h *Handler) adminRevoke(c *gin.Context) {
	var body dto.AdminRevokeDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.AdminRevoke(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (h *Handler) issueTokens(c *gin.Context, pair model.TokenPair, user gin.H) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		"access_token",
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true, // secure
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		"refresh_token",
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true,
		true,
	)

	resp := gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    int(pair.AccessTTL.Seconds()),
		"user_id":       pair.UserId.String(),
	}
	if user != nil {
		resp["user"] = user
	}
	c.JSON(http.StatusOK, resp)
}

func userResponse(u model.User) gin.H {
	return gin.H{
		"id":          u.ID.String(),
		"username":    u.Username,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"role":        u.Role,
		"is_verified": u.IsVerified,
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case authErrors.IsTokenExpired(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired", "hint": "refresh"})
	case authErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case authErrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case authErrors.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		h.log.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
