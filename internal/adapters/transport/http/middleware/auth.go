package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quillist/auth-core/internal/adapters/transport/http/dto"
	customErrors "github.com/quillist/auth-core/internal/domain/auth/errors"
	"github.com/quillist/auth-core/internal/domain/auth/model"
)

const userContextKey = "auth.user"

// Validator is the slice of the auth service the guard needs.
type Validator interface {
	Validate(ctx context.Context, in dto.ValidateDTO) (model.User, error)
}

// Authenticate extracts the bearer access token, validates it and puts
// the resolved user into the request context. It does no role logic.
func Authenticate(svc Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := svc.Validate(c.Request.Context(), dto.ValidateDTO{AccessToken: raw})
		switch {
		case err == nil:
		case customErrors.IsTokenExpired(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "token expired",
				"hint":  "refresh",
			})
			return
		case customErrors.IsUnavailable(err):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireRoles gates a route on the authenticated user's role. 403 is
// distinct from 401: identity is known, permission is denied.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if !user.IsVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account not verified"})
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func UserFromContext(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
