package middleware

import (
	"net/http"

	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authorizer gates routes on the permissions carried in the JWT claims.
// Its middleware must run after JWTAuth.
type Authorizer struct {
	logger *zap.Logger
}

// NewAuthorizer creates an Authorizer that logs denials to logger; nil discards them
func NewAuthorizer(logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{logger: logger}
}

// Require lets the request through when the caller holds any of permissions
func (a *Authorizer) Require(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		switch {
		case claims == nil:
			a.deny(c, permissions, "no claims in context")
		case !claims.HasAnyPermission(permissions...):
			a.deny(c, permissions, "missing permission")
		default:
			c.Next()
		}
	}
}

func (a *Authorizer) deny(c *gin.Context, required []string, reason string) {
	a.logger.Warn("Permission denied",
		zap.String("reason", reason),
		zap.String("user_id", GetJWTUserID(c)),
		zap.String("tenant_id", GetJWTTenantID(c)),
		zap.Strings("required", required),
		zap.String("route", c.FullPath()),
	)
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden,
		"Access denied: insufficient permissions",
		GetRequestID(c),
	))
}
