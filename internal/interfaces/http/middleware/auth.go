package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crmhub/backend/internal/infrastructure/auth"
	"github.com/crmhub/backend/internal/infrastructure/logger"
	"github.com/crmhub/backend/internal/interfaces/http/dto"
)

const (
	tenantIDKey = "tenant_id"
	userIDKey   = "user_id"
	roleKey     = "role"
)

// Auth verifies the bearer token and stores the tenant, user and role
// claims on the gin context. Requests with no resolvable tenant are
// rejected with 401 before any handler runs.
func Auth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := jwtService.VerifyToken(token)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(tenantIDKey, claims.TenantID)
		c.Set(userIDKey, claims.Subject)
		c.Set(roleKey, claims.Role)

		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.TenantID)
		if claims.Subject != "" {
			ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), claims.Subject)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse("UNAUTHORIZED", message))
}

// GetTenantID returns the authenticated tenant id, empty when absent.
func GetTenantID(c *gin.Context) string { return c.GetString(tenantIDKey) }

// GetUserID returns the authenticated user id, empty when absent.
func GetUserID(c *gin.Context) string { return c.GetString(userIDKey) }

// GetRole returns the authenticated role, empty when absent.
func GetRole(c *gin.Context) string { return c.GetString(roleKey) }
