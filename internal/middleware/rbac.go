package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
	"github.com/noah-isme/vtc-gradebook-api/pkg/response"
)

// RequireRoles lets the request through only for the listed roles. Finer
// checks, such as trainees reading their own results, stay in the services.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" cannot access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
