package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/pkg/response"
)

// Allowed is the role policy check: plain data in, plain answer out. It is
// exported separately from the middleware so services and tests can evaluate
// the same policy without a Gin context.
func Allowed(role entity.Role, required ...entity.Role) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// RequireRole guards a route group with an explicit role set. It assumes Auth
// already ran and populated userRole.
func RequireRole(required ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := entity.Role(c.GetString("userRole"))
		if !Allowed(role, required...) {
			response.Error[any](c, http.StatusForbidden, "insufficient role", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
