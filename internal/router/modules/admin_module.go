package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-api/internal/container"
	"github.com/campuskit/campus-api/internal/domain/entity"
	handlers "github.com/campuskit/campus-api/internal/interface/http"
	"github.com/campuskit/campus-api/internal/interface/middleware"
	"github.com/campuskit/campus-api/pkg/helpers"
)

// AdminModule registers the moderation surface under /api/admin. Every route
// requires an authenticated admin session.
type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(
		middleware.Auth(container.GetRedis(), m.JWT),
		middleware.RequireRole(entity.RoleAdmin),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		admin.GET("/users", m.Handler.List)
		admin.GET("/users/search", m.Handler.Search)
		admin.POST("/users/:id/approve", m.Handler.Approve)
		admin.POST("/users/:id/deny", m.Handler.Deny)
		admin.POST("/users/:id/deactivate", m.Handler.Deactivate)
		admin.POST("/users/:id/reactivate", m.Handler.Reactivate)
		admin.DELETE("/users/:id", m.Handler.Delete)
	}
}
