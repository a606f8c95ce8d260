package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-api/internal/container"
	handlers "github.com/campuskit/campus-api/internal/interface/http"
	"github.com/campuskit/campus-api/internal/interface/middleware"
	"github.com/campuskit/campus-api/pkg/helpers"
)

// UserModule wires session and profile routes.
// Public: POST /api/login, POST /api/refresh
// Protected: POST /api/logout, GET/PUT /api/users/me,
// POST /api/users/me/profile, POST /api/users/me/avatar

type UserModule struct {
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
	JWT         *helpers.JWTManager
}

func NewUserModule(ah *handlers.AuthHandler, uh *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{AuthHandler: ah, UserHandler: uh, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/login", loginLimiter, m.AuthHandler.Login)
	rg.POST("/refresh", refreshLimiter, m.AuthHandler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout", m.AuthHandler.Logout)
		auth.GET("/users/me", m.UserHandler.Profile)
		auth.PUT("/users/me", m.UserHandler.UpdateProfile)
		auth.POST("/users/me/profile", m.UserHandler.CompleteProfile)
		auth.POST("/users/me/avatar", m.UserHandler.UploadAvatar)
	}
}
