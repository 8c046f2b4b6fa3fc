package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playsquad/playsquad-api/internal/container"
	handlers "github.com/playsquad/playsquad-api/internal/interface/http"
	"github.com/playsquad/playsquad-api/internal/interface/middleware"
	"github.com/playsquad/playsquad-api/pkg/helpers"
)

// UserModule wires the user directory routes.
// Public: POST/GET /api/register, POST /api/login, POST /api/refresh,
// GET /api/users/search.
// Protected: POST /api/logout, GET /api/profile, GET /api/player/search.
// Admin: GET /api/users.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.GET("/register", m.Handler.RegisterNotAllowed)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.GET("/users/search", m.Handler.SearchUsers)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.GET("/player/search", m.Handler.SearchPlayers)
		auth.GET("/users", middleware.AdminOnly(), m.Handler.ListUsers)
	}
}
