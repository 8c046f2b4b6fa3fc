package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playsquad/playsquad-api/internal/container"
	handlers "github.com/playsquad/playsquad-api/internal/interface/http"
	"github.com/playsquad/playsquad-api/internal/interface/middleware"
	"github.com/playsquad/playsquad-api/pkg/helpers"
)

// TeamModule wires the team CRUD routes; all of them require a session.
type TeamModule struct {
	Handler *handlers.TeamHandler
	JWT     *helpers.JWTManager
}

func NewTeamModule(h *handlers.TeamHandler, jwt *helpers.JWTManager) *TeamModule {
	return &TeamModule{Handler: h, JWT: jwt}
}

func (m *TeamModule) Register(rg *gin.RouterGroup) {
	teams := rg.Group("/teams")
	teams.Use(middleware.Auth(container.GetRedis(), m.JWT))
	teams.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		teams.POST("", m.Handler.Create)
		teams.GET("", m.Handler.List)
		teams.GET("/:id", m.Handler.Get)
		teams.PUT("/:id", m.Handler.Update)
		teams.DELETE("/:id", m.Handler.Delete)
	}
}
