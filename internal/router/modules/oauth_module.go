package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/playsquad/playsquad-api/internal/interface/http"
)

// OAuthModule registers the Google sign-in round trip at the root level,
// outside the /api prefix.
type OAuthModule struct {
	Handler *handlers.OAuthHandler
}

func NewOAuthModule(h *handlers.OAuthHandler) *OAuthModule {
	return &OAuthModule{Handler: h}
}

func (m *OAuthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/auth/google", m.Handler.Login)
	rg.GET("/auth/google/callback", m.Handler.Callback)
}
