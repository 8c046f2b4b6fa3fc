package router

import (
	"github.com/playsquad/playsquad-api/internal/application"
	"github.com/playsquad/playsquad-api/internal/container"
	"github.com/playsquad/playsquad-api/internal/infrastructure/blob"
	"github.com/playsquad/playsquad-api/internal/infrastructure/postgres"
	handlers "github.com/playsquad/playsquad-api/internal/interface/http"
	"github.com/playsquad/playsquad-api/internal/router/modules"
	"github.com/playsquad/playsquad-api/pkg/helpers"
)

// InitModules builds the repositories, services, and handlers from the
// container singletons and registers every feature module.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	handlers.SetDevMode(cfg.Env == "development")

	userRepo := postgres.NewUserRepository(pool)
	teamRepo := postgres.NewTeamRepository(pool)
	txm := postgres.NewTxManager(pool)

	userSvc := application.NewUserService(
		userRepo,
		txm,
		container.GetJWT(),
		container.GetRedis(),
		logger,
		container.GetES(),
		cfg.ESUsersIndex,
		container.GetRabbitPub(),
		nil,
	)

	logos := blob.NewGCSLogoStore(container.GetGCS(), cfg.GCSBucket)
	teamSvc := application.NewTeamService(teamRepo, userRepo, txm, logos, logger, nil)

	userHandler := handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure)
	teamHandler := handlers.NewTeamHandler(teamSvc, logger)

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewTeamModule(teamHandler, container.GetJWT()))

	if oauthCfg := container.GetOAuth(); oauthCfg != nil && oauthCfg.ClientID != "" {
		cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
		oauthHandler := handlers.NewOAuthHandler(userSvc, oauthCfg, logger, cookies, cfg.OAuthSuccessURL, cfg.OAuthFailureURL)
		r.AddRoot(modules.NewOAuthModule(oauthHandler))
	}
}
