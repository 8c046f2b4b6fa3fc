package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/playsquad/playsquad-api/internal/application"
	"github.com/playsquad/playsquad-api/pkg/helpers"
)

// OAuthHandler drives the Google sign-in round trip: redirect out with a
// state cookie, exchange the code on callback, upsert the account, and
// issue session cookies.
type OAuthHandler struct {
	Svc        *application.UserService
	Config     *oauth2.Config
	Logger     *logrus.Logger
	Cookies    *helpers.Manager
	SuccessURL string
	FailureURL string
}

func NewOAuthHandler(svc *application.UserService, cfg *oauth2.Config, logger *logrus.Logger, cookies *helpers.Manager, successURL, failureURL string) *OAuthHandler {
	return &OAuthHandler{Svc: svc, Config: cfg, Logger: logger, Cookies: cookies, SuccessURL: successURL, FailureURL: failureURL}
}

func (h *OAuthHandler) Login(c *gin.Context) {
	state := uuid.NewString()
	h.Cookies.SetOAuthState(c, state)
	c.Redirect(http.StatusTemporaryRedirect, h.Config.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	defer h.Cookies.ClearOAuthState(c)

	state, err := c.Cookie("oauth_state")
	if err != nil || state == "" || c.Query("state") != state {
		h.fail(c, "oauth state mismatch", nil)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.fail(c, "oauth code missing", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := h.Config.Exchange(ctx, code)
	if err != nil {
		h.fail(c, "oauth code exchange failed", err)
		return
	}

	svc, err := oauthapi.NewService(ctx, option.WithTokenSource(h.Config.TokenSource(ctx, token)))
	if err != nil {
		h.fail(c, "oauth userinfo service init failed", err)
		return
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil || info.Email == "" {
		h.fail(c, "oauth userinfo fetch failed", err)
		return
	}

	u, err := h.Svc.UpsertFromGoogleProfile(ctx, application.GoogleProfile{
		GoogleID: info.Id,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	})
	if err != nil {
		h.fail(c, "oauth account upsert failed", err)
		return
	}
	pair, err := h.Svc.IssueSession(ctx, u)
	if err != nil {
		h.fail(c, "oauth session issue failed", err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	c.Redirect(http.StatusTemporaryRedirect, h.SuccessURL)
}

func (h *OAuthHandler) fail(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		entry := h.Logger.WithField("path", c.FullPath())
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Warn(msg)
	}
	c.Redirect(http.StatusTemporaryRedirect, h.FailureURL)
}
