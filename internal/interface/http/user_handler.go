package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/playsquad/playsquad-api/internal/application"
	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/pkg/helpers"
	"github.com/playsquad/playsquad-api/pkg/response"
	"github.com/playsquad/playsquad-api/pkg/validation"
)

type UserHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Place       string `json:"place"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userJSON(u *entity.User) gin.H {
	out := gin.H{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"isAdmin":   u.IsAdmin,
		"isActive":  u.IsActive,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
	if u.ProfilePic != "" {
		out["profilePic"] = u.ProfilePic
	}
	if u.Place != "" {
		out["place"] = u.Place
	}
	if u.DateOfBirth != nil {
		out["dateOfBirth"] = u.DateOfBirth
	}
	if !u.LastLogin.IsZero() {
		out["lastLogin"] = u.LastLogin
	}
	return out
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := application.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Place:    req.Place,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"dateOfBirth": "must match datetime format: 2006-01-02"})
			return
		}
		in.DateOfBirth = &dob
	}

	u, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "user registered successfully", userJSON(u))
}

// RegisterNotAllowed answers browsers that navigate to the register URL.
func (h *UserHandler) RegisterNotAllowed(c *gin.Context) {
	response.Error(c, http.StatusMethodNotAllowed, "use POST to register", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, "login successful", userJSON(u))
}

func (h *UserHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, "token refreshed", gin.H{"refreshed": true})
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), c.GetString("userID"))
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, "logged out", gin.H{"loggedOut": true})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "profile", userJSON(u))
}

// ListUsers returns every user as a bare array, a shape kept from the
// original admin panel contract.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userJSON(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// SearchUsers matches a fragment against name and email and returns a
// bare array of summaries.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	results, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchPlayers queries one user field and returns a bare array.
func (h *UserHandler) SearchPlayers(c *gin.Context) {
	results, err := h.Svc.SearchPlayers(c.Request.Context(), c.Query("field"), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
