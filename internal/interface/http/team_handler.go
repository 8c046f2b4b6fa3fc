package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/playsquad/playsquad-api/internal/application"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/response"
	"github.com/playsquad/playsquad-api/pkg/validation"
)

const maxLogoBytes = 5 << 20 // 5 MiB

type TeamHandler struct {
	Svc    *application.TeamService
	Logger *logrus.Logger
}

func NewTeamHandler(svc *application.TeamService, logger *logrus.Logger) *TeamHandler {
	return &TeamHandler{Svc: svc, Logger: logger}
}

// openLogo validates and opens the uploaded logo file. A nil return with
// nil error means no logo was submitted.
func openLogo(c *gin.Context) (*application.LogoUpload, func(), error) {
	fh, err := c.FormFile("teamLogo")
	if err != nil {
		return nil, nil, nil
	}
	if fh.Size > maxLogoBytes {
		return nil, nil, errTooLarge
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, nil, errNotImage
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	logo := &application.LogoUpload{Filename: fh.Filename, ContentType: contentType, Content: f}
	return logo, func() { _ = f.Close() }, nil
}

var (
	errTooLarge = &logoError{"team logo must be smaller than 5MB"}
	errNotImage = &logoError{"team logo must be an image file"}
)

type logoError struct{ msg string }

func (e *logoError) Error() string { return e.msg }

func writeLogoError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if le, ok := err.(*logoError); ok {
		response.Error(c, http.StatusBadRequest, le.msg, nil)
		return true
	}
	response.Error(c, http.StatusBadRequest, "failed to read uploaded logo", nil)
	return true
}

func parsePlayers(raw string) ([]application.RosterInput, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var players []application.RosterInput
	if err := json.Unmarshal([]byte(raw), &players); err != nil {
		return nil, err
	}
	return players, nil
}

// Create registers a team from a multipart form: text fields plus an
// optional teamLogo image and a players JSON array.
func (h *TeamHandler) Create(c *gin.Context) {
	logo, closeLogo, err := openLogo(c)
	if writeLogoError(c, err) {
		return
	}
	if closeLogo != nil {
		defer closeLogo()
	}

	players, err := parsePlayers(c.PostForm("players"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "players must be a valid JSON array", nil)
		return
	}

	in := application.CreateTeamInput{
		Name:        c.PostForm("teamName"),
		Description: c.PostForm("teamDescription"),
		SportType:   c.PostForm("sportType"),
		Players:     players,
		Logo:        logo,
	}
	team, err := h.Svc.Create(c.Request.Context(), identityFrom(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "team created successfully", team)
}

// List returns a filtered page of active teams. The response keeps the
// original pagination shape.
func (h *TeamHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	f := repository.TeamFilter{
		SportType: c.Query("sportType"),
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  limit,
	}
	teams, total, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	totalPages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    teams,
		"pagination": gin.H{
			"total":      total,
			"page":       page,
			"totalPages": totalPages,
			"limit":      limit,
		},
	})
}

// Get returns one team with its user references expanded. Soft-deleted
// teams stay retrievable by id.
func (h *TeamHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		response.Error(c, http.StatusNotFound, "team not found", nil)
		return
	}
	team, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "team", team)
}

type updateTeamJSON struct {
	Name        *string                    `json:"teamName"`
	Description *string                    `json:"teamDescription"`
	SportType   *string                    `json:"sportType"`
	Status      *string                    `json:"status"`
	Players     *[]application.RosterInput `json:"players"`
}

// Update patches a team. It accepts either a JSON body or the same
// multipart form as Create; multipart fields left out of the form are
// left untouched.
func (h *TeamHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		response.Error(c, http.StatusNotFound, "team not found", nil)
		return
	}

	var in application.UpdateTeamInput
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		logo, closeLogo, err := openLogo(c)
		if writeLogoError(c, err) {
			return
		}
		if closeLogo != nil {
			defer closeLogo()
		}
		in.Logo = logo

		if v, ok := c.GetPostForm("teamName"); ok {
			in.Name = &v
		}
		if v, ok := c.GetPostForm("teamDescription"); ok {
			in.Description = &v
		}
		if v, ok := c.GetPostForm("sportType"); ok {
			in.SportType = &v
		}
		if v, ok := c.GetPostForm("status"); ok {
			in.Status = &v
		}
		if raw, ok := c.GetPostForm("players"); ok {
			players, err := parsePlayers(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "players must be a valid JSON array", nil)
				return
			}
			in.Players = &players
		}
	} else {
		var req updateTeamJSON
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
		in.Name = req.Name
		in.Description = req.Description
		in.SportType = req.SportType
		in.Status = req.Status
		in.Players = req.Players
	}

	team, err := h.Svc.Update(c.Request.Context(), identityFrom(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "team updated successfully", team)
}

// Delete soft-deletes a team; history stays retrievable by id.
func (h *TeamHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		response.Error(c, http.StatusNotFound, "team not found", nil)
		return
	}
	if err := h.Svc.SoftDelete(c.Request.Context(), identityFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "team deleted successfully", nil)
}
