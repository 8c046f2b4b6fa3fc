package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playsquad/playsquad-api/internal/application"
	"github.com/playsquad/playsquad-api/pkg/apperr"
	"github.com/playsquad/playsquad-api/pkg/response"
)

// statusOf maps an application error to its HTTP status. Conflicts map
// to 400 to preserve the original API contract.
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// devMode gates whether internal error detail leaks into responses.
// Production keeps the generic message only.
var devMode bool

// SetDevMode toggles verbose internal errors. Wired from the router at
// startup based on APP_ENV.
func SetDevMode(on bool) { devMode = on }

// writeError renders an application error. Internal errors are masked;
// everything else surfaces its message verbatim. In development the
// underlying error is echoed in the error field to ease debugging.
func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	var detail interface{}
	if status == http.StatusInternalServerError {
		msg = "internal server error"
		if devMode {
			detail = err.Error()
		}
	}
	response.Error(c, status, msg, detail)
}

// identityFrom rebuilds the caller identity that the auth middleware
// stored in the Gin context.
func identityFrom(c *gin.Context) application.Identity {
	return application.Identity{
		UserID: c.GetString("userID"),
		Name:   c.GetString("userName"),
		Email:  c.GetString("userEmail"),
		Admin:  c.GetBool("isAdmin"),
	}
}
