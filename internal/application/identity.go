package application

import (
	"github.com/playsquad/playsquad-api/pkg/apperr"
)

// Identity is the authenticated caller. It is passed explicitly into
// every mutation call instead of being read from ambient request state,
// so services are testable without a simulated request object.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Admin  bool
}

func (id Identity) Authenticated() bool { return id.UserID != "" }

// requireOwnerOrAdmin is the ownership rule of the authorization gate:
// the caller must be the resource owner or carry the admin flag.
func requireOwnerOrAdmin(id Identity, ownerID, action string) error {
	if !id.Authenticated() {
		return apperr.Unauthorized("authentication required")
	}
	if id.UserID == ownerID || id.Admin {
		return nil
	}
	return apperr.Forbidden("not authorized to %s this team", action)
}
