package application

import (
	"context"
	"io"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/apperr"
)

// LogoStore abstracts the blob store team logos go to.
type LogoStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// LogoUpload carries an incoming logo file from the HTTP layer.
type LogoUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// TeamService orchestrates team mutations: authorization, roster
// reconciliation, and atomicity. Every mutation runs inside a single
// storage transaction so a failed operation leaves no partial state.
type TeamService struct {
	Teams  repository.TeamRepository
	Users  repository.UserRepository
	Tx     repository.Atomic
	Logos  LogoStore
	Logger *logrus.Logger
	Clock  clockwork.Clock
}

func NewTeamService(teams repository.TeamRepository, users repository.UserRepository, tx repository.Atomic, logos LogoStore, logger *logrus.Logger, clock clockwork.Clock) *TeamService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TeamService{Teams: teams, Users: users, Tx: tx, Logos: logos, Logger: logger, Clock: clock}
}

type CreateTeamInput struct {
	Name        string
	Description string
	SportType   string
	Players     []RosterInput
	Logo        *LogoUpload
}

// UpdateTeamInput has partial-update semantics: nil fields are left
// untouched, a present-but-empty description clears it, and a present
// Players list fully replaces the roster after reconciliation.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	SportType   *string
	Status      *string
	Players     *[]RosterInput
	Logo        *LogoUpload
}

func validateTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return "", apperr.Validation("team name must be at least 3 characters long")
	}
	return name, nil
}

func (s *TeamService) uploadLogo(ctx context.Context, logo *LogoUpload) (string, error) {
	if logo == nil {
		return "", nil
	}
	if s.Logos == nil {
		return "", apperr.Validation("logo uploads are not available")
	}
	url, err := s.Logos.Upload(ctx, logo.Filename, logo.ContentType, logo.Content)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return url, nil
}

func (s *TeamService) discardLogo(ctx context.Context, url string) {
	if url == "" || s.Logos == nil {
		return
	}
	if err := s.Logos.Delete(context.WithoutCancel(ctx), url); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("logo_url", url).Warn("failed to delete logo object")
	}
}

// Create persists a new team with the caller as captain and creator.
// The name pre-check is only a fast-path rejection; the store's unique
// index is the final authority on duplicates.
func (s *TeamService) Create(ctx context.Context, identity Identity, in CreateTeamInput) (*entity.Team, error) {
	if !identity.Authenticated() {
		return nil, apperr.Unauthorized("authentication required")
	}
	name, err := validateTeamName(in.Name)
	if err != nil {
		return nil, err
	}
	if len(in.Description) > 500 {
		return nil, apperr.Validation("description cannot be longer than 500 characters")
	}
	if !entity.ValidSportType(in.SportType) {
		return nil, apperr.Validation("invalid sport type: %s", in.SportType)
	}

	logoURL, err := s.uploadLogo(ctx, in.Logo)
	if err != nil {
		return nil, err
	}

	var team *entity.Team
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.Teams.ExistsByName(ctx, name)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("team name already exists, please choose a different name")
		}

		roster, err := s.reconcileRoster(ctx, in.Players, nil)
		if err != nil {
			return err
		}

		now := s.Clock.Now().UTC()
		team = &entity.Team{
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			LogoURL:     logoURL,
			SportType:   in.SportType,
			Status:      entity.StatusActive,
			CaptainID:   identity.UserID,
			Players:     roster,
			CreatedBy:   identity.UserID,
			UpdatedBy:   identity.UserID,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.Teams.Create(ctx, team)
	})
	if err != nil {
		// The logo was written before the transaction; don't leak it.
		s.discardLogo(ctx, logoURL)
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"team_id": team.ID, "name": team.Name, "created_by": identity.UserID}).Info("team created")
	}
	return team, nil
}

// Update applies a partial patch. Only the original creator or an admin
// may update; a replaced logo is deleted from the blob store only after
// the transaction commits.
func (s *TeamService) Update(ctx context.Context, identity Identity, teamID string, in UpdateTeamInput) (*entity.TeamDetail, error) {
	newLogoURL, err := s.uploadLogo(ctx, in.Logo)
	if err != nil {
		return nil, err
	}

	var replacedLogoURL string
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		team, err := s.Teams.GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(identity, team.CreatedBy, "update"); err != nil {
			return err
		}

		if in.Name != nil {
			name, err := validateTeamName(*in.Name)
			if err != nil {
				return err
			}
			if !entity.SameName(team.Name, name) {
				taken, err := s.Teams.ExistsByName(ctx, name)
				if err != nil {
					return err
				}
				if taken {
					return apperr.Conflict("team name already exists, please choose a different name")
				}
			}
			team.Name = name
		}
		if in.Description != nil {
			if len(*in.Description) > 500 {
				return apperr.Validation("description cannot be longer than 500 characters")
			}
			team.Description = strings.TrimSpace(*in.Description)
		}
		if in.SportType != nil {
			if !entity.ValidSportType(*in.SportType) {
				return apperr.Validation("invalid sport type: %s", *in.SportType)
			}
			team.SportType = *in.SportType
		}
		if in.Status != nil {
			if !entity.ValidTeamStatus(*in.Status) {
				return apperr.Validation("invalid team status: %s", *in.Status)
			}
			team.Status = *in.Status
		}
		if in.Players != nil {
			// Full replacement: players omitted from the patch are dropped.
			roster, err := s.reconcileRoster(ctx, *in.Players, team.Players)
			if err != nil {
				return err
			}
			team.Players = roster
		}
		if newLogoURL != "" {
			replacedLogoURL = team.LogoURL
			team.LogoURL = newLogoURL
		}

		team.UpdatedBy = identity.UserID
		team.UpdatedAt = s.Clock.Now().UTC()
		return s.Teams.Update(ctx, team)
	})
	if err != nil {
		s.discardLogo(ctx, newLogoURL)
		return nil, err
	}
	// Release the old logo only once the new state is committed.
	s.discardLogo(ctx, replacedLogoURL)

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"team_id": teamID, "updated_by": identity.UserID}).Info("team updated")
	}
	return s.Teams.GetDetail(ctx, teamID)
}

// SoftDelete flips the active flag and stamps the deletion time. Only
// the captain or an admin may delete. Roster and match history stay in
// place for historical retrieval, and re-invoking on an already deleted
// team just re-stamps the audit fields.
func (s *TeamService) SoftDelete(ctx context.Context, identity Identity, teamID string) error {
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		team, err := s.Teams.GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(identity, team.CaptainID, "delete"); err != nil {
			return err
		}
		return s.Teams.SoftDelete(ctx, teamID, identity.UserID, s.Clock.Now().UTC())
	})
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"team_id": teamID, "deleted_by": identity.UserID}).Info("team soft-deleted")
	}
	return nil
}

// Get returns a single team with user references expanded. Soft-deleted
// teams remain retrievable by id.
func (s *TeamService) Get(ctx context.Context, teamID string) (*entity.TeamDetail, error) {
	return s.Teams.GetDetail(ctx, teamID)
}

// List returns a page of teams newest-first plus the total count.
func (s *TeamService) List(ctx context.Context, f repository.TeamFilter) ([]entity.Team, int, error) {
	if f.Status != "" && !entity.ValidTeamStatus(f.Status) {
		return nil, 0, apperr.Validation("invalid team status: %s", f.Status)
	}
	return s.Teams.List(ctx, f)
}
