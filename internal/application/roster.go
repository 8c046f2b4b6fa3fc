package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/pkg/apperr"
)

// RosterInput is a client-submitted roster candidate entry.
type RosterInput struct {
	PlayerID string `json:"playerId" binding:"required"`
	Role     string `json:"role"`
}

// reconcileRoster turns candidate entries into authoritative roster
// entries. Every referenced player must resolve against the user
// directory at this moment; a single unresolved id aborts the whole
// mutation rather than dropping the entry. The resolved display name is
// snapshotted into the entry, and the joined timestamp of a player
// already on the existing roster is preserved.
//
// Callers must run this inside the same transaction as the team write so
// names are never resolved against stale user data.
func (s *TeamService) reconcileRoster(ctx context.Context, candidates []RosterInput, existing []entity.RosterEntry) ([]entity.RosterEntry, error) {
	if len(candidates) == 0 {
		return []entity.RosterEntry{}, nil
	}

	seen := make(map[string]bool, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		id := strings.TrimSpace(c.PlayerID)
		if uuid.Validate(id) != nil {
			return nil, apperr.Validation("one or more players not found")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	users, err := s.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, apperr.Validation("one or more players not found")
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	joined := make(map[string]time.Time, len(existing))
	for _, e := range existing {
		joined[e.PlayerID] = e.JoinedAt
	}

	now := s.Clock.Now().UTC()
	roster := make([]entity.RosterEntry, 0, len(candidates))
	for _, c := range candidates {
		id := strings.TrimSpace(c.PlayerID)
		role := strings.TrimSpace(c.Role)
		if role == "" {
			role = entity.DefaultRole
		}
		if !entity.ValidRosterRole(role) {
			return nil, apperr.Validation("invalid roster role: %s", role)
		}
		joinedAt := now
		if t, ok := joined[id]; ok {
			joinedAt = t
		}
		roster = append(roster, entity.RosterEntry{
			PlayerID:   id,
			PlayerName: names[id],
			Role:       role,
			JoinedAt:   joinedAt,
		})
	}
	return roster, nil
}
