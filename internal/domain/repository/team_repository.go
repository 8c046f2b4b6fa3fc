package repository

import (
	"context"
	"time"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
)

// TeamFilter narrows team listings. Status empty means "active only";
// an explicit status overrides that default. Search is a case-insensitive
// substring match over team name, description, and roster player names.
type TeamFilter struct {
	SportType string
	Status    string
	Search    string
	Page      int
	PageSize  int
}

// TeamRepository is the persistence contract for team aggregates.
type TeamRepository interface {
	Create(ctx context.Context, t *entity.Team) error
	GetByID(ctx context.Context, id string) (*entity.Team, error)
	// GetDetail expands captain/creator/updater/roster-player references
	// into user summaries.
	GetDetail(ctx context.Context, id string) (*entity.TeamDetail, error)
	// ExistsByName checks name uniqueness case-insensitively across all
	// teams, soft-deleted ones included: a deleted team keeps its name
	// reserved.
	ExistsByName(ctx context.Context, name string) (bool, error)
	// List returns a page of teams newest-first plus the total count.
	List(ctx context.Context, f TeamFilter) ([]entity.Team, int, error)
	Update(ctx context.Context, t *entity.Team) error
	SoftDelete(ctx context.Context, id, updaterID string, at time.Time) error
}

// Atomic runs fn inside a storage transaction. Repository calls made with
// the ctx passed to fn join that transaction; fn returning an error rolls
// everything back.
type Atomic interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
