package repository

import (
	"context"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
)

// PlayerSearchField enumerates the fields /api/player/search may query.
const (
	SearchFieldEmail = "email"
	SearchFieldName  = "name"
	SearchFieldAge   = "age"
	SearchFieldCity  = "city"
)

// UserRepository defines persistence operations over the user directory.
// Implementations must treat emails case-insensitively.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByEmailOrGoogleID returns the first user matching either field;
	// used to dedupe OAuth sign-ins against password accounts.
	GetByEmailOrGoogleID(ctx context.Context, email, googleID string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdateLastLogin(ctx context.Context, id string) error
	List(ctx context.Context) ([]entity.User, error)
	// Search matches fragment against name and email, case-insensitive.
	Search(ctx context.Context, fragment string, limit int) ([]entity.User, error)
	// SearchByField queries one of the PlayerSearchField columns. Age is
	// matched exactly against the derived age.
	SearchByField(ctx context.Context, field, query string, limit int) ([]entity.User, error)
}
