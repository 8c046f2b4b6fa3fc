package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/apperr"
)

const userColumns = `id, name, email, COALESCE(password_hash, ''), COALESCE(google_id, ''),
	COALESCE(profile_pic, ''), date_of_birth, COALESCE(place, ''), is_admin, is_active,
	last_login, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.GoogleID, &u.ProfilePic,
		&u.DateOfBirth, &u.Place, &u.IsAdmin, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := querierFrom(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, google_id, profile_pic, date_of_birth, place, is_admin)
		VALUES ($1, lower($2), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), $8)
		RETURNING id, email, is_active, last_login, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.GoogleID, u.ProfilePic, u.DateOfBirth, u.Place, u.IsAdmin)

	err := row.Scan(&u.ID, &u.Email, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("user with this email already exists")
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = lower($1)
	`, email))
}

func (r *UserRepository) GetByEmailOrGoogleID(ctx context.Context, email, googleID string) (*entity.User, error) {
	return scanUser(querierFrom(ctx, r.pool).QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = lower($1) OR google_id = NULLIF($2, '')
		ORDER BY (google_id IS NOT DISTINCT FROM NULLIF($2, '')) DESC
		LIMIT 1
	`, email, googleID))
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := querierFrom(ctx, r.pool).Query(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := querierFrom(ctx, r.pool).QueryRow(ctx, `
		UPDATE users
		SET name = $1, email = lower($2), password_hash = NULLIF($3, ''), google_id = NULLIF($4, ''),
			profile_pic = NULLIF($5, ''), date_of_birth = $6, place = NULLIF($7, ''),
			is_admin = $8, is_active = $9, last_login = $10, updated_at = now()
		WHERE id = $11
		RETURNING updated_at
	`, u.Name, u.Email, u.Password, u.GoogleID, u.ProfilePic, u.DateOfBirth, u.Place,
		u.IsAdmin, u.IsActive, u.LastLogin, u.ID)

	err := row.Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("user not found")
	}
	if isUniqueViolation(err) {
		return apperr.Conflict("user with this email already exists")
	}
	return err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	res, err := querierFrom(ctx, r.pool).Exec(ctx, `
		UPDATE users SET last_login = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) Search(ctx context.Context, fragment string, limit int) ([]entity.User, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active AND (name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2
	`, fragment, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) SearchByField(ctx context.Context, field, query string, limit int) ([]entity.User, error) {
	var where string
	arg := any(query)
	switch field {
	case repository.SearchFieldEmail:
		where = `email ILIKE '%' || $1 || '%'`
	case repository.SearchFieldName:
		where = `name ILIKE '%' || $1 || '%'`
	case repository.SearchFieldCity:
		where = `place ILIKE '%' || $1 || '%'`
	case repository.SearchFieldAge:
		age, err := strconv.Atoi(query)
		if err != nil {
			return nil, apperr.Validation("age must be a valid number")
		}
		where = `date_of_birth IS NOT NULL AND date_part('year', age(date_of_birth)) = $1`
		arg = age
	default:
		return nil, apperr.Validation("invalid search field, must be one of: email, name, age, city")
	}

	rows, err := querierFrom(ctx, r.pool).Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active AND `+where+`
		ORDER BY name
		LIMIT $2
	`, arg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]entity.User, error) {
	var users []entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.GoogleID, &u.ProfilePic,
			&u.DateOfBirth, &u.Place, &u.IsAdmin, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
