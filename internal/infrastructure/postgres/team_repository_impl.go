package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/apperr"
)

const teamColumns = `id, name, COALESCE(description, ''), COALESCE(logo_url, ''), sport_type,
	status, captain_id, players, match_history, stats, created_by,
	COALESCE(updated_by::text, ''), is_active, deleted_at, created_at, updated_at`

// TeamRepository persists team aggregates. The roster, match history and
// stats are embedded as JSONB so a team row is mutated in a single
// statement and the roster never outlives its team.
type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

func scanTeam(row pgx.Row) (*entity.Team, error) {
	t := &entity.Team{}
	var players, history, stats []byte
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.LogoURL, &t.SportType, &t.Status,
		&t.CaptainID, &players, &history, &stats, &t.CreatedBy, &t.UpdatedBy,
		&t.IsActive, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("team not found")
		}
		return nil, err
	}
	if err := json.Unmarshal(players, &t.Players); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if err := json.Unmarshal(history, &t.MatchHistory); err != nil {
		return nil, fmt.Errorf("decode match history: %w", err)
	}
	if err := json.Unmarshal(stats, &t.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return t, nil
}

func marshalEmbedded(t *entity.Team) (players, history, stats []byte, err error) {
	if t.Players == nil {
		t.Players = []entity.RosterEntry{}
	}
	if t.MatchHistory == nil {
		t.MatchHistory = []entity.MatchRecord{}
	}
	if players, err = json.Marshal(t.Players); err != nil {
		return nil, nil, nil, err
	}
	if history, err = json.Marshal(t.MatchHistory); err != nil {
		return nil, nil, nil, err
	}
	if stats, err = json.Marshal(t.Stats); err != nil {
		return nil, nil, nil, err
	}
	return players, history, stats, nil
}

func (r *TeamRepository) Create(ctx context.Context, t *entity.Team) error {
	players, history, stats, err := marshalEmbedded(t)
	if err != nil {
		return err
	}
	row := querierFrom(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO teams (name, description, logo_url, sport_type, status, captain_id,
			players, match_history, stats, created_by, updated_by)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, is_active, created_at, updated_at
	`, t.Name, t.Description, t.LogoURL, t.SportType, t.Status, t.CaptainID,
		players, history, stats, t.CreatedBy, t.UpdatedBy)

	err = row.Scan(&t.ID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("team name already exists, please choose a different name")
	}
	return err
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	return scanTeam(querierFrom(ctx, r.pool).QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE id = $1
	`, id))
}

func (r *TeamRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := querierFrom(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE lower(name) = lower($1))
	`, name).Scan(&exists)
	return exists, err
}

func (r *TeamRepository) List(ctx context.Context, f repository.TeamFilter) ([]entity.Team, int, error) {
	// Soft-deleted teams are always excluded from listings; the status
	// predicate defaults to active unless the caller filters explicitly.
	where := []string{"is_active = true"}
	args := []any{}

	status := f.Status
	if status == "" {
		status = entity.StatusActive
	}
	args = append(args, status)
	where = append(where, fmt.Sprintf("status = $%d", len(args)))

	if f.SportType != "" {
		args = append(args, f.SportType)
		where = append(where, fmt.Sprintf("sport_type = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		where = append(where, fmt.Sprintf(`(name ILIKE '%%' || $%d || '%%'
			OR description ILIKE '%%' || $%d || '%%'
			OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(players) AS p
				WHERE p->>'playerName' ILIKE '%%' || $%d || '%%'
			))`, n, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := querierFrom(ctx, r.pool).QueryRow(ctx,
		`SELECT count(*) FROM teams WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := querierFrom(ctx, r.pool).Query(ctx, fmt.Sprintf(`
		SELECT %s FROM teams WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, teamColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teams []entity.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, 0, err
		}
		teams = append(teams, *t)
	}
	return teams, total, rows.Err()
}

func (r *TeamRepository) Update(ctx context.Context, t *entity.Team) error {
	players, history, stats, err := marshalEmbedded(t)
	if err != nil {
		return err
	}
	row := querierFrom(ctx, r.pool).QueryRow(ctx, `
		UPDATE teams
		SET name = $1, description = NULLIF($2, ''), logo_url = NULLIF($3, ''), sport_type = $4,
			status = $5, captain_id = $6, players = $7, match_history = $8, stats = $9,
			updated_by = $10, is_active = $11, deleted_at = $12, updated_at = now()
		WHERE id = $13
		RETURNING updated_at
	`, t.Name, t.Description, t.LogoURL, t.SportType, t.Status, t.CaptainID,
		players, history, stats, t.UpdatedBy, t.IsActive, t.DeletedAt, t.ID)

	err = row.Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("team not found")
	}
	if isUniqueViolation(err) {
		return apperr.Conflict("team name already exists, please choose a different name")
	}
	return err
}

func (r *TeamRepository) SoftDelete(ctx context.Context, id, updaterID string, at time.Time) error {
	res, err := querierFrom(ctx, r.pool).Exec(ctx, `
		UPDATE teams
		SET is_active = false, deleted_at = $2, updated_by = $3, updated_at = $2
		WHERE id = $1
	`, id, at, updaterID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("team not found")
	}
	return nil
}

func (r *TeamRepository) GetDetail(ctx context.Context, id string) (*entity.TeamDetail, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	refIDs := map[string]bool{t.CaptainID: true, t.CreatedBy: true}
	if t.UpdatedBy != "" {
		refIDs[t.UpdatedBy] = true
	}
	for _, p := range t.Players {
		refIDs[p.PlayerID] = true
	}
	ids := make([]string, 0, len(refIDs))
	for uid := range refIDs {
		ids = append(ids, uid)
	}

	rows, err := querierFrom(ctx, r.pool).Query(ctx, `
		SELECT id, name, email, COALESCE(profile_pic, '') FROM users WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make(map[string]entity.UserSummary, len(ids))
	for rows.Next() {
		var s entity.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ProfilePic); err != nil {
			return nil, err
		}
		summaries[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	detail := &entity.TeamDetail{Team: *t}
	if s, ok := summaries[t.CaptainID]; ok {
		detail.Captain = &s
	}
	if s, ok := summaries[t.CreatedBy]; ok {
		detail.Creator = &s
	}
	if s, ok := summaries[t.UpdatedBy]; ok {
		detail.Updater = &s
	}
	for _, p := range t.Players {
		if s, ok := summaries[p.PlayerID]; ok {
			detail.RosterPlayers = append(detail.RosterPlayers, s)
		}
	}
	return detail, nil
}

var _ repository.TeamRepository = (*TeamRepository)(nil)
