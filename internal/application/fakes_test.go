package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/apperr"
)

// memUserRepo is an in-memory UserRepository for service tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (r *memUserRepo) add(u entity.User) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = entity.NormalizeEmail(u.Email)
	r.users[u.ID] = &u
	return &u
}

func (r *memUserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Email == u.Email {
			return apperr.Conflict("user with this email already exists")
		}
	}
	u.ID = uuid.NewString()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = entity.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *memUserRepo) GetByEmailOrGoogleID(ctx context.Context, email, googleID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = entity.NormalizeEmail(email)
	var byEmail *entity.User
	for _, u := range r.users {
		if googleID != "" && u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
		if u.Email == email {
			byEmail = u
		}
	}
	if byEmail != nil {
		cp := *byEmail
		return &cp, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (r *memUserRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("user not found")
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLogin = time.Now().UTC()
		return nil
	}
	return apperr.NotFound("user not found")
}

func (r *memUserRepo) List(ctx context.Context) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUserRepo) Search(ctx context.Context, fragment string, limit int) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	frag := strings.ToLower(fragment)
	out := []entity.User{}
	for _, u := range r.users {
		if !u.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), frag) || strings.Contains(u.Email, frag) {
			out = append(out, *u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memUserRepo) SearchByField(ctx context.Context, field, query string, limit int) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := []entity.User{}
	for _, u := range r.users {
		var match bool
		switch field {
		case repository.SearchFieldEmail:
			match = strings.Contains(u.Email, q)
		case repository.SearchFieldName:
			match = strings.Contains(strings.ToLower(u.Name), q)
		case repository.SearchFieldCity:
			match = strings.Contains(strings.ToLower(u.Place), q)
		case repository.SearchFieldAge:
			n, err := strconv.Atoi(query)
			if err != nil {
				return nil, apperr.Validation("age must be a number")
			}
			match = u.Age(time.Now()) == n
		default:
			return nil, apperr.Validation("invalid search field: %s", field)
		}
		if match {
			out = append(out, *u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// memTeamRepo is an in-memory TeamRepository backed by the user repo for
// detail expansion.
type memTeamRepo struct {
	mu    sync.Mutex
	teams map[string]*entity.Team
	users *memUserRepo
}

func newMemTeamRepo(users *memUserRepo) *memTeamRepo {
	return &memTeamRepo{teams: map[string]*entity.Team{}, users: users}
}

func (r *memTeamRepo) Create(ctx context.Context, t *entity.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.teams {
		if entity.SameName(ex.Name, t.Name) {
			return apperr.Conflict("team name already exists, please choose a different name")
		}
	}
	t.ID = uuid.NewString()
	cp := *t
	r.teams[t.ID] = &cp
	return nil
}

func (r *memTeamRepo) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.teams[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, apperr.NotFound("team not found")
}

func (r *memTeamRepo) GetDetail(ctx context.Context, id string) (*entity.TeamDetail, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &entity.TeamDetail{Team: *t}
	if u, err := r.users.GetByID(ctx, t.CaptainID); err == nil {
		d.Captain = &entity.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic}
	}
	if u, err := r.users.GetByID(ctx, t.CreatedBy); err == nil {
		d.Creator = &entity.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic}
	}
	for _, p := range t.Players {
		if u, err := r.users.GetByID(ctx, p.PlayerID); err == nil {
			d.RosterPlayers = append(d.RosterPlayers, entity.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic})
		}
	}
	return d, nil
}

func (r *memTeamRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if entity.SameName(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTeamRepo) List(ctx context.Context, f repository.TeamFilter) ([]entity.Team, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := f.Status
	if status == "" {
		status = entity.StatusActive
	}
	matched := []entity.Team{}
	for _, t := range r.teams {
		if !t.IsActive || t.Status != status {
			continue
		}
		if f.SportType != "" && t.SportType != f.SportType {
			continue
		}
		if f.Search != "" && !teamMatchesSearch(t, f.Search) {
			continue
		}
		matched = append(matched, *t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memTeamRepo) Update(ctx context.Context, t *entity.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[t.ID]; !ok {
		return apperr.NotFound("team not found")
	}
	for _, ex := range r.teams {
		if ex.ID != t.ID && entity.SameName(ex.Name, t.Name) {
			return apperr.Conflict("team name already exists, please choose a different name")
		}
	}
	cp := *t
	r.teams[t.ID] = &cp
	return nil
}

func (r *memTeamRepo) SoftDelete(ctx context.Context, id, updaterID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return apperr.NotFound("team not found")
	}
	t.IsActive = false
	t.DeletedAt = &at
	t.UpdatedBy = updaterID
	t.UpdatedAt = at
	return nil
}

// teamMatchesSearch mirrors the store predicate: case-insensitive
// substring over name, description, and roster player names.
func teamMatchesSearch(t *entity.Team, search string) bool {
	s := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Name), s) || strings.Contains(strings.ToLower(t.Description), s) {
		return true
	}
	for _, p := range t.Players {
		if strings.Contains(strings.ToLower(p.PlayerName), s) {
			return true
		}
	}
	return false
}

// passTx satisfies Atomic without real transaction semantics; the
// in-memory repos are already atomic per call.
type passTx struct{}

func (passTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memLogoStore records uploads and deletions.
type memLogoStore struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	failNext bool
}

func (s *memLogoStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return "", errors.New("upload failed")
	}
	s.uploads++
	return "https://cdn.test/logos/" + filename, nil
}

func (s *memLogoStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}
