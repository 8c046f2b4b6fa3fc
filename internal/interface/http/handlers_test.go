package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playsquad/playsquad-api/internal/application"
	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/apperr"
	"github.com/playsquad/playsquad-api/pkg/validation"
)

// fakeStore is a minimal in-memory implementation of the user and team
// repositories for routing-level tests.
type fakeStore struct {
	users map[string]*entity.User
	teams map[string]*entity.Team
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*entity.User{}, teams: map[string]*entity.Team{}}
}

func (s *fakeStore) addUser(name, email string) *entity.User {
	u := &entity.User{ID: uuid.NewString(), Name: name, Email: entity.NormalizeEmail(email), IsActive: true, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) Create(ctx context.Context, u *entity.User) error {
	for _, ex := range s.users {
		if ex.Email == u.Email {
			return apperr.Conflict("user with this email already exists")
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range s.users {
		if u.Email == entity.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *fakeStore) GetByEmailOrGoogleID(ctx context.Context, email, googleID string) (*entity.User, error) {
	for _, u := range s.users {
		if googleID != "" && u.GoogleID == googleID {
			return u, nil
		}
	}
	return s.GetByEmail(ctx, email)
}

func (s *fakeStore) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	out := []entity.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeStore) Update(ctx context.Context, u *entity.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) UpdateLastLogin(ctx context.Context, id string) error { return nil }

func (s *fakeStore) List(ctx context.Context) ([]entity.User, error) {
	out := []entity.User{}
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeStore) Search(ctx context.Context, fragment string, limit int) ([]entity.User, error) {
	out := []entity.User{}
	for _, u := range s.users {
		if strings.Contains(u.Email, strings.ToLower(fragment)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeStore) SearchByField(ctx context.Context, field, query string, limit int) ([]entity.User, error) {
	if field != repository.SearchFieldName {
		return nil, apperr.Validation("invalid search field: %s", field)
	}
	out := []entity.User{}
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

// Team repository side.

func (s *fakeStore) CreateTeam(ctx context.Context, t *entity.Team) error {
	taken, _ := s.ExistsByName(ctx, t.Name)
	if taken {
		return apperr.Conflict("team name already exists, please choose a different name")
	}
	t.ID = uuid.NewString()
	s.teams[t.ID] = t
	return nil
}

func (s *fakeStore) GetTeamByID(ctx context.Context, id string) (*entity.Team, error) {
	if t, ok := s.teams[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, apperr.NotFound("team not found")
}

func (s *fakeStore) GetDetail(ctx context.Context, id string) (*entity.TeamDetail, error) {
	t, err := s.GetTeamByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &entity.TeamDetail{Team: *t}
	if u, ok := s.users[t.CaptainID]; ok {
		d.Captain = &entity.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return d, nil
}

func (s *fakeStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, t := range s.teams {
		if entity.SameName(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListTeams(ctx context.Context, f repository.TeamFilter) ([]entity.Team, int, error) {
	status := f.Status
	if status == "" {
		status = entity.StatusActive
	}
	out := []entity.Team{}
	for _, t := range s.teams {
		if !t.IsActive || t.Status != status {
			continue
		}
		if f.Search != "" && !matchesTeamSearch(t, f.Search) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

// matchesTeamSearch applies the store's search semantics: substring
// match over name, description, and roster player names.
func matchesTeamSearch(t *entity.Team, search string) bool {
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, p := range t.Players {
		if strings.Contains(strings.ToLower(p.PlayerName), q) {
			return true
		}
	}
	return false
}

func (s *fakeStore) UpdateTeam(ctx context.Context, t *entity.Team) error {
	cp := *t
	s.teams[t.ID] = &cp
	return nil
}

func (s *fakeStore) SoftDelete(ctx context.Context, id, updaterID string, at time.Time) error {
	t, ok := s.teams[id]
	if !ok {
		return apperr.NotFound("team not found")
	}
	t.IsActive = false
	t.DeletedAt = &at
	t.UpdatedBy = updaterID
	return nil
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// teamRepoAdapter maps the TeamRepository interface onto fakeStore's
// team methods, whose names dodge the user-side ones.
type teamRepoAdapter struct{ *fakeStore }

func (a teamRepoAdapter) Create(ctx context.Context, t *entity.Team) error {
	return a.CreateTeam(ctx, t)
}

func (a teamRepoAdapter) GetByID(ctx context.Context, id string) (*entity.Team, error) {
	return a.GetTeamByID(ctx, id)
}

func (a teamRepoAdapter) List(ctx context.Context, f repository.TeamFilter) ([]entity.Team, int, error) {
	return a.ListTeams(ctx, f)
}

func (a teamRepoAdapter) Update(ctx context.Context, t *entity.Team) error {
	return a.UpdateTeam(ctx, t)
}

// testAuth injects the caller identity from test headers, standing in
// for the session middleware.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader("X-Test-User")
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing access token"})
			return
		}
		c.Set("userID", uid)
		c.Set("isAdmin", c.GetHeader("X-Test-Admin") == "true")
		c.Next()
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	store := newFakeStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	teamSvc := application.NewTeamService(teamRepoAdapter{store}, store, store, nil, logger, nil)
	h := NewTeamHandler(teamSvc, logger)

	r := gin.New()
	api := r.Group("/api")
	teams := api.Group("/teams")
	teams.Use(testAuth())
	teams.POST("", h.Create)
	teams.GET("", h.List)
	teams.GET("/:id", h.Get)
	teams.PUT("/:id", h.Update)
	teams.DELETE("/:id", h.Delete)
	return r, store
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func doJSON(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTeamLifecycleOverHTTP(t *testing.T) {
	r, store := newTestRouter(t)
	creator := store.addUser("Asha", "asha@example.com")
	bowler := store.addUser("Ravi", "ravi@example.com")
	stranger := store.addUser("Noor", "noor@example.com")

	// Create via multipart form with a players JSON array.
	body, contentType := multipartBody(t, map[string]string{
		"teamName":        "Hawks",
		"teamDescription": "weekend cricket",
		"sportType":       "Cricket",
		"players":         `[{"playerId":"` + bowler.ID + `","role":"Bowler"}]`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/teams", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", creator.ID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID      string               `json:"id"`
			Name    string               `json:"name"`
			Players []entity.RosterEntry `json:"players"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "Hawks", created.Data.Name)
	require.Len(t, created.Data.Players, 1)
	assert.Equal(t, "Ravi", created.Data.Players[0].PlayerName)
	teamID := created.Data.ID

	// Unauthenticated create is rejected.
	w = doJSON(r, http.MethodPost, "/api/teams", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Rename via JSON body.
	w = doJSON(r, http.MethodPut, "/api/teams/"+teamID, []byte(`{"teamName":"Eagles"}`), map[string]string{"X-Test-User": creator.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"Eagles"`)

	// A stranger cannot delete.
	w = doJSON(r, http.MethodDelete, "/api/teams/"+teamID, nil, map[string]string{"X-Test-User": stranger.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The creator can.
	w = doJSON(r, http.MethodDelete, "/api/teams/"+teamID, nil, map[string]string{"X-Test-User": creator.ID})
	require.Equal(t, http.StatusOK, w.Code)

	// The team no longer lists, but stays retrievable by id.
	w = doJSON(r, http.MethodGet, "/api/teams", nil, map[string]string{"X-Test-User": creator.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Zero(t, listed.Pagination.Total)
	assert.Empty(t, listed.Data)

	w = doJSON(r, http.MethodGet, "/api/teams/"+teamID, nil, map[string]string{"X-Test-User": creator.ID})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTeamRoutesRejectMalformedIDs(t *testing.T) {
	r, store := newTestRouter(t)
	u := store.addUser("Asha", "asha@example.com")

	w := doJSON(r, http.MethodGet, "/api/teams/not-a-uuid", nil, map[string]string{"X-Test-User": u.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/teams/not-a-uuid", nil, map[string]string{"X-Test-User": u.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTeamDuplicateNameOverHTTP(t *testing.T) {
	r, store := newTestRouter(t)
	u := store.addUser("Asha", "asha@example.com")

	var lastBody string
	for i, wantStatus := range []int{http.StatusCreated, http.StatusBadRequest} {
		body, contentType := multipartBody(t, map[string]string{
			"teamName":  "Hawks",
			"sportType": "Cricket",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/teams", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Test-User", u.ID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equalf(t, wantStatus, w.Code, "attempt %d: %s", i, w.Body.String())
		lastBody = w.Body.String()
	}
	assert.Contains(t, lastBody, "team name already exists")
}
