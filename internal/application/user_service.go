package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/playsquad/playsquad-api/internal/domain/entity"
	"github.com/playsquad/playsquad-api/internal/domain/repository"
	"github.com/playsquad/playsquad-api/pkg/apperr"
	"github.com/playsquad/playsquad-api/pkg/helpers"
	"github.com/playsquad/playsquad-api/pkg/mailer"
)

const (
	userSearchLimit   = 10
	playerSearchLimit = 50
	sessionTTL        = 24 * time.Hour
)

// UserService is the user directory: registration, credential and OAuth
// sign-in, session issuance, and user search.
type UserService struct {
	Repo         repository.UserRepository
	Tx           repository.Atomic
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          *helpers.RabbitPublisher
	Clock        clockwork.Clock
}

func NewUserService(repo repository.UserRepository, tx repository.Atomic, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, pub *helpers.RabbitPublisher, clock clockwork.Clock) *UserService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UserService{
		Repo:         repo,
		Tx:           tx,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Pub:          pub,
		Clock:        clock,
	}
}

// TokenPair is an issued access/refresh token set.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth *time.Time
	Place       string
}

// Register creates a password account. The email pre-check is a
// fast-path rejection; the unique index reports the authoritative
// conflict under concurrent registration.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	email := entity.NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("user with this email already exists")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := &entity.User{
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Password:    hash,
		DateOfBirth: in.DateOfBirth,
		Place:       strings.TrimSpace(in.Place),
		IsActive:    true,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.indexUser(ctx, u)
	s.sendWelcomeEmail(ctx, u)

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user registered")
	}
	return u, nil
}

// Login verifies the bcrypt password hash and records the sign-in.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, apperr.Unauthorized("invalid email or password")
	}
	// OAuth-only accounts carry no hash and cannot log in with a password.
	if u.Password == "" || !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, apperr.Unauthorized("invalid email or password")
	}

	if err := s.Repo.UpdateLastLogin(ctx, u.ID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to update last login")
	}
	pair, err := s.IssueSession(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueSession generates an access/refresh token pair and records the
// session hash in Redis, which the auth middleware validates against.
func (s *UserService) IssueSession(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"is_admin":   strconv.FormatBool(u.IsAdmin),
			"sid":        sid,
			"created_at": s.Clock.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("redis session write failed")
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the token pair when the refresh token matches the
// current session.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	if s.Redis != nil {
		data, err := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, apperr.Unauthorized("session expired")
		}
	}
	return s.IssueSession(ctx, u)
}

// Logout drops the Redis session.
func (s *UserService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("failed to drop session")
	}
}

// GoogleProfile is the subset of the OAuth userinfo response we keep.
type GoogleProfile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// UpsertFromGoogleProfile finds the account by Google id or email and
// refreshes name/picture/last-login, attaching the Google id to a
// password account sharing the email. Unknown profiles become new
// accounts. Replaying the same profile never creates a duplicate.
func (s *UserService) UpsertFromGoogleProfile(ctx context.Context, p GoogleProfile) (*entity.User, error) {
	if p.GoogleID == "" || p.Email == "" {
		return nil, apperr.Validation("incomplete google profile")
	}
	email := entity.NormalizeEmail(p.Email)

	var out *entity.User
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		u, err := s.Repo.GetByEmailOrGoogleID(ctx, email, p.GoogleID)
		if err != nil {
			if !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
			u = &entity.User{
				Name:       p.Name,
				Email:      email,
				GoogleID:   p.GoogleID,
				ProfilePic: p.Picture,
				IsActive:   true,
			}
			if err := s.Repo.Create(ctx, u); err != nil {
				return err
			}
			out = u
			return nil
		}

		if p.Name != "" {
			u.Name = p.Name
		}
		if p.Picture != "" {
			u.ProfilePic = p.Picture
		}
		if u.GoogleID == "" {
			u.GoogleID = p.GoogleID
		}
		u.LastLogin = s.Clock.Now().UTC()
		if err := s.Repo.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexUser(ctx, out)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": out.ID, "email": out.Email}).Info("google sign-in")
	}
	return out, nil
}

// GetProfile fetches a single user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, userID)
}

// ListUsers returns all users newest-first for the admin panel. The
// password hash never leaves the service layer.
func (s *UserService) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// SearchUsers matches fragment against name and email. Elasticsearch is
// used when configured; otherwise the directory falls back to the
// database.
func (s *UserService) SearchUsers(ctx context.Context, fragment string) ([]entity.UserSummary, error) {
	fragment = strings.TrimSpace(fragment)
	if len(fragment) < 2 {
		return nil, apperr.Validation("please provide at least 2 characters to search")
	}

	if s.ES != nil && s.ESUsersIndex != "" {
		if out, err := s.searchUsersES(ctx, fragment); err == nil {
			return out, nil
		} else if s.Logger != nil {
			s.Logger.WithError(err).Warn("elasticsearch user search failed, falling back to database")
		}
	}

	users, err := s.Repo.Search(ctx, fragment, userSearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]entity.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, entity.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic})
	}
	return out, nil
}

// PlayerResult is the player-search projection; credentials and internal
// fields are excluded.
type PlayerResult struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	ProfilePic  string     `json:"profilePic,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Place       string     `json:"place,omitempty"`
	Age         int        `json:"age,omitempty"`
}

// SearchPlayers queries one field of {email, name, age, city}.
func (s *UserService) SearchPlayers(ctx context.Context, field, query string) ([]PlayerResult, error) {
	if field == "" || query == "" {
		return nil, apperr.Validation("both field and query parameters are required")
	}
	users, err := s.Repo.SearchByField(ctx, field, query, playerSearchLimit)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	out := make([]PlayerResult, 0, len(users))
	for _, u := range users {
		r := PlayerResult{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			ProfilePic:  u.ProfilePic,
			DateOfBirth: u.DateOfBirth,
			Place:       u.Place,
		}
		if age := u.Age(now); age >= 0 {
			r.Age = age
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *UserService) searchUsersES(ctx context.Context, fragment string) ([]entity.UserSummary, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  fragment,
				"type":   "bool_prefix",
				"fields": []string{"email^2", "name"},
			},
		},
		"size": userSearchLimit,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.UserSummary `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]entity.UserSummary, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

// indexUser mirrors the public profile fields into the search index,
// best effort.
func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := entity.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b))}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": u.ID}).Warn("es index response error")
	}
}

// sendWelcomeEmail enqueues a welcome email job, best effort.
func (s *UserService) sendWelcomeEmail(ctx context.Context, u *entity.User) {
	if s.Pub == nil {
		return
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Subject: "Welcome to PlaySquad",
		Text:    "Hi " + u.Name + ",\n\nYour PlaySquad account is ready. Build your first team and invite your squad.\n",
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to enqueue welcome email")
	}
}
