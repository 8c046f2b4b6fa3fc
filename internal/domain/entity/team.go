package entity

import (
	"strings"
	"time"
)

// Sport types a team can be registered under.
const (
	SportCricket    = "Cricket"
	SportFootball   = "Football"
	SportKabaddi    = "Kabaddi"
	SportBasketball = "Basketball"
	SportVolleyball = "Volleyball"
	SportOther      = "Other"
)

// Team lifecycle statuses. Soft deletion is tracked separately through
// IsActive/DeletedAt so a suspended team is still "alive".
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// DefaultRole is assigned to roster entries that do not request one.
const DefaultRole = "Player"

var sportTypes = map[string]bool{
	SportCricket:    true,
	SportFootball:   true,
	SportKabaddi:    true,
	SportBasketball: true,
	SportVolleyball: true,
	SportOther:      true,
}

var teamStatuses = map[string]bool{
	StatusActive:    true,
	StatusInactive:  true,
	StatusSuspended: true,
}

var rosterRoles = map[string]bool{
	"Batsman":                true,
	"Bowler":                 true,
	"All-rounder":            true,
	"Wicket-keeper":          true,
	"Batsman/Wicket-keeper":  true,
	"Goalkeeper":             true,
	"Defender":               true,
	"Midfielder":             true,
	"Forward":                true,
	"Raider":                 true,
	"Captain":                true,
	"Vice Captain":           true,
	DefaultRole:              true,
}

func ValidSportType(s string) bool { return sportTypes[s] }
func ValidTeamStatus(s string) bool { return teamStatuses[s] }
func ValidRosterRole(r string) bool { return rosterRoles[r] }

// RosterEntry binds a player to a team with a role and a join timestamp.
// PlayerName is a snapshot captured at reconciliation time; later renames
// of the user do not rewrite historical rosters.
type RosterEntry struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// MatchRecord is an owned value object on Team; matches have no
// independent lifecycle here.
type MatchRecord struct {
	MatchID  string    `json:"matchId,omitempty"`
	Status   string    `json:"status,omitempty"`
	Date     time.Time `json:"date,omitempty"`
	Opponent string    `json:"opponent,omitempty"`
	Result   string    `json:"result,omitempty"`
}

// TeamStats holds aggregate match results.
type TeamStats struct {
	MatchesPlayed int     `json:"matchesPlayed"`
	MatchesWon    int     `json:"matchesWon"`
	MatchesLost   int     `json:"matchesLost"`
	MatchesDrawn  int     `json:"matchesDrawn"`
	WinPercentage float64 `json:"winPercentage"`
}

// Team is the aggregate root for the team domain. Roster entries and
// match history are embedded value objects owned exclusively by the team;
// users are referenced by id only.
type Team struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	LogoURL      string        `json:"logo,omitempty"`
	SportType    string        `json:"sportType"`
	Status       string        `json:"status"`
	CaptainID    string        `json:"captain"`
	Players      []RosterEntry `json:"players"`
	MatchHistory []MatchRecord `json:"matchHistory"`
	Stats        TeamStats     `json:"stats"`
	CreatedBy    string        `json:"createdBy"`
	UpdatedBy    string        `json:"updatedBy,omitempty"`
	IsActive     bool          `json:"isActive"`
	DeletedAt    *time.Time    `json:"deletedAt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// SameName reports whether two team names collide under the
// case-insensitive uniqueness rule.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// UserSummary is the projection used when expanding user references on a
// team (captain, creator, updater, roster players). It never carries
// credentials.
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic,omitempty"`
}

// TeamDetail is a Team with its user references expanded.
type TeamDetail struct {
	Team
	Captain       *UserSummary  `json:"captain,omitempty"`
	Creator       *UserSummary  `json:"creator,omitempty"`
	Updater       *UserSummary  `json:"updater,omitempty"`
	RosterPlayers []UserSummary `json:"rosterPlayers,omitempty"`
}
