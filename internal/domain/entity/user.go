package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the user directory.
// Password holds a bcrypt hash and is empty for OAuth-only accounts;
// such accounts are reachable through GoogleID instead. Email is unique
// case-insensitively and stored lowercased.
type User struct {
	ID          string
	Name        string
	Email       string
	Password    string
	GoogleID    string
	ProfilePic  string
	DateOfBirth *time.Time
	Place       string
	IsAdmin     bool
	IsActive    bool
	LastLogin   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Age derives the user's age in full years, or -1 when the date of
// birth is unknown.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	years := now.Year() - u.DateOfBirth.Year()
	anniversary := u.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// NormalizeEmail lowercases and trims an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
