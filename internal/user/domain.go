// Package user persists chat users and keeps their name history.
package user

import "time"

// User is one persisted chat user.
type User struct {
	ID                   int64      `json:"id"`
	PlatformID           int64      `json:"platform_id"`
	Login                string     `json:"login"`
	DisplayName          string     `json:"display_name"`
	PreviousLogins       []string   `json:"previous_logins"`
	PreviousDisplayNames []string   `json:"previous_display_names"`
	UpdatedAt            *time.Time `json:"updated_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Matches reports whether the stored identity still matches what an event
// reported for the same platform id.
func (u User) Matches(login, displayName string) bool {
	return u.Login == login && u.DisplayName == displayName
}
