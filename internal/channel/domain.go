// Package channel persists the channels the bot operates in and their
// command-routing settings.
package channel

import "time"

// Channel is one persisted channel row.
type Channel struct {
	ID            int32      `json:"id"`
	RoomID        *int64     `json:"room_id"`
	Name          string     `json:"name"`
	JoinOnStart   bool       `json:"join_on_start"`
	CommandPrefix *string    `json:"command_prefix"`
	Silent        bool       `json:"silent"`
	UpdatedAt     *time.Time `json:"updated_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Settings are the user-adjustable channel fields; nil means "leave as is".
// CommandPrefix uses a double pointer so "clear the prefix" and "keep the
// prefix" stay distinguishable.
type Settings struct {
	JoinOnStart   *bool
	CommandPrefix **string
	Silent        *bool
}

// Insert describes a new channel row.
type Insert struct {
	Name          string
	RoomID        *int64
	JoinOnStart   bool
	CommandPrefix *string
	Silent        bool
}
