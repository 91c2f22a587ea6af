package models

import "time"

type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	// Seed is 0 until the registry snapshot is frozen at seeding time,
	// then 1..N and immutable.
	Seed       int       `json:"seed"`
	Rank       int       `json:"rank"`
	Eliminated bool      `json:"eliminated"`
	CreatedAt  time.Time `json:"created_at"`

	User *User `json:"user,omitempty"`
}
