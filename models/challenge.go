package models

import "time"

type ChallengeStatus string

const (
	ChallengeStatusPending   ChallengeStatus = "pending"
	ChallengeStatusAccepted  ChallengeStatus = "accepted"
	ChallengeStatusDeclined  ChallengeStatus = "declined"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusExpired   ChallengeStatus = "expired"
)

// Challenge is a head-to-head friend challenge at a location. The stake is
// escrowed from the challenger at creation and from the challenged user on
// acceptance; the winner takes the pot.
type Challenge struct {
	ID           int             `json:"id"`
	ChallengerID int             `json:"challenger_id"`
	ChallengedID int             `json:"challenged_id"`
	LocationID   int             `json:"location_id"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	Stake        int             `json:"stake"`
	Status       ChallengeStatus `json:"status"`

	ScoreChallenger *int `json:"score_challenger,omitempty"`
	ScoreChallenged *int `json:"score_challenged,omitempty"`
	WinnerID        *int `json:"winner_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	Challenger *User     `json:"challenger,omitempty"`
	Challenged *User     `json:"challenged,omitempty"`
	Location   *Location `json:"location,omitempty"`
}
