package models

import "time"

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	FriendshipStatusDeclined FriendshipStatus = "declined"
)

// Friendship is stored once per pair; RequesterID sent the request and
// AddresseeID received it.
type Friendship struct {
	ID          int              `json:"id"`
	RequesterID int              `json:"requester_id"`
	AddresseeID int              `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`

	Requester *User `json:"requester,omitempty"`
	Addressee *User `json:"addressee,omitempty"`
}
