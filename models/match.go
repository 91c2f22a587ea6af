package models

import "time"

type MatchStatus string

const (
	// MatchStatusPending waits for at least one participant slot to resolve
	// from an earlier round.
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// Terminal reports whether no further transition is legal for the status.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusCancelled
}

// Match slot constants. NextSlot records which slot of the downstream match
// this match's winner feeds, fixed at generation time.
const (
	SlotA = 0
	SlotB = 1
)

type Match struct {
	ID           int `json:"id"`
	TournamentID int `json:"tournament_id"`
	RoundNumber  int `json:"round_number"`
	SlotIndex    int `json:"slot_index"`

	ParticipantAID *int `json:"participant_a_id,omitempty"`
	ParticipantBID *int `json:"participant_b_id,omitempty"`

	Status   MatchStatus `json:"status"`
	ScoreA   *int        `json:"score_a,omitempty"`
	ScoreB   *int        `json:"score_b,omitempty"`
	WinnerID *int        `json:"winner_id,omitempty"`

	// NextMatchID/NextSlot are stored explicitly rather than derived; the
	// bracket tree must survive cancellations and corrections without being
	// recomputed from match ordering. Nil for the final.
	NextMatchID *int `json:"next_match_id,omitempty"`
	NextSlot    *int `json:"next_slot,omitempty"`

	CancelReason *string   `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Participant returns the occupant of the given slot.
func (m *Match) Participant(slot int) *int {
	if slot == SlotA {
		return m.ParticipantAID
	}
	return m.ParticipantBID
}

// SetParticipant writes the occupant of the given slot.
func (m *Match) SetParticipant(slot int, id *int) {
	if slot == SlotA {
		m.ParticipantAID = id
		return
	}
	m.ParticipantBID = id
}

// HasParticipant reports whether id occupies either slot.
func (m *Match) HasParticipant(id int) bool {
	return (m.ParticipantAID != nil && *m.ParticipantAID == id) ||
		(m.ParticipantBID != nil && *m.ParticipantBID == id)
}

// BracketSnapshot is the read model returned by get_bracket: the full match
// layout grouped per round, in slot order.
type BracketSnapshot struct {
	TournamentID int              `json:"tournament_id"`
	Status       TournamentStatus `json:"status"`
	RoundCount   int              `json:"round_count"`
	Rounds       [][]Match        `json:"rounds"`
	WinnerID     *int             `json:"winner_id,omitempty"`
}
