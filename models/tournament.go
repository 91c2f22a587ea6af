package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusRegistrationOpen TournamentStatus = "registration_open"
	TournamentStatusSeeded           TournamentStatus = "seeded"
	TournamentStatusInProgress       TournamentStatus = "in_progress"
	TournamentStatusCompleted        TournamentStatus = "completed"
	TournamentStatusCancelled        TournamentStatus = "cancelled"
)

// TournamentFormat is a closed set; single elimination is the only format the
// bracket engine currently supports.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
)

// SeedOrder selects how seeds 1..N are assigned when registration closes.
type SeedOrder string

const (
	SeedOrderRegistration SeedOrder = "registration"
	SeedOrderRank         SeedOrder = "rank"
)

type Tournament struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	Format          TournamentFormat `json:"format"`
	OrganizerID     int              `json:"organizer_id"`
	LocationID      *int             `json:"location_id,omitempty"`
	RegOpenDate     time.Time        `json:"reg_open_date"`
	StartDate       time.Time        `json:"start_date"`
	Status          TournamentStatus `json:"status"`
	MaxParticipants int              `json:"max_participants"`
	EntryFee        int              `json:"entry_fee"`
	RoundCount      int              `json:"round_count"`
	WinnerID        *int             `json:"winner_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`

	// Optional related entities, loaded on demand.
	Organizer    *User         `json:"organizer,omitempty"`
	Location     *Location     `json:"location,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	Matches      []Match       `json:"matches,omitempty"`
}
