package services

import "github.com/footballinvestment/lfa-legacy-go/models"

// Actor identifies the authenticated caller of a service operation, as
// extracted from the request token.
type Actor struct {
	ID   int
	Role models.UserRole
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleModerator
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// canManageTournament reports whether the actor may run administrative
// operations against the tournament.
func canManageTournament(a Actor, t *models.Tournament) bool {
	return a.IsStaff() || a.ID == t.OrganizerID
}
