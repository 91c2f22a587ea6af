package models

import "time"

type UserRole string

const (
	RolePlayer    UserRole = "player"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID             int        `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Nickname       string     `json:"nickname"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           UserRole   `json:"role"`
	CreditBalance  int        `json:"credit_balance"`
	EmailConfirmed bool       `json:"email_confirmed"`
	Banned         bool       `json:"banned"`
	BanReason      *string    `json:"ban_reason,omitempty"`
	AvatarKey      *string    `json:"-"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

type UserFilter struct {
	Search *string
	Role   *UserRole
	Banned *bool
	Page   int
	Limit  int
}

type UserListResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}
