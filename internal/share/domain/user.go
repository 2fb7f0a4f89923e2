package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID              string
	Username        string
	Email           string
	Role            Role
	ActivePatientID *string // Patient record the user is currently working in (nullable)
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
