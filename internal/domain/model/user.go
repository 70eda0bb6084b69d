package model

import "time"

// Role describes what a user may do on the marketplace.
type Role string

const (
	RoleStudent    Role = "student"
	RoleUniversity Role = "university"
	RoleEmployer   Role = "employer"
	RoleAdmin      Role = "admin"
)

// User represents a registered marketplace account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// CanPostPrograms reports whether the role may create programs.
func (r Role) CanPostPrograms() bool {
	return r == RoleUniversity || r == RoleEmployer || r == RoleAdmin
}
