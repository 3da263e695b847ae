package domain

import "time"

// Role is the authorization role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if the Role is one of the defined constants.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserStatus marks whether an account is active.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// IsValid checks if the UserStatus is one of the defined constants.
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User is a member of the campus community. The favorites set lives on
// the user document and is the authoritative copy; client caches only
// buffer it.
type User struct {
	ID        string
	Name      string
	Email     string
	Course    string
	Contact   string
	Role      Role
	Status    UserStatus
	Favorites []string // ad ids
	CreatedAt time.Time
}
