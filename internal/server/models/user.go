// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account roles. Guest accounts exist only to receive targeted shares.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

type User struct {
	ID        string
	Email     string
	Role      string
	CreatedAt time.Time
}

// IsGuest reports whether the account may be the target of a guest-bound
// share link.
func (u *User) IsGuest() bool {
	return u.Role == RoleGuest
}
