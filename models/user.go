package models

import (
	"time"
)

type UserRole string

const (
	RoleAuthor      UserRole = "author"
	RoleAdmin       UserRole = "admin"
	RoleSystemAdmin UserRole = "system_admin"
)

// Valid reports whether the role can be held by a stored user.
// system_admin is a configured credential, never a row.
func (r UserRole) Valid() bool {
	return r == RoleAuthor || r == RoleAdmin
}

// CanModerate reports whether the role may decide on publications.
func (r UserRole) CanModerate() bool {
	return r == RoleAdmin || r == RoleSystemAdmin
}

type User struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Password      string    `json:"-" gorm:"not null"`
	Role          UserRole  `json:"role" gorm:"not null;default:'author'"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   UserRole
}

func (a Actor) IsSystemAdmin() bool {
	return a.Role == RoleSystemAdmin
}

// SystemAdminActor is the actor carried by a system admin token.
func SystemAdminActor() Actor {
	return Actor{Role: RoleSystemAdmin}
}
