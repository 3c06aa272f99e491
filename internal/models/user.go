package models

import "time"

type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        UserRole
	Status      UserStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Privileged reports whether the user may bypass the moderation visibility
// filter and act on review queues.
func (u User) Privileged() bool {
	return u.Role == UserRoleModerator || u.Role == UserRoleAdmin
}
