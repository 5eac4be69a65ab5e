package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           uuid.UUID
	Username     string
	Email        string
	PasswordHash *string
	FullName     string
	Role         UserRole
	Status       UserStatus
	Online       bool
	LastSeen     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
