package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleUser      UserRole = "user"
	UserRoleCaregiver UserRole = "caregiver"
	UserRoleAdmin     UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	BirthYear    *int
	Role         UserRole
	Status       UserStatus
	// CaregiverEmail receives the screening report when a session completes.
	CaregiverEmail *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
