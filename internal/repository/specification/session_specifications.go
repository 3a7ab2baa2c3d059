package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"memento-be/pkg/cist"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByState struct {
	State cist.State
}

func (s ByState) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state = ?", string(s.State))
}

// ActiveOnly keeps sessions that still accept turns.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state <> ?", string(cist.StateCompleted))
}

// ByEmail filters users by email address.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}
