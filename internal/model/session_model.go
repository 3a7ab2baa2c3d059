package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	PhotoId   *uuid.UUID `gorm:"type:uuid;index"`
	State     string     `gorm:"type:varchar(50);not null;default:'init'"`
	TurnCount int        `gorm:"not null;default:0"`
	// Progress and Scores are keyed by screening category code.
	Progress           datatypes.JSONMap `gorm:"type:jsonb"`
	Scores             datatypes.JSONMap `gorm:"type:jsonb"`
	PendingCategory    *string           `gorm:"type:varchar(50)"`
	PendingCandidateId *string           `gorm:"type:varchar(64)"`
	StartedAt          time.Time         `gorm:"not null"`
	CompletedAt        *time.Time
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}
