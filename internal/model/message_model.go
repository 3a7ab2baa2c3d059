package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_messages_session_order,priority:1"`
	Role         string    `gorm:"type:varchar(50);not null"`
	Content      string    `gorm:"type:text;not null"`
	ResponseType string    `gorm:"type:varchar(50);not null"`
	CISTCategory *string   `gorm:"type:varchar(50)"`
	// Strict per-session ordering; the unique index rejects duplicate
	// positions from concurrent writers.
	ConversationOrder int       `gorm:"not null;uniqueIndex:idx_messages_session_order,priority:2"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}
