package entity

import (
	"time"

	"github.com/google/uuid"

	"memento-be/pkg/cist"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one transcript entry. ConversationOrder is the strict 1-based
// position within the session; user and assistant entries interleave.
type Message struct {
	Id                uuid.UUID
	SessionId         uuid.UUID
	Role              string
	Content           string
	ResponseType      cist.ResponseType
	CISTCategory      *cist.Category
	ConversationOrder int
	CreatedAt         time.Time
}
