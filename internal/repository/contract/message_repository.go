package contract

import (
	"context"

	"github.com/google/uuid"

	"memento-be/internal/entity"
	"memento-be/internal/repository/specification"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// NextConversationOrder returns the next free position in the session
	// transcript. Callers must hold the session lock.
	NextConversationOrder(ctx context.Context, sessionId uuid.UUID) (int, error)
}
