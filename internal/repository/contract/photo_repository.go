package contract

import (
	"context"

	"github.com/google/uuid"

	"memento-be/internal/entity"
	"memento-be/internal/repository/specification"
)

type PhotoRepository interface {
	Create(ctx context.Context, photo *entity.Photo) error
	Update(ctx context.Context, photo *entity.Photo) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Photo, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Photo, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
