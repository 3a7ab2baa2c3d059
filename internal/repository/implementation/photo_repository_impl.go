package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"memento-be/internal/entity"
	"memento-be/internal/mapper"
	"memento-be/internal/model"
	"memento-be/internal/repository/contract"
	"memento-be/internal/repository/specification"
)

type PhotoRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PhotoMapper
}

func NewPhotoRepository(db *gorm.DB) contract.PhotoRepository {
	return &PhotoRepositoryImpl{
		db:     db,
		mapper: mapper.NewPhotoMapper(),
	}
}

func (r *PhotoRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PhotoRepositoryImpl) Create(ctx context.Context, photo *entity.Photo) error {
	m := r.mapper.ToModel(photo)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*photo = *r.mapper.ToEntity(m)
	return nil
}

func (r *PhotoRepositoryImpl) Update(ctx context.Context, photo *entity.Photo) error {
	m := r.mapper.ToModel(photo)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*photo = *r.mapper.ToEntity(m)
	return nil
}

func (r *PhotoRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Photo{}, id).Error
}

func (r *PhotoRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Photo, error) {
	var m model.Photo
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PhotoRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Photo, error) {
	var models []*model.Photo
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Photo, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *PhotoRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Photo{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
