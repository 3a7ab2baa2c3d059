package mapper

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"memento-be/internal/entity"
	"memento-be/internal/model"
)

type PhotoMapper struct{}

func NewPhotoMapper() *PhotoMapper {
	return &PhotoMapper{}
}

func (m *PhotoMapper) ToEntity(p *model.Photo) *entity.Photo {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Photo{
		Id:          p.Id,
		UserId:      p.UserId,
		URL:         p.URL,
		Title:       p.Title,
		Description: p.Description,
		TakenAt:     p.TakenAt,
		Metadata:    map[string]interface{}(p.Metadata),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAt,
		IsDeleted:   p.DeletedAt.Valid,
	}
}

func (m *PhotoMapper) ToModel(p *entity.Photo) *model.Photo {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	return &model.Photo{
		Id:          p.Id,
		UserId:      p.UserId,
		URL:         p.URL,
		Title:       p.Title,
		Description: p.Description,
		TakenAt:     p.TakenAt,
		Metadata:    datatypes.JSONMap(p.Metadata),
		CreatedAt:   p.CreatedAt,
		DeletedAt:   deletedAt,
	}
}
