package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/repository/specification"
	"memento-be/internal/repository/unitofwork"
)

var ErrPhotoNotFound = errors.New("photo not found")

type IPhotoService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreatePhotoRequest) (*dto.PhotoResponse, error)
	Update(ctx context.Context, userId, photoId uuid.UUID, req *dto.UpdatePhotoRequest) error
	Delete(ctx context.Context, userId, photoId uuid.UUID) error
	GetById(ctx context.Context, userId, photoId uuid.UUID) (*dto.PhotoResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.PhotoResponse, error)
}

type photoService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPhotoService(uowFactory unitofwork.RepositoryFactory) IPhotoService {
	return &photoService{uowFactory: uowFactory}
}

func (s *photoService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreatePhotoRequest) (*dto.PhotoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	photo := &entity.Photo{
		Id:          uuid.New(),
		UserId:      userId,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		TakenAt:     req.TakenAt,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now(),
	}

	if err := uow.PhotoRepository().Create(ctx, photo); err != nil {
		return nil, err
	}

	return toPhotoResponse(photo), nil
}

// findOwned resolves a photo and enforces ownership in one step.
func (s *photoService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, photoId uuid.UUID) (*entity.Photo, error) {
	photo, err := uow.PhotoRepository().FindOne(ctx,
		specification.ByID{ID: photoId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, ErrPhotoNotFound
	}
	return photo, nil
}

func (s *photoService) Update(ctx context.Context, userId, photoId uuid.UUID, req *dto.UpdatePhotoRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	photo, err := s.findOwned(ctx, uow, userId, photoId)
	if err != nil {
		return err
	}

	if req.Title != "" {
		photo.Title = req.Title
	}
	if req.Description != "" {
		photo.Description = req.Description
	}
	if req.TakenAt != nil {
		photo.TakenAt = req.TakenAt
	}
	if req.Metadata != nil {
		photo.Metadata = req.Metadata
	}

	return uow.PhotoRepository().Update(ctx, photo)
}

func (s *photoService) Delete(ctx context.Context, userId, photoId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	photo, err := s.findOwned(ctx, uow, userId, photoId)
	if err != nil {
		return err
	}

	return uow.PhotoRepository().Delete(ctx, photo.Id)
}

func (s *photoService) GetById(ctx context.Context, userId, photoId uuid.UUID) (*dto.PhotoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	photo, err := s.findOwned(ctx, uow, userId, photoId)
	if err != nil {
		return nil, err
	}
	return toPhotoResponse(photo), nil
}

func (s *photoService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.PhotoResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	photos, err := uow.PhotoRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.PhotoResponse, len(photos))
	for i, photo := range photos {
		responses[i] = toPhotoResponse(photo)
	}
	return responses, nil
}

func toPhotoResponse(photo *entity.Photo) *dto.PhotoResponse {
	return &dto.PhotoResponse{
		Id:          photo.Id,
		URL:         photo.URL,
		Title:       photo.Title,
		Description: photo.Description,
		TakenAt:     photo.TakenAt,
		Metadata:    photo.Metadata,
		CreatedAt:   photo.CreatedAt,
	}
}
