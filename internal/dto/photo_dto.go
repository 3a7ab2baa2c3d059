package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePhotoRequest struct {
	URL         string                 `json:"url" validate:"required,url"`
	Title       string                 `json:"title" validate:"omitempty,max=255"`
	Description string                 `json:"description" validate:"omitempty,max=2000"`
	TakenAt     *time.Time             `json:"taken_at"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type UpdatePhotoRequest struct {
	Title       string                 `json:"title" validate:"omitempty,max=255"`
	Description string                 `json:"description" validate:"omitempty,max=2000"`
	TakenAt     *time.Time             `json:"taken_at"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type PhotoResponse struct {
	Id          uuid.UUID              `json:"id"`
	URL         string                 `json:"url"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	TakenAt     *time.Time             `json:"taken_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}
