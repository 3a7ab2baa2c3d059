package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	BirthYear      *int      `json:"birth_year,omitempty"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CaregiverEmail string    `json:"caregiver_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName       string `json:"full_name" validate:"omitempty,min=2"`
	BirthYear      *int   `json:"birth_year" validate:"omitempty,gte=1900,lte=2026"`
	CaregiverEmail string `json:"caregiver_email" validate:"omitempty,email"`
}
