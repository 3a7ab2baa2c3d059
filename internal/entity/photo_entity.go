package entity

import (
	"time"

	"github.com/google/uuid"
)

// Photo is a user-uploaded memory photo. The service stores metadata only;
// binary storage lives behind the URL.
type Photo struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	URL         string
	Title       string
	Description string
	TakenAt     *time.Time
	// Metadata carries free-form context used to seed conversations,
	// e.g. {"place": "부산 해운대", "people": ["딸", "손자"]}.
	Metadata  map[string]interface{}
	CreatedAt time.Time
	UpdatedAt *time.Time
	IsDeleted bool
}
