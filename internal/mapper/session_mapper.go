package mapper

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"memento-be/internal/entity"
	"memento-be/internal/model"
	"memento-be/pkg/cist"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	progress := make(map[cist.Category]bool, len(s.Progress))
	for key, value := range s.Progress {
		if done, ok := value.(bool); ok {
			progress[cist.Category(key)] = done
		}
	}

	scores := make(map[cist.Category]float64, len(s.Scores))
	for key, value := range s.Scores {
		// jsonb numbers decode as float64
		if score, ok := value.(float64); ok {
			scores[cist.Category(key)] = score
		}
	}

	var pendingCategory *cist.Category
	if s.PendingCategory != nil {
		category := cist.Category(*s.PendingCategory)
		pendingCategory = &category
	}

	return &entity.Session{
		Id:                 s.Id,
		UserId:             s.UserId,
		PhotoId:            s.PhotoId,
		State:              cist.State(s.State),
		TurnCount:          s.TurnCount,
		Progress:           progress,
		Scores:             scores,
		PendingCategory:    pendingCategory,
		PendingCandidateId: s.PendingCandidateId,
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
		IsDeleted:          s.DeletedAt.Valid,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	progress := make(datatypes.JSONMap, len(s.Progress))
	for category, done := range s.Progress {
		progress[string(category)] = done
	}

	scores := make(datatypes.JSONMap, len(s.Scores))
	for category, score := range s.Scores {
		scores[string(category)] = score
	}

	var pendingCategory *string
	if s.PendingCategory != nil {
		category := string(*s.PendingCategory)
		pendingCategory = &category
	}

	return &model.Session{
		Id:                 s.Id,
		UserId:             s.UserId,
		PhotoId:            s.PhotoId,
		State:              string(s.State),
		TurnCount:          s.TurnCount,
		Progress:           progress,
		Scores:             scores,
		PendingCategory:    pendingCategory,
		PendingCandidateId: s.PendingCandidateId,
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
		CreatedAt:          s.CreatedAt,
		DeletedAt:          deletedAt,
	}
}

func (m *SessionMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var category *cist.Category
	if msg.CISTCategory != nil {
		c := cist.Category(*msg.CISTCategory)
		category = &c
	}

	return &entity.Message{
		Id:                msg.Id,
		SessionId:         msg.SessionId,
		Role:              msg.Role,
		Content:           msg.Content,
		ResponseType:      cist.ResponseType(msg.ResponseType),
		CISTCategory:      category,
		ConversationOrder: msg.ConversationOrder,
		CreatedAt:         msg.CreatedAt,
	}
}

func (m *SessionMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var category *string
	if msg.CISTCategory != nil {
		c := string(*msg.CISTCategory)
		category = &c
	}

	return &model.Message{
		Id:                msg.Id,
		SessionId:         msg.SessionId,
		Role:              msg.Role,
		Content:           msg.Content,
		ResponseType:      string(msg.ResponseType),
		CISTCategory:      category,
		ConversationOrder: msg.ConversationOrder,
		CreatedAt:         msg.CreatedAt,
	}
}
