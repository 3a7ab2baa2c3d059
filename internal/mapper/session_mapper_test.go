package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"memento-be/internal/entity"
	"memento-be/pkg/cist"
)

func TestSessionToModelAndBack(t *testing.T) {
	m := NewSessionMapper()

	pending := cist.CategoryAttention
	candidateId := "cand-7"
	session := &entity.Session{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		State:     cist.StateEvaluation,
		TurnCount: 5,
		Progress: map[cist.Category]bool{
			cist.CategoryOrientationTime: true,
		},
		Scores: map[cist.Category]float64{
			cist.CategoryOrientationTime: 3.5,
		},
		PendingCategory:    &pending,
		PendingCandidateId: &candidateId,
		StartedAt:          time.Now(),
		CreatedAt:          time.Now(),
	}

	model := m.ToModel(session)
	require.NotNil(t, model)
	assert.Equal(t, "cist_evaluation", model.State)
	assert.Equal(t, true, model.Progress[string(cist.CategoryOrientationTime)])

	back := m.ToEntity(model)
	require.NotNil(t, back)
	assert.Equal(t, session.Id, back.Id)
	assert.Equal(t, cist.StateEvaluation, back.State)
	assert.True(t, back.Progress[cist.CategoryOrientationTime])
	assert.Equal(t, 3.5, back.Scores[cist.CategoryOrientationTime])
	require.NotNil(t, back.PendingCategory)
	assert.Equal(t, pending, *back.PendingCategory)
	require.NotNil(t, back.PendingCandidateId)
	assert.Equal(t, candidateId, *back.PendingCandidateId)
	assert.False(t, back.IsDeleted)
}

// A session read from postgres decodes jsonb numbers as float64 and keeps
// category keys as plain strings; the mapper must recover typed maps.
func TestSessionToEntityFromJSONBValues(t *testing.T) {
	m := NewSessionMapper()

	session := &entity.Session{Id: uuid.New(), UserId: uuid.New(), State: cist.StatePhotoChat}
	model := m.ToModel(session)
	model.Progress = datatypes.JSONMap{
		string(cist.CategoryMemoryRecall): true,
		"not-a-bool":                      "yes",
	}
	model.Scores = datatypes.JSONMap{
		string(cist.CategoryMemoryRecall): float64(2),
		"not-a-number":                    "2",
	}

	back := m.ToEntity(model)

	assert.True(t, back.Progress[cist.CategoryMemoryRecall])
	assert.Len(t, back.Progress, 1)
	assert.Equal(t, 2.0, back.Scores[cist.CategoryMemoryRecall])
	assert.Len(t, back.Scores, 1)
}

func TestMessageMappingRoundTrip(t *testing.T) {
	m := NewSessionMapper()

	category := cist.CategoryLanguageNaming
	message := &entity.Message{
		Id:                uuid.New(),
		SessionId:         uuid.New(),
		Role:              entity.MessageRoleAssistant,
		Content:           "사진 속 꽃의 이름이 무엇인가요?",
		ResponseType:      cist.ResponseCISTQuestion,
		CISTCategory:      &category,
		ConversationOrder: 4,
		CreatedAt:         time.Now(),
	}

	back := m.MessageToEntity(m.MessageToModel(message))
	require.NotNil(t, back)
	assert.Equal(t, message.Content, back.Content)
	assert.Equal(t, cist.ResponseCISTQuestion, back.ResponseType)
	require.NotNil(t, back.CISTCategory)
	assert.Equal(t, category, *back.CISTCategory)
	assert.Equal(t, 4, back.ConversationOrder)
}

func TestNilMappings(t *testing.T) {
	m := NewSessionMapper()

	assert.Nil(t, m.ToEntity(nil))
	assert.Nil(t, m.ToModel(nil))
	assert.Nil(t, m.MessageToEntity(nil))
	assert.Nil(t, m.MessageToModel(nil))
}
