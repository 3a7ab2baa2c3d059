package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/pkg/logger"
	"memento-be/pkg/cist"
	"memento-be/pkg/qcache"
)

func newProducerFixture() (IProducerService, *gochannel.GoChannel, *qcache.TaskStore) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	tasks := qcache.NewTaskStore(qcache.NewMemoryStore())
	producer := NewProducerService(pubSub, TopicProduceQuestions, tasks, logger.NewNoopLogger())
	return producer, pubSub, tasks
}

func TestTriggerPublishesProductionMessage(t *testing.T) {
	producer, pubSub, tasks := newProducerFixture()
	ctx := context.Background()

	messages, err := pubSub.Subscribe(ctx, TopicProduceQuestions)
	require.NoError(t, err)

	session := &entity.Session{
		Id:       uuid.New(),
		UserId:   uuid.New(),
		Progress: map[cist.Category]bool{cist.CategoryOrientationTime: true},
		Scores:   map[cist.Category]float64{cist.CategoryOrientationTime: 4},
	}
	session.TurnCount = 3

	taskId, err := producer.Trigger(ctx, session, cist.CategoryMemoryRecall, "바다 사진 이야기")
	require.NoError(t, err)
	require.NotEmpty(t, taskId)

	select {
	case msg := <-messages:
		var payload dto.ProduceQuestionsMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, session.Id.String(), payload.SessionId)
		assert.Equal(t, taskId, payload.TaskId)
		assert.Equal(t, "바다 사진 이야기", payload.Message)
		assert.Equal(t, string(cist.CategoryMemoryRecall), payload.Category)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no production message received")
	}

	task, err := tasks.Get(ctx, taskId)
	require.NoError(t, err)
	assert.Equal(t, cist.TaskStatusPending, task.Status)
	assert.Equal(t, cist.TaskTypeQuestionGeneration, task.TaskType)
	assert.Equal(t, string(cist.CategoryMemoryRecall), task.InputData["category"])
	assert.Equal(t, float64(3), task.InputData["turn_count"])
}

func TestTriggerSkipsCompletedCategory(t *testing.T) {
	producer, _, _ := newProducerFixture()

	session := &entity.Session{
		Id:       uuid.New(),
		UserId:   uuid.New(),
		Progress: map[cist.Category]bool{cist.CategoryAttention: true},
	}

	taskId, err := producer.Trigger(context.Background(), session, cist.CategoryAttention, "끝났어요")
	require.NoError(t, err)
	assert.Empty(t, taskId)
}

func TestGetStatus(t *testing.T) {
	producer, _, tasks := newProducerFixture()
	ctx := context.Background()

	task := cist.NewAsyncTask(cist.TaskTypeQuestionGeneration, uuid.NewString())
	require.NoError(t, tasks.MarkFailed(ctx, task, assert.AnError))

	status, err := producer.GetStatus(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, cist.TaskStatusFailed, status.Status)
	assert.Equal(t, assert.AnError.Error(), status.ErrorMessage)

	_, err = producer.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, qcache.ErrTaskNotFound)
}
