package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/pkg/logger"
	"memento-be/pkg/cist"
	"memento-be/pkg/qcache"
)

// TopicProduceQuestions carries background question-production requests.
const TopicProduceQuestions = "GENERATE_CIST_QUESTIONS"

type IProducerService interface {
	// Trigger enqueues question production for one screening category and
	// returns the task id. An empty id with a nil error means the category
	// is already done and nothing was enqueued.
	Trigger(ctx context.Context, session *entity.Session, category cist.Category, userMessage string) (string, error)
	GetStatus(ctx context.Context, taskId string) (*dto.TaskStatusResponse, error)
}

type producerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	tasks     *qcache.TaskStore
	log       logger.ILogger
}

func NewProducerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	tasks *qcache.TaskStore,
	log logger.ILogger,
) IProducerService {
	return &producerService{
		pubSub:    pubSub,
		topicName: topicName,
		tasks:     tasks,
		log:       log,
	}
}

func (p *producerService) Trigger(ctx context.Context, session *entity.Session, category cist.Category, userMessage string) (string, error) {
	if session.Progress[category] {
		return "", nil
	}

	task := cist.NewAsyncTask(cist.TaskTypeQuestionGeneration, session.Id.String())
	task.InputData = map[string]interface{}{
		"message":    userMessage,
		"category":   string(category),
		"turn_count": session.TurnCount,
	}
	if err := p.tasks.Save(ctx, task); err != nil {
		return "", err
	}

	payload := dto.ProduceQuestionsMessage{
		SessionId: session.Id.String(),
		TaskId:    task.Id,
		UserId:    session.UserId.String(),
		Message:   userMessage,
		Category:  string(category),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	if err := p.pubSub.Publish(p.topicName, message.NewMessage(watermill.NewUUID(), body)); err != nil {
		_ = p.tasks.MarkFailed(ctx, task, err)
		return "", err
	}

	p.log.Info("producer", "question production enqueued", map[string]interface{}{
		"session_id": session.Id.String(),
		"task_id":    task.Id,
		"category":   string(category),
	})
	return task.Id, nil
}

func (p *producerService) GetStatus(ctx context.Context, taskId string) (*dto.TaskStatusResponse, error) {
	task, err := p.tasks.Get(ctx, taskId)
	if err != nil {
		return nil, err
	}
	return &dto.TaskStatusResponse{
		TaskId:       task.Id,
		TaskType:     task.TaskType,
		SessionId:    task.SessionId,
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage,
	}, nil
}
