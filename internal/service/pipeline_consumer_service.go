package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/pkg/logger"
	"memento-be/internal/repository/specification"
	"memento-be/internal/repository/unitofwork"
	"memento-be/pkg/cist"
	"memento-be/pkg/events"
	pktNats "memento-be/pkg/nats"
	"memento-be/pkg/qcache"
	"memento-be/pkg/question"
)

const taskSweepInterval = 10 * time.Minute

type IPipelineConsumerService interface {
	Consume(ctx context.Context) error
}

// pipelineConsumerService drains the question-production topic. One message
// is one full pipeline run for one category: predict continuation paths,
// generate adapted candidates, evaluate, cache the survivors. A failed run is
// recorded on the task and never retried; the next turn triggers fresh
// production instead.
type pipelineConsumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	generator      *question.Generator
	questionCache  *qcache.QuestionCache
	tasks          *qcache.TaskStore
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewPipelineConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	generator *question.Generator,
	questionCache *qcache.QuestionCache,
	tasks *qcache.TaskStore,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IPipelineConsumerService {
	return &pipelineConsumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		generator:      generator,
		questionCache:  questionCache,
		tasks:          tasks,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (cs *pipelineConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	go cs.sweepLoop(ctx)

	return nil
}

func (cs *pipelineConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProduceQuestionsMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("pipeline", "undecodable production message dropped", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack()
		return
	}

	task, err := cs.tasks.Get(ctx, payload.TaskId)
	if errors.Is(err, qcache.ErrTaskNotFound) {
		// Task record expired before the message was picked up.
		cs.log.Warn("pipeline", "task record missing, message dropped", map[string]interface{}{
			"task_id": payload.TaskId,
		})
		msg.Ack()
		return
	}
	if err != nil {
		msg.Nack()
		return
	}

	if err := cs.tasks.MarkProcessing(ctx, task); err != nil {
		cs.log.Warn("pipeline", "task status update failed", map[string]interface{}{
			"task_id": task.Id, "error": err.Error(),
		})
	}

	if err := cs.runPipeline(ctx, task, payload); err != nil {
		cs.log.Error("pipeline", "question production failed", map[string]interface{}{
			"session_id": payload.SessionId,
			"task_id":    payload.TaskId,
			"error":      err.Error(),
		})
		_ = cs.tasks.MarkFailed(ctx, task, err)
		if cs.eventPublisher != nil {
			_ = cs.eventPublisher.Publish(ctx, events.NewQuestionProductionFailed(
				payload.SessionId, payload.TaskId, err.Error(),
			))
		}
	}

	// Success or failure, the task record carries the outcome; redelivery
	// would only duplicate model spend.
	msg.Ack()
}

func (cs *pipelineConsumerService) runPipeline(ctx context.Context, task *cist.AsyncTask, payload dto.ProduceQuestionsMessage) error {
	sessionId, err := uuid.Parse(payload.SessionId)
	if err != nil {
		return err
	}

	conversationContext, photoContext, history, lastReply, err := cs.loadContext(ctx, sessionId)
	if err != nil {
		return err
	}
	if conversationContext == "" {
		conversationContext = payload.Message
	}

	prediction, err := cs.generator.PredictPaths(ctx, conversationContext, photoContext, history, lastReply)
	if err != nil {
		return err
	}
	prediction.SessionId = payload.SessionId
	if turn, ok := task.InputData["turn_count"].(float64); ok {
		prediction.CurrentTurn = int(turn)
	}
	cs.questionCache.PutPrediction(ctx, prediction)

	evaluationContext := map[string]interface{}{
		"conversation_context": conversationContext,
		"photo_context":        photoContext,
		"current_message":      payload.Message,
	}

	category := cist.Category(payload.Category)
	if !category.IsValid() {
		return fmt.Errorf("unknown screening category %q", payload.Category)
	}

	candidates, err := cs.generator.GenerateCandidates(ctx, category,
		conversationContext, photoContext, prediction.PredictedPaths, payload.SessionId)
	if err != nil {
		return err
	}

	survivors, err := cs.generator.EvaluateCandidates(ctx, candidates, evaluationContext)
	if err != nil {
		return err
	}

	cs.questionCache.Put(ctx, payload.SessionId, category, survivors)

	if err := cs.tasks.MarkCompleted(ctx, task, map[string]interface{}{
		"predicted_paths":   len(prediction.PredictedPaths),
		"cached_candidates": len(survivors),
		"category":          payload.Category,
	}); err != nil {
		cs.log.Warn("pipeline", "task completion record failed", map[string]interface{}{
			"task_id": task.Id, "error": err.Error(),
		})
	}

	cs.log.Info("pipeline", "question production completed", map[string]interface{}{
		"session_id":        payload.SessionId,
		"task_id":           task.Id,
		"category":          payload.Category,
		"cached_candidates": len(survivors),
	})
	return nil
}

// loadContext rebuilds the conversational context from the transcript so
// production works from the same view the turn saw.
func (cs *pipelineConsumerService) loadContext(ctx context.Context, sessionId uuid.UUID) (string, string, []question.Exchange, string, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "conversation_order"},
	)
	if err != nil {
		return "", "", nil, "", err
	}

	history := make([]question.Exchange, len(messages))
	lastReply := ""
	for i, msg := range messages {
		history[i] = question.Exchange{Role: msg.Role, Content: msg.Content}
		if msg.Role == entity.MessageRoleAssistant {
			lastReply = msg.Content
		}
	}

	photoContext := ""
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err == nil && session != nil && session.PhotoId != nil {
		photo, err := uow.PhotoRepository().FindOne(ctx, specification.ByID{ID: *session.PhotoId})
		if err == nil && photo != nil {
			photoContext = photo.Description
			if photoContext == "" {
				photoContext = photo.Title
			}
		}
	}

	return question.FormatHistory(history, historyWindow), photoContext, history, lastReply, nil
}

// sweepLoop periodically clears lapsed task records for stores without
// native expiry.
func (cs *pipelineConsumerService) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(taskSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := cs.tasks.Sweep(ctx); removed > 0 {
				cs.log.Info("pipeline", "lapsed task records swept", map[string]interface{}{
					"removed": removed,
				})
			}
		}
	}
}
