package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/repository/memory"
	"memento-be/internal/repository/specification"
	"memento-be/internal/repository/unitofwork"
	"memento-be/pkg/cist"
	"memento-be/pkg/events"
	pktNats "memento-be/pkg/nats"
	"memento-be/pkg/qcache"
)

var ErrSessionNotFound = errors.New("session not found")

// sessionGreeting opens every session; the photo conversation proper
// starts with the first user turn.
const sessionGreeting = "안녕하세요! 오늘은 사진을 보면서 함께 이야기를 나눠봐요. 사진을 보시면 어떤 생각이 드세요?"

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error)
	GetById(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	End(ctx context.Context, userId, sessionId uuid.UUID) error
	GetReport(ctx context.Context, userId, sessionId uuid.UUID) (*dto.CompletionReportResponse, error)
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionCache   *memory.SessionCache
	questionCache  *qcache.QuestionCache
	eventPublisher *pktNats.Publisher
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	sessionCache *memory.SessionCache,
	questionCache *qcache.QuestionCache,
	eventPublisher *pktNats.Publisher,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		sessionCache:   sessionCache,
		questionCache:  questionCache,
		eventPublisher: eventPublisher,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Validate photo ownership when a photo is attached.
	if req.PhotoId != nil {
		photo, err := uow.PhotoRepository().FindOne(ctx,
			specification.ByID{ID: *req.PhotoId},
			specification.ByUserID{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if photo == nil {
			return nil, ErrPhotoNotFound
		}
	}

	session := &entity.Session{
		Id:        uuid.New(),
		UserId:    userId,
		PhotoId:   req.PhotoId,
		State:     cist.StateInit,
		Progress:  make(map[cist.Category]bool),
		Scores:    make(map[cist.Category]float64),
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}

	greeting := &entity.Message{
		Id:                uuid.New(),
		SessionId:         session.Id,
		Role:              entity.MessageRoleAssistant,
		Content:           sessionGreeting,
		ResponseType:      cist.ResponsePhotoConversation,
		ConversationOrder: 1,
		CreatedAt:         time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.MessageRepository().Create(ctx, greeting); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sessionCache.Save(session)

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.NewSessionStarted(session.Id.String(), userId.String()))
	}

	return &dto.CreateSessionResponse{
		Id:       session.Id,
		State:    string(session.State),
		Greeting: sessionGreeting,
	}, nil
}

func (s *sessionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.SessionSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SessionSummaryResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = toSessionSummary(session)
	}
	return responses, nil
}

func (s *sessionService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.Session, error) {
	session, err := uow.SessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) GetById(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "conversation_order"},
	)
	if err != nil {
		return nil, err
	}

	completion := session.Completion()

	detail := &dto.SessionDetailResponse{
		SessionSummaryResponse: *toSessionSummary(session),
		Progress:               make(map[string]bool, len(session.Progress)),
		Scores:                 make(map[string]float64, len(session.Scores)),
		TotalScore:             completion.CurrentScore,
		IsComplete:             completion.IsComplete,
		Messages:               make([]dto.MessageResponse, len(messages)),
	}
	for category, done := range session.Progress {
		detail.Progress[string(category)] = done
	}
	for category, score := range session.Scores {
		detail.Scores[string(category)] = score
	}
	for i, message := range messages {
		detail.Messages[i] = toMessageResponse(message)
	}
	return detail, nil
}

// End force-completes a session regardless of screening progress. The
// question cache for it is dropped immediately.
func (s *sessionService) End(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}
	if session.State == cist.StateCompleted {
		return nil
	}

	now := time.Now()
	session.State = cist.StateCompleted
	session.CompletedAt = &now

	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}

	s.sessionCache.Delete(session.Id.String())
	s.questionCache.InvalidateSession(ctx, session.Id.String())
	return nil
}

func (s *sessionService) GetReport(ctx context.Context, userId, sessionId uuid.UUID) (*dto.CompletionReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	completion := session.Completion()

	scores := make(map[string]float64, len(session.Scores))
	for category, score := range session.Scores {
		scores[string(category)] = score
	}

	return &dto.CompletionReportResponse{
		SessionId:     session.Id,
		TotalScore:    completion.CurrentScore,
		TotalPossible: cist.TotalPossibleScore(),
		Scores:        scores,
		CompletedAt:   session.CompletedAt,
		TurnCount:     session.TurnCount,
	}, nil
}

func toSessionSummary(session *entity.Session) *dto.SessionSummaryResponse {
	return &dto.SessionSummaryResponse{
		Id:          session.Id,
		State:       string(session.State),
		TurnCount:   session.TurnCount,
		PhotoId:     session.PhotoId,
		StartedAt:   session.StartedAt,
		CompletedAt: session.CompletedAt,
	}
}

func toMessageResponse(message *entity.Message) dto.MessageResponse {
	res := dto.MessageResponse{
		Id:                message.Id,
		Role:              message.Role,
		Content:           message.Content,
		ResponseType:      string(message.ResponseType),
		ConversationOrder: message.ConversationOrder,
		CreatedAt:         message.CreatedAt,
	}
	if message.CISTCategory != nil {
		res.CISTCategory = string(*message.CISTCategory)
	}
	return res
}
