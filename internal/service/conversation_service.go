package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/pkg/logger"
	"memento-be/internal/pkg/mailer"
	"memento-be/internal/repository/memory"
	"memento-be/internal/repository/specification"
	"memento-be/internal/repository/unitofwork"
	"memento-be/pkg/cist"
	"memento-be/pkg/cist/policy"
	"memento-be/pkg/events"
	pktNats "memento-be/pkg/nats"
	"memento-be/pkg/qcache"
	"memento-be/pkg/question"
)

var ErrSessionClosed = errors.New("session already completed")

// QuestionSourceCache marks a screening question served from the
// pre-produced candidate cache.
const QuestionSourceCache = "cache"

const historyWindow = 10

// LightReplier produces the immediate conversational response. It must
// never fail; implementations fall back to a fixed reply internally.
type LightReplier interface {
	LightReply(ctx context.Context, userMessage, conversationContext, photoContext string) string
}

type IConversationService interface {
	SendTurn(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendTurnRequest) (*dto.TurnResponse, error)
}

// conversationService owns session state mutation. One turn at a time per
// session: a per-session mutex serializes concurrent sends so turn counts
// and conversation order stay strict.
type conversationService struct {
	uowFactory     unitofwork.RepositoryFactory
	sessionCache   *memory.SessionCache
	questionCache  *qcache.QuestionCache
	router         policy.Router
	replier        LightReplier
	scorer         cist.AnswerScorer
	producer       IProducerService
	eventPublisher *pktNats.Publisher
	emailService   mailer.IEmailService
	log            logger.ILogger

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

func NewConversationService(
	uowFactory unitofwork.RepositoryFactory,
	sessionCache *memory.SessionCache,
	questionCache *qcache.QuestionCache,
	router policy.Router,
	replier LightReplier,
	scorer cist.AnswerScorer,
	producer IProducerService,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IConversationService {
	return &conversationService{
		uowFactory:     uowFactory,
		sessionCache:   sessionCache,
		questionCache:  questionCache,
		router:         router,
		replier:        replier,
		scorer:         scorer,
		producer:       producer,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		log:            log,
		sessionLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *conversationService) lockSession(sessionId string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionId]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionId] = lock
	}
	return lock
}

// forgetLock drops a completed session's mutex so the map does not grow
// for the process lifetime.
func (s *conversationService) forgetLock(sessionId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessionLocks, sessionId)
}

func (s *conversationService) SendTurn(ctx context.Context, userId, sessionId uuid.UUID, req *dto.SendTurnRequest) (response *dto.TurnResponse, err error) {
	lock := s.lockSession(sessionId.String())
	lock.Lock()
	defer lock.Unlock()

	// The user must always get a reply; an unexpected panic degrades to
	// the fixed fallback instead of a 500.
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("conversation", "turn recovered from panic", map[string]interface{}{
				"session_id": sessionId.String(),
				"panic":      fmt.Sprintf("%v", r),
			})
			response = &dto.TurnResponse{
				SessionId:    sessionId,
				Reply:        question.FallbackReply,
				ResponseType: string(cist.ResponsePhotoConversation),
			}
			err = nil
		}
	}()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.loadSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrSessionClosed
	}

	// Mutate a private copy; the shared cached aggregate is replaced only
	// once the turn commits, so a failed write cannot leave the hot cache
	// ahead of the store.
	session = session.Clone()

	history, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "conversation_order"},
	)
	if err != nil {
		return nil, err
	}

	nextOrder, err := uow.MessageRepository().NextConversationOrder(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	session.TurnCount++

	userMessage := &entity.Message{
		Id:                uuid.New(),
		SessionId:         session.Id,
		Role:              entity.MessageRoleUser,
		Content:           req.Message,
		ResponseType:      cist.ResponsePhotoConversation,
		ConversationOrder: nextOrder,
		CreatedAt:         time.Now(),
	}

	photoContext := s.photoContext(ctx, uow, session)
	conversationContext := historyContext(history)

	turn := s.composeTurn(ctx, session, req.Message, history, photoContext, conversationContext)

	assistantMessage := &entity.Message{
		Id:                uuid.New(),
		SessionId:         session.Id,
		Role:              entity.MessageRoleAssistant,
		Content:           turn.reply,
		ResponseType:      turn.responseType,
		CISTCategory:      turn.category,
		ConversationOrder: nextOrder + 1,
		CreatedAt:         time.Now(),
	}

	now := time.Now()
	session.UpdatedAt = &now

	if err := s.persistTurn(ctx, uow, userMessage, assistantMessage, session); err != nil {
		// Response delivery outranks transcript durability: the computed
		// reply still goes out. The cache entry is dropped so the next
		// turn re-evaluates from the last committed state.
		s.log.Error("conversation", "turn persistence failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		s.sessionCache.Delete(session.Id.String())
	} else if session.State == cist.StateCompleted {
		s.sessionCache.Delete(session.Id.String())
		s.questionCache.InvalidateSession(ctx, session.Id.String())
		s.forgetLock(session.Id.String())
	} else {
		s.sessionCache.Save(session)
	}

	completion := session.Completion()
	result := &dto.TurnResponse{
		SessionId:          session.Id,
		Reply:              turn.reply,
		ResponseType:       string(turn.responseType),
		State:              string(session.State),
		TurnCount:          session.TurnCount,
		IsComplete:         completion.IsComplete,
		AwaitingCISTAnswer: session.PendingCategory != nil,
		QuestionSource:     turn.questionSource,
		AsyncTaskId:        turn.asyncTaskId,
	}
	if turn.category != nil {
		result.CISTCategory = string(*turn.category)
	}
	return result, nil
}

func (s *conversationService) persistTurn(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	userMessage *entity.Message,
	assistantMessage *entity.Message,
	session *entity.Session,
) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return err
	}
	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		return err
	}
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}
	return uow.Commit()
}

// turnOutcome is the assistant side of one exchange before persistence.
type turnOutcome struct {
	reply          string
	responseType   cist.ResponseType
	category       *cist.Category
	questionSource string
	asyncTaskId    string
}

// composeTurn runs the per-turn decision chain: score a pending screening
// answer first, otherwise consult the insertion policy, otherwise hold an
// open photo conversation. It mutates session state but persists nothing.
func (s *conversationService) composeTurn(
	ctx context.Context,
	session *entity.Session,
	userMessage string,
	history []*entity.Message,
	photoContext string,
	conversationContext string,
) turnOutcome {

	if session.PendingCategory != nil {
		return s.scorePendingAnswer(ctx, session, userMessage, history, photoContext, conversationContext)
	}

	decision := s.router.Route(ctx, policy.TurnState{
		TurnCount: session.TurnCount,
		Progress:  session.Progress,
	}, userMessage, policyHistory(history))

	if decision.Insert {
		return s.insertQuestion(ctx, session, decision.Category, userMessage, conversationContext, photoContext)
	}

	reply := s.replier.LightReply(ctx, userMessage, conversationContext, photoContext)
	s.transition(session, cist.StatePhotoChat)

	return turnOutcome{
		reply:        reply,
		responseType: cist.ResponsePhotoConversation,
	}
}

// scorePendingAnswer grades the user's reply to the outstanding screening
// question, records the category result, and either closes out the session
// or steers back to open conversation.
func (s *conversationService) scorePendingAnswer(
	ctx context.Context,
	session *entity.Session,
	answer string,
	history []*entity.Message,
	photoContext string,
	conversationContext string,
) turnOutcome {

	category := *session.PendingCategory
	questionText := lastScreeningQuestion(history)

	score, err := s.scorer.Score(ctx, category, questionText, answer)
	if err != nil {
		// Scoring is non-clinical here; an unavailable scorer records a
		// zero rather than blocking the conversation.
		s.log.Warn("conversation", "answer scoring failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"category":   string(category),
			"error":      err.Error(),
		})
		score = 0
	}

	session.Scores[category] = score
	session.Progress[category] = true
	session.PendingCategory = nil
	session.PendingCandidateId = nil

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.NewCategoryScored(
			session.Id.String(), string(category), score, cist.MaxScores[category],
		))
	}

	completion := session.Completion()
	if completion.IsComplete {
		return s.completeSession(ctx, session, completion)
	}

	reply := s.replier.LightReply(ctx, answer, conversationContext, photoContext)
	s.transition(session, cist.StatePhotoChat)

	return turnOutcome{
		reply:        reply,
		responseType: cist.ResponseFollowupQuestion,
	}
}

// insertQuestion serves the best cached candidate for the category and arms
// the session to score the next user message. On a cache miss the user still
// gets an immediate light reply while production runs in the background; no
// screening question is asked until the cache has an evaluated candidate.
func (s *conversationService) insertQuestion(
	ctx context.Context,
	session *entity.Session,
	category cist.Category,
	userMessage string,
	conversationContext string,
	photoContext string,
) turnOutcome {

	// A session already producing moves to waiting_cache while we look.
	if session.State == cist.StateAsyncProcessing {
		s.transition(session, cist.StateWaitingCache)
	}

	candidates := s.questionCache.Get(ctx, session.Id.String(), category, userMessage)
	if len(candidates) > 0 {
		best := candidates[0]
		candidateId := best.Id
		session.PendingCandidateId = &candidateId
		session.PendingCategory = &category
		s.questionCache.MarkUsed(ctx, session.Id.String(), category, best.Id)
		s.transition(session, cist.StateEvaluation)
		return turnOutcome{
			reply:          best.AdaptedQuestion,
			responseType:   cist.ResponseCISTQuestion,
			category:       &category,
			questionSource: QuestionSourceCache,
		}
	}

	reply := s.replier.LightReply(ctx, userMessage, conversationContext, photoContext)
	taskId := s.triggerProduction(ctx, session, category, userMessage)

	next := cist.StateAsyncProcessing
	if session.State == cist.StateWaitingCache {
		// Still dry after a full production round; back to open chat
		// until the retriggered run fills the cache.
		next = cist.StatePhotoChat
	}
	s.transition(session, next)

	return turnOutcome{
		reply:        reply,
		responseType: cist.ResponsePhotoConversation,
		category:     &category,
		asyncTaskId:  taskId,
	}
}

// completeSession closes out screening: terminal state, completion events,
// and a best-effort caregiver report.
func (s *conversationService) completeSession(ctx context.Context, session *entity.Session, completion cist.CompletionStatus) turnOutcome {
	now := time.Now()
	session.CompletedAt = &now
	s.transition(session, cist.StateCompleted)

	scores := make(map[string]float64, len(session.Scores))
	for category, score := range session.Scores {
		scores[string(category)] = score
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.NewSessionCompleted(
			session.Id.String(), session.UserId.String(),
			completion.CurrentScore, completion.TotalPossibleScore, scores,
		))
	}

	s.sendReport(ctx, session, completion, scores)

	reply := fmt.Sprintf(
		"오늘 대화 정말 즐거웠어요! 모든 질문에 답해 주셔서 감사합니다. 이번 시간의 점수는 %.0f점(총 %.0f점 만점)이에요. 다음에 또 좋은 사진과 함께 이야기 나눠요.",
		completion.CurrentScore, completion.TotalPossibleScore,
	)

	return turnOutcome{
		reply:        reply,
		responseType: cist.ResponseEvaluationComplete,
	}
}

// sendReport emails the session summary to the caregiver when one is set.
// Delivery failures are logged, never surfaced to the turn.
func (s *conversationService) sendReport(ctx context.Context, session *entity.Session, completion cist.CompletionStatus, scores map[string]float64) {
	if s.emailService == nil {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: session.UserId})
	if err != nil || user == nil || user.CaregiverEmail == nil {
		return
	}

	report := mailer.SessionReport{
		FullName:      user.FullName,
		SessionId:     session.Id.String(),
		TotalScore:    completion.CurrentScore,
		TotalPossible: completion.TotalPossibleScore,
		Scores:        scores,
		TurnCount:     session.TurnCount,
	}
	if err := s.emailService.SendSessionReport(*user.CaregiverEmail, report); err != nil {
		s.log.Warn("conversation", "caregiver report delivery failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}

// triggerProduction enqueues background question production for the decided
// category. The trigger is best-effort: a broker failure is logged and the
// turn proceeds without a task id.
func (s *conversationService) triggerProduction(ctx context.Context, session *entity.Session, category cist.Category, userMessage string) string {
	taskId, err := s.producer.Trigger(ctx, session, category, userMessage)
	if err != nil {
		s.log.Warn("conversation", "question production trigger failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"category":   string(category),
			"error":      err.Error(),
		})
		return ""
	}
	return taskId
}

// transition moves the session state if the move is legal; an illegal move
// is a caller bug, logged and skipped so the session never corrupts.
func (s *conversationService) transition(session *entity.Session, to cist.State) {
	if session.State == to {
		return
	}
	if !cist.CanTransition(session.State, to) {
		s.log.Error("conversation", "illegal state transition skipped", map[string]interface{}{
			"session_id": session.Id.String(),
			"from":       string(session.State),
			"to":         string(to),
		})
		return
	}
	session.State = to
}

func (s *conversationService) loadSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.Session, error) {
	if cached, ok := s.sessionCache.Get(sessionId.String()); ok && cached.UserId == userId {
		return cached, nil
	}

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

func (s *conversationService) photoContext(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session) string {
	if session.PhotoId == nil {
		return ""
	}
	photo, err := uow.PhotoRepository().FindOne(ctx, specification.ByID{ID: *session.PhotoId})
	if err != nil || photo == nil {
		return ""
	}

	parts := make([]string, 0, 3)
	if photo.Title != "" {
		parts = append(parts, photo.Title)
	}
	if photo.Description != "" {
		parts = append(parts, photo.Description)
	}
	if place, ok := photo.Metadata["place"].(string); ok && place != "" {
		parts = append(parts, "장소: "+place)
	}
	return strings.Join(parts, ". ")
}

// historyContext renders the recent transcript for prompt building.
func historyContext(history []*entity.Message) string {
	exchanges := make([]question.Exchange, len(history))
	for i, msg := range history {
		exchanges[i] = question.Exchange{Role: msg.Role, Content: msg.Content}
	}
	return question.FormatHistory(exchanges, historyWindow)
}

func policyHistory(history []*entity.Message) []policy.HistoryEntry {
	entries := make([]policy.HistoryEntry, len(history))
	for i, msg := range history {
		entries[i] = policy.HistoryEntry{Role: msg.Role, ResponseType: msg.ResponseType}
	}
	return entries
}

// lastScreeningQuestion finds the most recent screening question in the
// transcript, for scoring the answer against.
func lastScreeningQuestion(history []*entity.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == entity.MessageRoleAssistant && history[i].ResponseType == cist.ResponseCISTQuestion {
			return history[i].Content
		}
	}
	return ""
}
