package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/pkg/logger"
	"memento-be/internal/repository/contract"
	"memento-be/internal/repository/memory"
	"memento-be/internal/repository/specification"
	"memento-be/internal/repository/unitofwork"
	"memento-be/pkg/cist"
	"memento-be/pkg/cist/policy"
	"memento-be/pkg/qcache"
)

// In-memory repository fakes. Specifications are ignored; the fixtures are
// small enough that the tests control exactly what is stored.

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*entity.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, s *entity.Session) error {
	r.sessions[s.Id] = s
	return nil
}
func (r *fakeSessionRepo) Update(_ context.Context, s *entity.Session) error {
	r.sessions[s.Id] = s
	return nil
}
func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	return nil
}
func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Session, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.sessions[byID.ID], nil
		}
	}
	return nil, nil
}
func (r *fakeSessionRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Session, error) {
	out := make([]*entity.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}
func (r *fakeSessionRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.sessions)), nil
}

type fakeMessageRepo struct {
	messages []*entity.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, m *entity.Message) error {
	r.messages = append(r.messages, m)
	return nil
}
func (r *fakeMessageRepo) DeleteBySessionId(_ context.Context, sessionId uuid.UUID) error {
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.SessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}
func (r *fakeMessageRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.Message, error) {
	if len(r.messages) == 0 {
		return nil, nil
	}
	return r.messages[0], nil
}
func (r *fakeMessageRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Message, error) {
	return append([]*entity.Message(nil), r.messages...), nil
}
func (r *fakeMessageRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.messages)), nil
}
func (r *fakeMessageRepo) NextConversationOrder(_ context.Context, sessionId uuid.UUID) (int, error) {
	next := 1
	for _, m := range r.messages {
		if m.SessionId == sessionId && m.ConversationOrder >= next {
			next = m.ConversationOrder + 1
		}
	}
	return next, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error { r.users[u.Id] = u; return nil }
func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error { r.users[u.Id] = u; return nil }
func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}
func (r *fakeUserRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.users[byID.ID], nil
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakePhotoRepo struct {
	photos map[uuid.UUID]*entity.Photo
}

func (r *fakePhotoRepo) Create(_ context.Context, p *entity.Photo) error {
	r.photos[p.Id] = p
	return nil
}
func (r *fakePhotoRepo) Update(_ context.Context, p *entity.Photo) error {
	r.photos[p.Id] = p
	return nil
}
func (r *fakePhotoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.photos, id)
	return nil
}
func (r *fakePhotoRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Photo, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.photos[byID.ID], nil
		}
	}
	return nil, nil
}
func (r *fakePhotoRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Photo, error) {
	return nil, nil
}
func (r *fakePhotoRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeUow struct {
	sessionRepo *fakeSessionRepo
	messageRepo *fakeMessageRepo
	userRepo    *fakeUserRepo
	photoRepo   *fakePhotoRepo
	commitErr   error

	inTx        bool
	sessionSnap map[uuid.UUID]*entity.Session
	messageSnap []*entity.Message
}

// Begin snapshots the stores so a rollback restores the pre-transaction
// view, the way the real gorm unit of work behaves.
func (u *fakeUow) Begin(_ context.Context) error {
	u.inTx = true
	u.sessionSnap = make(map[uuid.UUID]*entity.Session, len(u.sessionRepo.sessions))
	for id, session := range u.sessionRepo.sessions {
		u.sessionSnap[id] = session
	}
	u.messageSnap = append([]*entity.Message(nil), u.messageRepo.messages...)
	return nil
}

func (u *fakeUow) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.inTx = false
	return nil
}

func (u *fakeUow) Rollback() error {
	if u.inTx {
		u.sessionRepo.sessions = u.sessionSnap
		u.messageRepo.messages = u.messageSnap
		u.inTx = false
	}
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository            { return u.userRepo }
func (u *fakeUow) PhotoRepository() contract.PhotoRepository          { return u.photoRepo }
func (u *fakeUow) SessionRepository() contract.SessionRepository      { return u.sessionRepo }
func (u *fakeUow) MessageRepository() contract.MessageRepository      { return u.messageRepo }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeRouter struct {
	decision policy.Decision
}

func (r *fakeRouter) Route(_ context.Context, _ policy.TurnState, _ string, _ []policy.HistoryEntry) policy.Decision {
	return r.decision
}

type fakeReplier struct {
	reply string
}

func (r *fakeReplier) LightReply(_ context.Context, _, _, _ string) string { return r.reply }

type fakeProducer struct {
	triggered    int
	lastCategory cist.Category
	taskId       string
}

func (p *fakeProducer) Trigger(_ context.Context, _ *entity.Session, category cist.Category, _ string) (string, error) {
	p.triggered++
	p.lastCategory = category
	return p.taskId, nil
}
func (p *fakeProducer) GetStatus(_ context.Context, _ string) (*dto.TaskStatusResponse, error) {
	return nil, qcache.ErrTaskNotFound
}

type turnFixture struct {
	svc      IConversationService
	uow      *fakeUow
	cache    *qcache.QuestionCache
	sessions *memory.SessionCache
	producer *fakeProducer
	replier  *fakeReplier
	router   *fakeRouter
	userId   uuid.UUID
	session  *entity.Session
}

func newTurnFixture(t *testing.T, decision policy.Decision) *turnFixture {
	t.Helper()

	uow := &fakeUow{
		sessionRepo: &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)},
		messageRepo: &fakeMessageRepo{},
		userRepo:    &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)},
		photoRepo:   &fakePhotoRepo{photos: make(map[uuid.UUID]*entity.Photo)},
	}

	userId := uuid.New()
	session := &entity.Session{
		Id:        uuid.New(),
		UserId:    userId,
		State:     cist.StateInit,
		Progress:  make(map[cist.Category]bool),
		Scores:    make(map[cist.Category]float64),
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	uow.sessionRepo.sessions[session.Id] = session
	uow.messageRepo.messages = append(uow.messageRepo.messages, &entity.Message{
		Id:                uuid.New(),
		SessionId:         session.Id,
		Role:              entity.MessageRoleAssistant,
		Content:           "안녕하세요",
		ResponseType:      cist.ResponsePhotoConversation,
		ConversationOrder: 1,
	})

	cache := qcache.NewQuestionCache(qcache.NewMemoryStore(), logger.NewNoopLogger())
	sessions := memory.NewSessionCache()
	producer := &fakeProducer{taskId: "task-1"}
	replier := &fakeReplier{reply: "정말 좋은 말씀이네요"}
	router := &fakeRouter{decision: decision}

	svc := NewConversationService(
		&fakeFactory{uow: uow},
		sessions,
		cache,
		router,
		replier,
		cist.NewStubScorer(),
		producer,
		nil,
		nil,
		logger.NewNoopLogger(),
	)

	return &turnFixture{
		svc:      svc,
		uow:      uow,
		cache:    cache,
		sessions: sessions,
		producer: producer,
		replier:  replier,
		router:   router,
		userId:   userId,
		session:  session,
	}
}

// stored returns the session as the repository holds it after a turn;
// turns mutate a private copy and publish it only on commit.
func (f *turnFixture) stored() *entity.Session {
	return f.uow.sessionRepo.sessions[f.session.Id]
}

func TestSendTurnOpenConversation(t *testing.T) {
	f := newTurnFixture(t, policy.Decision{Reason: "Minimum turns not reached"})

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "사진 속 바다가 참 파랗네요",
	})
	require.NoError(t, err)

	assert.Equal(t, f.replier.reply, res.Reply)
	assert.Equal(t, string(cist.ResponsePhotoConversation), res.ResponseType)
	assert.Equal(t, string(cist.StatePhotoChat), res.State)
	assert.Equal(t, 1, res.TurnCount)
	assert.False(t, res.AwaitingCISTAnswer)
	assert.Empty(t, res.CISTCategory)

	// Open conversation enqueues nothing; production starts only when an
	// insertion-approved turn misses the cache.
	assert.Equal(t, 0, f.producer.triggered)
	assert.Empty(t, res.AsyncTaskId)

	// Greeting plus the new user/assistant pair, in strict order.
	require.Len(t, f.uow.messageRepo.messages, 3)
	assert.Equal(t, 2, f.uow.messageRepo.messages[1].ConversationOrder)
	assert.Equal(t, entity.MessageRoleUser, f.uow.messageRepo.messages[1].Role)
	assert.Equal(t, 3, f.uow.messageRepo.messages[2].ConversationOrder)
	assert.Equal(t, entity.MessageRoleAssistant, f.uow.messageRepo.messages[2].Role)
}

func TestSendTurnInsertsCachedQuestion(t *testing.T) {
	category := cist.CategoryOrientationTime
	f := newTurnFixture(t, policy.Decision{Insert: true, Category: category, Reason: "test"})

	candidate := cist.QuestionCandidate{
		Id:              "cand-1",
		SessionId:       f.session.Id.String(),
		Category:        category,
		AdaptedQuestion: "바다 이야기가 나와서 말인데, 오늘이 몇 년도인지 기억나세요?",
		OverallScore:    0.9,
	}
	f.cache.Put(context.Background(), f.session.Id.String(), category, []cist.QuestionCandidate{candidate})

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "바다를 보니 옛날 생각이 나요",
	})
	require.NoError(t, err)

	assert.Equal(t, candidate.AdaptedQuestion, res.Reply)
	assert.Equal(t, string(cist.ResponseCISTQuestion), res.ResponseType)
	assert.Equal(t, string(category), res.CISTCategory)
	assert.Equal(t, QuestionSourceCache, res.QuestionSource)
	assert.True(t, res.AwaitingCISTAnswer)
	assert.Equal(t, string(cist.StateEvaluation), res.State)

	// The candidate is consumed; a rerun must not serve it again.
	assert.Empty(t, f.cache.Get(context.Background(), f.session.Id.String(), category, ""))

	stored := f.stored()
	require.NotNil(t, stored.PendingCategory)
	assert.Equal(t, category, *stored.PendingCategory)
	require.NotNil(t, stored.PendingCandidateId)
	assert.Equal(t, "cand-1", *stored.PendingCandidateId)
}

func TestSendTurnCacheMissStartsProduction(t *testing.T) {
	category := cist.CategoryAttention
	f := newTurnFixture(t, policy.Decision{Insert: true, Category: category, Reason: "test"})
	f.session.State = cist.StatePhotoChat
	f.session.TurnCount = 2

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "요즘 정신이 없어요",
	})
	require.NoError(t, err)

	// No evaluated candidate, no screening question: the user gets the
	// light reply while production runs in the background.
	assert.Equal(t, f.replier.reply, res.Reply)
	assert.Equal(t, string(cist.ResponsePhotoConversation), res.ResponseType)
	assert.Equal(t, string(cist.StateAsyncProcessing), res.State)
	assert.False(t, res.AwaitingCISTAnswer)
	assert.Empty(t, res.QuestionSource)
	assert.Equal(t, "task-1", res.AsyncTaskId)
	assert.Equal(t, 1, f.producer.triggered)
	assert.Equal(t, category, f.producer.lastCategory)
	assert.Nil(t, f.stored().PendingCategory)
}

func TestSendTurnCacheMissWhileProducingReturnsToChat(t *testing.T) {
	category := cist.CategoryAttention
	f := newTurnFixture(t, policy.Decision{Insert: true, Category: category, Reason: "test"})
	f.session.State = cist.StateAsyncProcessing
	f.session.TurnCount = 3

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "아직 생각 중이에요",
	})
	require.NoError(t, err)

	// A second dry lookup passes through waiting_cache, retriggers, and
	// settles back into open conversation.
	assert.Equal(t, f.replier.reply, res.Reply)
	assert.Equal(t, string(cist.StatePhotoChat), res.State)
	assert.Equal(t, "task-1", res.AsyncTaskId)
	assert.Equal(t, 1, f.producer.triggered)
}

func TestSendTurnCacheHitWhileProducing(t *testing.T) {
	category := cist.CategoryAttention
	f := newTurnFixture(t, policy.Decision{Insert: true, Category: category, Reason: "test"})
	f.session.State = cist.StateAsyncProcessing
	f.session.TurnCount = 3

	f.cache.Put(context.Background(), f.session.Id.String(), category, []cist.QuestionCandidate{{
		Id:              "cand-2",
		SessionId:       f.session.Id.String(),
		Category:        category,
		AdaptedQuestion: "제가 말씀드리는 숫자를 거꾸로 말씀해 보시겠어요?",
		OverallScore:    0.85,
	}})

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "준비됐어요",
	})
	require.NoError(t, err)

	assert.Equal(t, string(cist.ResponseCISTQuestion), res.ResponseType)
	assert.Equal(t, string(cist.StateEvaluation), res.State)
	assert.True(t, res.AwaitingCISTAnswer)
	assert.Equal(t, 0, f.producer.triggered)
}

func TestSendTurnSurvivesCommitFailure(t *testing.T) {
	f := newTurnFixture(t, policy.Decision{Reason: "Minimum turns not reached"})
	f.sessions.Save(f.session)
	f.uow.commitErr = errors.New("db down")

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "사진 이야기를 해요",
	})
	require.NoError(t, err)
	assert.Equal(t, f.replier.reply, res.Reply)

	// Nothing committed: the store still shows the pre-turn session and
	// only the greeting message.
	assert.Equal(t, 0, f.stored().TurnCount)
	assert.Equal(t, cist.StateInit, f.stored().State)
	assert.Len(t, f.uow.messageRepo.messages, 1)

	// The hot cache entry is evicted so the next turn reloads committed
	// state instead of the advanced copy.
	_, cached := f.sessions.Get(f.session.Id.String())
	assert.False(t, cached)
}

func TestSendTurnScoresPendingAnswer(t *testing.T) {
	category := cist.CategoryOrientationTime
	f := newTurnFixture(t, policy.Decision{Reason: "unused"})
	f.session.State = cist.StateEvaluation
	f.session.PendingCategory = &category

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "2026년 9월입니다",
	})
	require.NoError(t, err)

	assert.Equal(t, string(cist.ResponseFollowupQuestion), res.ResponseType)
	assert.Equal(t, string(cist.StatePhotoChat), res.State)
	assert.False(t, res.AwaitingCISTAnswer)
	assert.False(t, res.IsComplete)

	stored := f.stored()
	assert.True(t, stored.Progress[category])
	assert.Equal(t, cist.MaxScores[category], stored.Scores[category])
	assert.Nil(t, stored.PendingCategory)
}

func TestSendTurnCompletesSession(t *testing.T) {
	f := newTurnFixture(t, policy.Decision{Reason: "unused"})

	// Every category but the pending one is already scored.
	last := cist.CategoryLanguageNaming
	for _, category := range cist.Categories {
		if category == last {
			continue
		}
		f.session.Progress[category] = true
		f.session.Scores[category] = cist.MaxScores[category]
	}
	f.session.State = cist.StateEvaluation
	f.session.PendingCategory = &last
	f.sessions.Save(f.session)

	res, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "저건 동백꽃이에요",
	})
	require.NoError(t, err)

	assert.Equal(t, string(cist.ResponseEvaluationComplete), res.ResponseType)
	assert.True(t, res.IsComplete)
	assert.Equal(t, string(cist.StateCompleted), res.State)
	assert.NotNil(t, f.stored().CompletedAt)

	// The working cache entry and the per-session mutex are dropped with
	// the session.
	_, cached := f.sessions.Get(f.session.Id.String())
	assert.False(t, cached)
	assert.Empty(t, f.svc.(*conversationService).sessionLocks)
}

func TestSendTurnSessionNotFound(t *testing.T) {
	f := newTurnFixture(t, policy.Decision{Reason: "unused"})

	_, err := f.svc.SendTurn(context.Background(), f.userId, uuid.New(), &dto.SendTurnRequest{
		Message: "안녕하세요",
	})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendTurnRejectsCompletedSession(t *testing.T) {
	f := newTurnFixture(t, policy.Decision{Reason: "unused"})
	f.session.State = cist.StateCompleted

	_, err := f.svc.SendTurn(context.Background(), f.userId, f.session.Id, &dto.SendTurnRequest{
		Message: "아직 이야기하고 싶어요",
	})

	assert.ErrorIs(t, err, ErrSessionClosed)
}
