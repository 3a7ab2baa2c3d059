package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento-be/internal/dto"
	"memento-be/internal/entity"
	"memento-be/internal/pkg/logger"
	"memento-be/internal/repository/memory"
	"memento-be/pkg/cist"
	"memento-be/pkg/qcache"
)

type sessionFixture struct {
	svc      ISessionService
	uow      *fakeUow
	sessions *memory.SessionCache
	cache    *qcache.QuestionCache
	userId   uuid.UUID
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	uow := &fakeUow{
		sessionRepo: &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)},
		messageRepo: &fakeMessageRepo{},
		userRepo:    &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)},
		photoRepo:   &fakePhotoRepo{photos: make(map[uuid.UUID]*entity.Photo)},
	}
	sessions := memory.NewSessionCache()
	cache := qcache.NewQuestionCache(qcache.NewMemoryStore(), logger.NewNoopLogger())

	return &sessionFixture{
		svc:      NewSessionService(&fakeFactory{uow: uow}, sessions, cache, nil),
		uow:      uow,
		sessions: sessions,
		cache:    cache,
		userId:   uuid.New(),
	}
}

func TestCreateSessionWithGreeting(t *testing.T) {
	f := newSessionFixture(t)

	res, err := f.svc.Create(context.Background(), f.userId, &dto.CreateSessionRequest{})
	require.NoError(t, err)

	assert.Equal(t, string(cist.StateInit), res.State)
	assert.NotEmpty(t, res.Greeting)

	// The greeting is the first transcript entry of the new session.
	require.Len(t, f.uow.messageRepo.messages, 1)
	greeting := f.uow.messageRepo.messages[0]
	assert.Equal(t, res.Id, greeting.SessionId)
	assert.Equal(t, entity.MessageRoleAssistant, greeting.Role)
	assert.Equal(t, 1, greeting.ConversationOrder)
	assert.Equal(t, cist.ResponsePhotoConversation, greeting.ResponseType)

	_, cached := f.sessions.Get(res.Id.String())
	assert.True(t, cached)
}

func TestCreateSessionRejectsForeignPhoto(t *testing.T) {
	f := newSessionFixture(t)
	photoId := uuid.New()

	_, err := f.svc.Create(context.Background(), f.userId, &dto.CreateSessionRequest{PhotoId: &photoId})

	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestEndSessionInvalidatesCaches(t *testing.T) {
	f := newSessionFixture(t)

	session := &entity.Session{
		Id:       uuid.New(),
		UserId:   f.userId,
		State:    cist.StatePhotoChat,
		Progress: make(map[cist.Category]bool),
		Scores:   make(map[cist.Category]float64),
	}
	f.uow.sessionRepo.sessions[session.Id] = session
	f.sessions.Save(session)
	f.cache.Put(context.Background(), session.Id.String(), cist.CategoryAttention, []cist.QuestionCandidate{
		{Id: "c1", AdaptedQuestion: "q", OverallScore: 0.9},
	})

	require.NoError(t, f.svc.End(context.Background(), f.userId, session.Id))

	assert.Equal(t, cist.StateCompleted, session.State)
	assert.NotNil(t, session.CompletedAt)

	_, cached := f.sessions.Get(session.Id.String())
	assert.False(t, cached)
	assert.Empty(t, f.cache.Get(context.Background(), session.Id.String(), cist.CategoryAttention, ""))
}

func TestEndSessionIdempotent(t *testing.T) {
	f := newSessionFixture(t)

	now := time.Now()
	session := &entity.Session{
		Id:          uuid.New(),
		UserId:      f.userId,
		State:       cist.StateCompleted,
		CompletedAt: &now,
	}
	f.uow.sessionRepo.sessions[session.Id] = session

	assert.NoError(t, f.svc.End(context.Background(), f.userId, session.Id))
}

func TestGetReport(t *testing.T) {
	f := newSessionFixture(t)

	session := &entity.Session{
		Id:     uuid.New(),
		UserId: f.userId,
		State:  cist.StateCompleted,
		Scores: map[cist.Category]float64{
			cist.CategoryOrientationTime: 4,
			cist.CategoryAttention:       3,
		},
		TurnCount: 12,
	}
	f.uow.sessionRepo.sessions[session.Id] = session

	report, err := f.svc.GetReport(context.Background(), f.userId, session.Id)
	require.NoError(t, err)

	assert.Equal(t, 7.0, report.TotalScore)
	assert.Equal(t, cist.TotalPossibleScore(), report.TotalPossible)
	assert.Equal(t, 12, report.TurnCount)
	assert.Equal(t, 4.0, report.Scores[string(cist.CategoryOrientationTime)])
}

func TestGetReportUnknownSession(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.GetReport(context.Background(), f.userId, uuid.New())

	assert.ErrorIs(t, err, ErrSessionNotFound)
}
