package entity

import (
	"time"

	"github.com/google/uuid"

	"memento-be/pkg/cist"
)

// Session is one reminiscence conversation with screening woven in. It is
// the aggregate root for turns, screening progress and scores.
type Session struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	PhotoId   *uuid.UUID
	State     cist.State
	TurnCount int
	// Progress marks which screening categories have been asked and
	// answered in this session.
	Progress map[cist.Category]bool
	// Scores holds per-category scores for answered categories.
	Scores map[cist.Category]float64
	// PendingCategory is set while a screening question is outstanding,
	// so the next user message is scored against it.
	PendingCategory    *cist.Category
	PendingCandidateId *string
	StartedAt          time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	IsDeleted          bool
}

// Clone returns a deep copy so a turn can mutate freely and publish the
// result only after it is committed.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Progress = make(map[cist.Category]bool, len(s.Progress))
	for category, done := range s.Progress {
		clone.Progress[category] = done
	}
	clone.Scores = make(map[cist.Category]float64, len(s.Scores))
	for category, score := range s.Scores {
		clone.Scores[category] = score
	}
	if s.PendingCategory != nil {
		category := *s.PendingCategory
		clone.PendingCategory = &category
	}
	if s.PendingCandidateId != nil {
		id := *s.PendingCandidateId
		clone.PendingCandidateId = &id
	}
	return &clone
}

// Completion derives the aggregate completion view for this session.
func (s *Session) Completion() cist.CompletionStatus {
	return cist.Completion(s.Progress, s.Scores)
}

// IsActive reports whether the session still accepts turns.
func (s *Session) IsActive() bool {
	return !s.IsDeleted && !s.State.IsTerminal()
}
