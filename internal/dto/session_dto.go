package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	PhotoId *uuid.UUID `json:"photo_id"`
}

type CreateSessionResponse struct {
	Id       uuid.UUID `json:"id"`
	State    string    `json:"state"`
	Greeting string    `json:"greeting"`
}

type SessionSummaryResponse struct {
	Id          uuid.UUID  `json:"id"`
	State       string     `json:"state"`
	TurnCount   int        `json:"turn_count"`
	PhotoId     *uuid.UUID `json:"photo_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type SessionDetailResponse struct {
	SessionSummaryResponse
	Progress   map[string]bool    `json:"progress"`
	Scores     map[string]float64 `json:"scores"`
	TotalScore float64            `json:"total_score"`
	IsComplete bool               `json:"is_complete"`
	Messages   []MessageResponse  `json:"messages,omitempty"`
}

type MessageResponse struct {
	Id                uuid.UUID `json:"id"`
	Role              string    `json:"role"`
	Content           string    `json:"content"`
	ResponseType      string    `json:"response_type"`
	CISTCategory      string    `json:"cist_category,omitempty"`
	ConversationOrder int       `json:"conversation_order"`
	CreatedAt         time.Time `json:"created_at"`
}

type SendTurnRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

type TurnResponse struct {
	SessionId          uuid.UUID `json:"session_id"`
	Reply              string    `json:"reply"`
	ResponseType       string    `json:"response_type"`
	CISTCategory       string    `json:"cist_category,omitempty"`
	State              string    `json:"state"`
	TurnCount          int       `json:"turn_count"`
	IsComplete         bool      `json:"is_complete"`
	AwaitingCISTAnswer bool      `json:"awaiting_cist_answer"`
	QuestionSource     string    `json:"question_source,omitempty"`
	AsyncTaskId        string    `json:"async_task_id,omitempty"`
}

type CompletionReportResponse struct {
	SessionId     uuid.UUID          `json:"session_id"`
	TotalScore    float64            `json:"total_score"`
	TotalPossible float64            `json:"total_possible"`
	Scores        map[string]float64 `json:"scores"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	TurnCount     int                `json:"turn_count"`
}
