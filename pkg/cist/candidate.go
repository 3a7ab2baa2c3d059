package cist

import (
	"time"

	"github.com/google/uuid"
)

// QuestionCandidate is a paraphrased, context-adapted version of a canonical
// screening question, scored before use.
type QuestionCandidate struct {
	Id                    string    `json:"id"`
	SessionId             string    `json:"session_id"`
	Category              Category  `json:"category"`
	OriginalQuestion      string    `json:"original_question"`
	AdaptedQuestion       string    `json:"adapted_question"`
	ContextRelevanceScore float64   `json:"context_relevance_score"`
	NaturalnessScore      float64   `json:"naturalness_score"`
	DifficultyScore       float64   `json:"difficulty_score"`
	OverallScore          float64   `json:"overall_score"`
	PhotoContext          string    `json:"photo_context,omitempty"`
	ConversationContext   string    `json:"conversation_context"`
	CreatedAt             time.Time `json:"created_at"`
	IsUsed                bool      `json:"is_used"`
}

// PredictedPath is one predicted user-response continuation.
type PredictedPath struct {
	PathId            string  `json:"path_id"`
	Probability       float64 `json:"probability"`
	PredictedResponse string  `json:"predicted_response"`
	ResponseType      string  `json:"response_type"`
	Reasoning         string  `json:"reasoning,omitempty"`
}

// PathPrediction is a set of weighted continuations for one turn. It feeds
// candidate generation only; the insertion policy never reads it.
type PathPrediction struct {
	Id                  string          `json:"id"`
	SessionId           string          `json:"session_id"`
	CurrentTurn         int             `json:"current_turn"`
	PredictedPaths      []PredictedPath `json:"predicted_paths"`
	PhotoContext        string          `json:"photo_context,omitempty"`
	ConversationContext string          `json:"conversation_context"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Async task lifecycle states. Transitions are write-once; a failed task
// stays failed and is never retried automatically.
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// Async task types.
const (
	TaskTypeQuestionGeneration = "question_generation"
	TaskTypeQuestionEvaluation = "question_evaluation"
)

// AsyncTask tracks one background production unit of work.
type AsyncTask struct {
	Id           string                 `json:"id"`
	TaskType     string                 `json:"task_type"`
	SessionId    string                 `json:"session_id"`
	Status       string                 `json:"status"`
	InputData    map[string]interface{} `json:"input_data,omitempty"`
	ResultData   map[string]interface{} `json:"result_data,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// NewAsyncTask returns a pending task for the given session.
func NewAsyncTask(taskType, sessionId string) *AsyncTask {
	return &AsyncTask{
		Id:        uuid.NewString(),
		TaskType:  taskType,
		SessionId: sessionId,
		Status:    TaskStatusPending,
		CreatedAt: time.Now(),
	}
}
