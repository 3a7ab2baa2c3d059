package events

import "time"

// Event type codes emitted by the conversation domain.
const (
	TypeSessionStarted           = "SESSION_STARTED"
	TypeSessionCompleted         = "SESSION_COMPLETED"
	TypeCategoryScored           = "CIST_CATEGORY_SCORED"
	TypeQuestionProductionFailed = "QUESTION_PRODUCTION_FAILED"
)

// NewSessionStarted fires when a user opens a reminiscence session.
func NewSessionStarted(sessionId, userId string) Event {
	return BaseEvent{
		Type: TypeSessionStarted,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"user_id":    userId,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionCompleted fires once every screening category has been answered.
// Scores are keyed by category code.
func NewSessionCompleted(sessionId, userId string, totalScore, totalPossible float64, scores map[string]float64) Event {
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id":     sessionId,
			"user_id":        userId,
			"total_score":    totalScore,
			"total_possible": totalPossible,
			"scores":         scores,
		},
		OccurredAt: time.Now(),
	}
}

// NewCategoryScored fires when one screening answer has been scored.
func NewCategoryScored(sessionId, category string, score, maxScore float64) Event {
	return BaseEvent{
		Type: TypeCategoryScored,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"category":   category,
			"score":      score,
			"max_score":  maxScore,
		},
		OccurredAt: time.Now(),
	}
}

// NewQuestionProductionFailed fires when a background production task ends
// in a failed state. Consumers use it for alerting, never for retries.
func NewQuestionProductionFailed(sessionId, taskId, reason string) Event {
	return BaseEvent{
		Type: TypeQuestionProductionFailed,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"task_id":    taskId,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}
