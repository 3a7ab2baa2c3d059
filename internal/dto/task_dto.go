package dto

// ProduceQuestionsMessage is the payload published to the question
// production topic when a turn decides background work is needed.
type ProduceQuestionsMessage struct {
	SessionId string `json:"session_id"`
	TaskId    string `json:"task_id"`
	UserId    string `json:"user_id"`
	Message   string `json:"message"`
	// Category the policy decided to screen next; one task produces
	// questions for exactly one category.
	Category string `json:"category"`
}

type TaskStatusResponse struct {
	TaskId       string `json:"task_id"`
	TaskType     string `json:"task_type"`
	SessionId    string `json:"session_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
