package cist

// CompletionStatus summarises screening progress for one session.
type CompletionStatus struct {
	CompletedCategories int        `json:"completed_categories"`
	TotalCategories     int        `json:"total_categories"`
	CompletionRatio     float64    `json:"completion_ratio"`
	CurrentScore        float64    `json:"current_score"`
	TotalPossibleScore  float64    `json:"total_possible_score"`
	ScoreRatio          float64    `json:"score_ratio"`
	IsComplete          bool       `json:"is_complete"`
	RemainingCategories []Category `json:"remaining_categories"`
}

// Completion computes the completion status from per-category progress flags
// and scores. IsComplete holds exactly when every category is flagged done.
func Completion(progress map[Category]bool, scores map[Category]float64) CompletionStatus {
	total := len(Categories)
	completed := 0
	remaining := make([]Category, 0, total)

	for _, category := range Categories {
		if progress[category] {
			completed++
		} else {
			remaining = append(remaining, category)
		}
	}

	var currentScore float64
	for category, score := range scores {
		if !category.IsValid() {
			continue
		}
		currentScore += score
	}

	totalPossible := TotalPossibleScore()
	status := CompletionStatus{
		CompletedCategories: completed,
		TotalCategories:     total,
		CompletionRatio:     float64(completed) / float64(total),
		CurrentScore:        currentScore,
		TotalPossibleScore:  totalPossible,
		IsComplete:          completed == total,
		RemainingCategories: remaining,
	}
	if totalPossible > 0 {
		status.ScoreRatio = currentScore / totalPossible
	}
	return status
}
