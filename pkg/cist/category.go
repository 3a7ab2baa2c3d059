package cist

// Category is one of the eight CIST screening dimensions.
type Category string

const (
	CategoryOrientationTime    Category = "orientation_time"
	CategoryOrientationPlace   Category = "orientation_place"
	CategoryMemoryRegistration Category = "memory_registration"
	CategoryMemoryRecall       Category = "memory_recall"
	CategoryMemoryRecognition  Category = "memory_recognition"
	CategoryAttention          Category = "attention"
	CategoryExecutiveFunction  Category = "executive_function"
	CategoryLanguageNaming     Category = "language_naming"
)

// Categories lists every screening category in declaration order.
var Categories = []Category{
	CategoryOrientationTime,
	CategoryOrientationPlace,
	CategoryMemoryRegistration,
	CategoryMemoryRecall,
	CategoryMemoryRecognition,
	CategoryAttention,
	CategoryExecutiveFunction,
	CategoryLanguageNaming,
}

// PriorityOrder is the fixed order used when an insertion is forced and no
// contextual preference applies.
var PriorityOrder = []Category{
	CategoryOrientationTime,
	CategoryMemoryRegistration,
	CategoryLanguageNaming,
	CategoryMemoryRecall,
	CategoryExecutiveFunction,
	CategoryOrientationPlace,
	CategoryAttention,
	CategoryMemoryRecognition,
}

// MaxScores maps each category to its maximum attainable score.
var MaxScores = map[Category]float64{
	CategoryOrientationTime:    4,
	CategoryOrientationPlace:   1,
	CategoryMemoryRegistration: 3,
	CategoryMemoryRecall:       3,
	CategoryMemoryRecognition:  4,
	CategoryAttention:          1,
	CategoryExecutiveFunction:  2,
	CategoryLanguageNaming:     3,
}

// TotalPossibleScore is the sum of all category maximums.
func TotalPossibleScore() float64 {
	var total float64
	for _, max := range MaxScores {
		total += max
	}
	return total
}

// IsValid reports whether c is a known screening category.
func (c Category) IsValid() bool {
	_, ok := MaxScores[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ResponseType tags an assistant reply for the transport layer.
type ResponseType string

const (
	ResponsePhotoConversation  ResponseType = "photo_conversation"
	ResponseCISTQuestion       ResponseType = "cist_question"
	ResponseFollowupQuestion   ResponseType = "followup_question"
	ResponseEvaluationComplete ResponseType = "evaluation_complete"
)
