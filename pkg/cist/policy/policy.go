package policy

import (
	"fmt"
	"math/rand"
	"strings"

	"memento-be/pkg/cist"
)

// Context buckets recognised by the keyword classifier.
const (
	ContextPhotoDescription  = "photo_description"
	ContextMemoryRecall      = "memory_recall"
	ContextStorytelling      = "storytelling"
	ContextEmotionDiscussion = "emotion_discussion"
	ContextGeneralChat       = "general_chat"
)

// Decision is the outcome of one insertion check.
type Decision struct {
	Insert   bool
	Category cist.Category
	Reason   string
}

// TurnState is the slice of session state the policy reads. The policy is a
// pure function over this input; it never mutates session state.
type TurnState struct {
	TurnCount int
	Progress  map[cist.Category]bool
}

// HistoryEntry is one transcript entry, reduced to what the policy needs.
type HistoryEntry struct {
	Role         string
	ResponseType cist.ResponseType
}

// Engine decides, per turn, whether to insert a screening question now,
// which category, and why.
type Engine struct {
	minTurnsBeforeCIST  int
	maxTurnsWithoutCIST int
	insertionBaseRate   float64

	contextWeights map[string]float64

	// rand is injectable so the probabilistic rule is testable.
	rand func() float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand overrides the probability source.
func WithRand(r func() float64) Option {
	return func(e *Engine) { e.rand = r }
}

// NewEngine returns an Engine with the production tuning.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		minTurnsBeforeCIST:  2,
		maxTurnsWithoutCIST: 8,
		insertionBaseRate:   0.3,
		contextWeights: map[string]float64{
			ContextPhotoDescription:  0.8,
			ContextMemoryRecall:      0.9,
			ContextStorytelling:      0.7,
			ContextEmotionDiscussion: 0.6,
			ContextGeneralChat:       0.4,
		},
		rand: rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Keyword sets for context classification and category triggers.
var (
	photoKeywords   = []string{"사진", "이미지", "찍었", "보여", "모습", "장면"}
	memoryKeywords  = []string{"기억", "생각", "떠올", "추억", "그때", "예전", "옛날"}
	storyKeywords   = []string{"이야기", "얘기", "일어났", "경험", "사건", "일"}
	emotionKeywords = []string{"기뻤", "슬펐", "즐거웠", "행복", "우울", "감정", "느낌"}

	namingTriggers = []string{"사람", "물건", "동물", "꽃", "나무", "건물", "차", "음식"}
	placeTriggers  = []string{"여기", "장소", "어디", "곳", "위치"}
	memoryTriggers = []string{"기억", "생각", "떠올", "잊었", "기억나"}
)

// memoryCategories in the order they are offered for memory-related turns.
var memoryCategories = []cist.Category{
	cist.CategoryMemoryRecall,
	cist.CategoryMemoryRegistration,
	cist.CategoryMemoryRecognition,
}

// contextPreferences maps a context bucket to its preferred categories.
var contextPreferences = map[string][]cist.Category{
	ContextPhotoDescription:  {cist.CategoryLanguageNaming, cist.CategoryOrientationPlace},
	ContextMemoryRecall:      {cist.CategoryMemoryRecall, cist.CategoryMemoryRegistration},
	ContextStorytelling:      {cist.CategoryMemoryRegistration, cist.CategoryExecutiveFunction},
	ContextEmotionDiscussion: {cist.CategoryMemoryRecall, cist.CategoryAttention},
	ContextGeneralChat:       {cist.CategoryOrientationTime, cist.CategoryAttention},
}

// Decide applies the insertion rules in order; the first matching rule wins.
func (e *Engine) Decide(state TurnState, message string, history []HistoryEntry) Decision {
	// 1. Too early in the session.
	if state.TurnCount < e.minTurnsBeforeCIST {
		return Decision{Reason: "Minimum turns not reached"}
	}

	// 2. Nothing left to screen.
	available := availableCategories(state.Progress)
	if len(available) == 0 {
		return Decision{Reason: "All CIST categories completed"}
	}

	// 3. Forced insertion after too long without screening.
	if turnsSinceLastScreen(history) >= e.maxTurnsWithoutCIST {
		return Decision{
			Insert:   true,
			Category: selectPriorityCategory(available),
			Reason:   "Maximum turns without CIST reached",
		}
	}

	// 4. Classify the conversational context.
	contextType := AnalyzeContext(message)
	contextualScore, ok := e.contextWeights[contextType]
	if !ok {
		contextualScore = e.contextWeights[ContextGeneralChat]
	}

	// 5. Photo-bound opportunity (naming or place triggers).
	if category, found := photoRelatedOpportunity(message, available); found && contextualScore > 0.6 {
		return Decision{
			Insert:   true,
			Category: category,
			Reason:   fmt.Sprintf("Photo-related CIST opportunity: %s", contextType),
		}
	}

	// 6. Memory-bound opportunity.
	if category, found := memoryRelatedOpportunity(message, available); found && contextualScore > 0.7 {
		return Decision{
			Insert:   true,
			Category: category,
			Reason:   fmt.Sprintf("Memory-related CIST opportunity: %s", contextType),
		}
	}

	// 7. Probabilistic insertion, boosted early and late in the session.
	probability := e.insertionBaseRate * contextualScore
	completionRatio := completionRatio(state.Progress)
	if completionRatio < 0.3 {
		probability *= 1.2
	} else if completionRatio > 0.7 {
		probability *= 1.5
	}

	if e.rand() < probability {
		return Decision{
			Insert:   true,
			Category: selectContextualCategory(available, contextType),
			Reason:   fmt.Sprintf("Contextual insertion: %s (score: %.2f)", contextType, contextualScore),
		}
	}

	return Decision{Reason: fmt.Sprintf("Context not suitable: %s (score: %.2f)", contextType, contextualScore)}
}

// AnalyzeContext classifies a user message into one of the context buckets.
// Unrecognised content falls back to general chat; this never fails.
func AnalyzeContext(message string) string {
	lower := strings.ToLower(message)

	if containsAny(lower, photoKeywords) {
		return ContextPhotoDescription
	}
	if containsAny(lower, memoryKeywords) {
		return ContextMemoryRecall
	}
	if containsAny(lower, storyKeywords) {
		return ContextStorytelling
	}
	if containsAny(lower, emotionKeywords) {
		return ContextEmotionDiscussion
	}
	return ContextGeneralChat
}

func availableCategories(progress map[cist.Category]bool) []cist.Category {
	available := make([]cist.Category, 0, len(cist.Categories))
	for _, category := range cist.Categories {
		if !progress[category] {
			available = append(available, category)
		}
	}
	return available
}

// turnsSinceLastScreen counts user turns since the last screening question.
func turnsSinceLastScreen(history []HistoryEntry) int {
	turns := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ResponseType == cist.ResponseCISTQuestion {
			break
		}
		if history[i].Role == "user" {
			turns++
		}
	}
	return turns
}

func photoRelatedOpportunity(message string, available []cist.Category) (cist.Category, bool) {
	lower := strings.ToLower(message)

	if contains(available, cist.CategoryLanguageNaming) && containsAny(lower, namingTriggers) {
		return cist.CategoryLanguageNaming, true
	}
	if contains(available, cist.CategoryOrientationPlace) && containsAny(lower, placeTriggers) {
		return cist.CategoryOrientationPlace, true
	}
	return "", false
}

func memoryRelatedOpportunity(message string, available []cist.Category) (cist.Category, bool) {
	lower := strings.ToLower(message)
	if !containsAny(lower, memoryTriggers) {
		return "", false
	}
	for _, category := range memoryCategories {
		if contains(available, category) {
			return category, true
		}
	}
	return "", false
}

func selectPriorityCategory(available []cist.Category) cist.Category {
	for _, category := range cist.PriorityOrder {
		if contains(available, category) {
			return category
		}
	}
	return available[0]
}

func selectContextualCategory(available []cist.Category, contextType string) cist.Category {
	for _, category := range contextPreferences[contextType] {
		if contains(available, category) {
			return category
		}
	}
	return selectPriorityCategory(available)
}

func completionRatio(progress map[cist.Category]bool) float64 {
	completed := 0
	for _, category := range cist.Categories {
		if progress[category] {
			completed++
		}
	}
	return float64(completed) / float64(len(cist.Categories))
}

func containsAny(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}

func contains(categories []cist.Category, target cist.Category) bool {
	for _, category := range categories {
		if category == target {
			return true
		}
	}
	return false
}
