package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"memento-be/pkg/cist"
)

func allDone() map[cist.Category]bool {
	progress := make(map[cist.Category]bool)
	for _, category := range cist.Categories {
		progress[category] = true
	}
	return progress
}

// longChat builds a history of n user turns with no screening question.
func longChat(n int) []HistoryEntry {
	entries := make([]HistoryEntry, 0, n*2)
	for i := 0; i < n; i++ {
		entries = append(entries,
			HistoryEntry{Role: "user", ResponseType: cist.ResponsePhotoConversation},
			HistoryEntry{Role: "assistant", ResponseType: cist.ResponsePhotoConversation},
		)
	}
	return entries
}

func TestDecideMinimumTurns(t *testing.T) {
	engine := NewEngine()

	decision := engine.Decide(TurnState{TurnCount: 1}, "기억나는 추억이 있어요", nil)

	assert.False(t, decision.Insert)
	assert.Equal(t, "Minimum turns not reached", decision.Reason)
}

func TestDecideAllCategoriesCompleted(t *testing.T) {
	engine := NewEngine()

	decision := engine.Decide(TurnState{TurnCount: 10, Progress: allDone()}, "기억이 나요", nil)

	assert.False(t, decision.Insert)
	assert.Equal(t, "All CIST categories completed", decision.Reason)
}

func TestDecideForcedInsertionAfterEightTurns(t *testing.T) {
	// rand pinned to 1.0 so only the forced rule can fire.
	engine := NewEngine(WithRand(func() float64 { return 1.0 }))

	decision := engine.Decide(TurnState{TurnCount: 10, Progress: map[cist.Category]bool{}}, "그냥 날씨 얘기", longChat(8))

	assert.True(t, decision.Insert)
	assert.Equal(t, "Maximum turns without CIST reached", decision.Reason)
	assert.Equal(t, cist.PriorityOrder[0], decision.Category)
}

func TestDecideForcedInsertionSkipsCompleted(t *testing.T) {
	engine := NewEngine(WithRand(func() float64 { return 1.0 }))
	progress := map[cist.Category]bool{cist.PriorityOrder[0]: true}

	decision := engine.Decide(TurnState{TurnCount: 10, Progress: progress}, "그냥 날씨 얘기", longChat(8))

	assert.True(t, decision.Insert)
	assert.Equal(t, cist.PriorityOrder[1], decision.Category)
}

func TestDecidePhotoOpportunity(t *testing.T) {
	engine := NewEngine(WithRand(func() float64 { return 1.0 }))

	// Photo keyword plus a naming trigger word.
	decision := engine.Decide(TurnState{TurnCount: 3, Progress: map[cist.Category]bool{}},
		"사진 속 꽃이 참 예쁘네요", nil)

	assert.True(t, decision.Insert)
	assert.Equal(t, cist.CategoryLanguageNaming, decision.Category)
}

func TestDecidePlaceOpportunity(t *testing.T) {
	engine := NewEngine(WithRand(func() float64 { return 1.0 }))
	progress := map[cist.Category]bool{cist.CategoryLanguageNaming: true}

	decision := engine.Decide(TurnState{TurnCount: 3, Progress: progress},
		"이 사진 찍은 장소가 어디였더라", nil)

	assert.True(t, decision.Insert)
	assert.Equal(t, cist.CategoryOrientationPlace, decision.Category)
}

func TestDecideMemoryOpportunity(t *testing.T) {
	engine := NewEngine(WithRand(func() float64 { return 1.0 }))

	decision := engine.Decide(TurnState{TurnCount: 3, Progress: map[cist.Category]bool{}},
		"그때 추억이 기억나요", nil)

	assert.True(t, decision.Insert)
	assert.Equal(t, cist.CategoryMemoryRecall, decision.Category)
}

func TestDecideProbabilisticInsertion(t *testing.T) {
	// rand pinned to 0 forces the probabilistic rule to fire whenever its
	// probability is positive.
	engine := NewEngine(WithRand(func() float64 { return 0.0 }))

	decision := engine.Decide(TurnState{TurnCount: 3, Progress: map[cist.Category]bool{}},
		"오늘 점심 맛있게 먹었어요", nil)

	assert.True(t, decision.Insert)
	assert.Contains(t, decision.Reason, "Contextual insertion")
}

func TestDecideProbabilisticSkip(t *testing.T) {
	engine := NewEngine(WithRand(func() float64 { return 1.0 }))

	decision := engine.Decide(TurnState{TurnCount: 3, Progress: map[cist.Category]bool{}},
		"오늘 점심 맛있게 먹었어요", nil)

	assert.False(t, decision.Insert)
	assert.Contains(t, decision.Reason, "Context not suitable")
}

func TestAnalyzeContext(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"이 사진 좀 보세요", ContextPhotoDescription},
		{"옛날 생각이 나네요", ContextMemoryRecall},
		{"재미있는 이야기가 있어요", ContextStorytelling},
		{"그날 정말 행복했어요", ContextEmotionDiscussion},
		{"점심 뭐 드셨어요", ContextGeneralChat},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AnalyzeContext(tt.message), tt.message)
	}
}

func TestTurnsSinceLastScreen(t *testing.T) {
	history := []HistoryEntry{
		{Role: "user", ResponseType: cist.ResponsePhotoConversation},
		{Role: "assistant", ResponseType: cist.ResponseCISTQuestion},
		{Role: "user", ResponseType: cist.ResponsePhotoConversation},
		{Role: "assistant", ResponseType: cist.ResponsePhotoConversation},
		{Role: "user", ResponseType: cist.ResponsePhotoConversation},
	}

	assert.Equal(t, 2, turnsSinceLastScreen(history))
	assert.Equal(t, 0, turnsSinceLastScreen(nil))
}

func TestRuleRouterDelegates(t *testing.T) {
	router := NewRuleRouter(NewEngine())

	decision := router.Route(context.Background(), TurnState{TurnCount: 0}, "안녕하세요", nil)

	assert.False(t, decision.Insert)
	assert.Equal(t, "Minimum turns not reached", decision.Reason)
}
