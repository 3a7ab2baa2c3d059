package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento-be/pkg/cist"
	"memento-be/pkg/cist/template"
	"memento-be/pkg/llm"
)

// fakeProvider returns canned replies in call order, or a fixed error.
type fakeProvider struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	if f.calls > len(f.replies) {
		return f.replies[len(f.replies)-1], nil
	}
	return f.replies[f.calls-1], nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func TestPredictPaths(t *testing.T) {
	reply := "```json\n" + `{
		"predicted_paths": [
			{"path_id": "path_1", "probability": 0.5, "predicted_response": "어릴 적 바닷가 기억이 나요", "response_type": "memory_recall"},
			{"path_id": "path_2", "probability": 0.3, "predicted_response": "사진이 참 좋네요", "response_type": "photo_description"},
			{"path_id": "path_3", "probability": 0.2, "predicted_response": "글쎄요", "response_type": "general"}
		]
	}` + "\n```"

	heavy := &fakeProvider{replies: []string{reply}}
	generator := NewGenerator(heavy, &fakeProvider{}, template.NewStore())

	history := []Exchange{
		{Role: "user", Content: "안녕하세요"},
		{Role: "assistant", Content: "반갑습니다"},
	}

	prediction, err := generator.PredictPaths(context.Background(), "바닷가 이야기", "가족 해변 사진", history, "바다에 자주 가셨나요?")
	require.NoError(t, err)
	require.Len(t, prediction.PredictedPaths, 3)
	assert.Equal(t, "path_1", prediction.PredictedPaths[0].PathId)
	assert.Equal(t, 2, prediction.CurrentTurn)
	assert.NotEmpty(t, prediction.Id)
}

func TestPredictPathsPropagatesError(t *testing.T) {
	heavy := &fakeProvider{err: errors.New("upstream timeout")}
	generator := NewGenerator(heavy, &fakeProvider{}, template.NewStore())

	_, err := generator.PredictPaths(context.Background(), "", "", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestPredictPathsRejectsTooFew(t *testing.T) {
	reply := `{"predicted_paths": [
		{"path_id": "path_1", "probability": 0.7, "predicted_response": "기억나요", "response_type": "memory_recall"},
		{"path_id": "path_2", "probability": 0.3, "predicted_response": "글쎄요", "response_type": "general"}
	]}`
	generator := NewGenerator(&fakeProvider{replies: []string{reply}}, &fakeProvider{}, template.NewStore())

	_, err := generator.PredictPaths(context.Background(), "", "", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 3-5")
}

func TestPredictPathsCapsAtFive(t *testing.T) {
	var paths []string
	for i := 0; i < 7; i++ {
		paths = append(paths, fmt.Sprintf(`{"path_id": "path_%d", "probability": 0.1, "predicted_response": "응답", "response_type": "general"}`, i+1))
	}
	reply := `{"predicted_paths": [` + strings.Join(paths, ",") + `]}`

	generator := NewGenerator(&fakeProvider{replies: []string{reply}}, &fakeProvider{}, template.NewStore())

	prediction, err := generator.PredictPaths(context.Background(), "", "", nil, "")
	require.NoError(t, err)
	assert.Len(t, prediction.PredictedPaths, 5)
}

func TestGenerateCandidates(t *testing.T) {
	reply := `{
		"adapted_questions": [
			{"question": "요즘처럼 더운 걸 보니 지금이 몇 월쯤일까요?", "adaptation_strategy": "계절 연결", "naturalness_score": 0.85, "context_relevance_score": 0.9}
		]
	}`
	heavy := &fakeProvider{replies: []string{reply}}
	store := template.NewStore()
	generator := NewGenerator(heavy, &fakeProvider{}, store)

	paths := []cist.PredictedPath{
		{PathId: "path_1", Probability: 0.6, PredictedResponse: "여름 이야기", ResponseType: "memory_recall"},
		{PathId: "path_2", Probability: 0.4, PredictedResponse: "사진 설명", ResponseType: "photo_description"},
	}

	candidates, err := generator.GenerateCandidates(context.Background(), cist.CategoryOrientationTime, "여름 바닷가 대화", "해변 사진", paths, "session-1")
	require.NoError(t, err)

	// One call per template per path, each yielding one adapted question.
	expected := store.Count(cist.CategoryOrientationTime) * len(paths)
	assert.Len(t, candidates, expected)
	assert.Equal(t, expected, heavy.calls)

	for _, candidate := range candidates {
		assert.Equal(t, "session-1", candidate.SessionId)
		assert.Equal(t, cist.CategoryOrientationTime, candidate.Category)
		assert.NotEmpty(t, candidate.OriginalQuestion)
		assert.NotEmpty(t, candidate.AdaptedQuestion)
		assert.InDelta(t, 0.85, candidate.NaturalnessScore, 1e-9)
		assert.False(t, candidate.IsUsed)
	}
}

func TestEvaluateCandidatesFiltersByThreshold(t *testing.T) {
	candidates := []cist.QuestionCandidate{
		{Id: "q1", Category: cist.CategoryOrientationTime, AdaptedQuestion: "지금이 몇 월일까요?"},
		{Id: "q2", Category: cist.CategoryOrientationTime, AdaptedQuestion: "오늘 요일 아세요?"},
		{Id: "q3", Category: cist.CategoryLanguageNaming, AdaptedQuestion: "이건 뭐라고 부르죠?"},
	}

	reply := `{
		"evaluations": [
			{"question_id": "q1", "naturalness_score": 0.9, "context_relevance_score": 0.85, "difficulty_score": 0.8, "overall_score": 0.86, "pass_threshold": true},
			{"question_id": "q2", "naturalness_score": 0.4, "context_relevance_score": 0.3, "difficulty_score": 0.5, "overall_score": 0.4, "pass_threshold": false},
			{"question_id": "q3", "naturalness_score": 0.8, "context_relevance_score": 0.75, "difficulty_score": 0.7, "overall_score": 0.76, "pass_threshold": true}
		]
	}`
	generator := NewGenerator(&fakeProvider{replies: []string{reply}}, &fakeProvider{}, template.NewStore())

	survivors, err := generator.EvaluateCandidates(context.Background(), candidates, map[string]interface{}{"topic": "summer"})
	require.NoError(t, err)
	require.Len(t, survivors, 2)
	assert.Equal(t, "q1", survivors[0].Id)
	assert.InDelta(t, 0.86, survivors[0].OverallScore, 1e-9)
	assert.InDelta(t, 0.8, survivors[0].DifficultyScore, 1e-9)
	assert.Equal(t, "q3", survivors[1].Id)
}

func TestEvaluateCandidatesEmptyInput(t *testing.T) {
	generator := NewGenerator(&fakeProvider{}, &fakeProvider{}, template.NewStore())

	survivors, err := generator.EvaluateCandidates(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, survivors)
}

func TestLightReply(t *testing.T) {
	light := &fakeProvider{replies: []string{"  바닷가 추억이 정말 소중하네요. 그때 누구와 함께 가셨나요?  "}}
	generator := NewGenerator(&fakeProvider{}, light, template.NewStore())

	reply := generator.LightReply(context.Background(), "바다 사진이네요", "해변 대화", "가족 해변 사진")
	assert.Equal(t, "바닷가 추억이 정말 소중하네요. 그때 누구와 함께 가셨나요?", reply)
}

func TestLightReplyFallsBackOnError(t *testing.T) {
	light := &fakeProvider{err: errors.New("provider down")}
	generator := NewGenerator(&fakeProvider{}, light, template.NewStore())

	reply := generator.LightReply(context.Background(), "안녕하세요", "", "")
	assert.Equal(t, FallbackReply, reply)
}

func TestLightReplyFallsBackOnEmpty(t *testing.T) {
	light := &fakeProvider{replies: []string{"   "}}
	generator := NewGenerator(&fakeProvider{}, light, template.NewStore())

	reply := generator.LightReply(context.Background(), "안녕하세요", "", "")
	assert.Equal(t, FallbackReply, reply)
}

func TestUnmarshalModelJSONStripsFences(t *testing.T) {
	var payload predictedPathsPayload
	raw := "설명 텍스트\n```json\n{\"predicted_paths\": [{\"path_id\": \"path_1\", \"probability\": 1.0, \"predicted_response\": \"r\", \"response_type\": \"general\"}]}\n```\n끝"
	require.NoError(t, unmarshalModelJSON(raw, &payload))
	assert.Len(t, payload.PredictedPaths, 1)
}
