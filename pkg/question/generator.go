package question

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"memento-be/pkg/cist"
	"memento-be/pkg/cist/template"
	"memento-be/pkg/llm"
)

// Exchange is one transcript entry fed into generation context.
type Exchange struct {
	Role    string // "user" | "assistant"
	Content string
}

// Generator produces paraphrased screening-question candidates and light
// conversational replies. The heavy provider carries the multi-stage
// background pipeline; the light provider sits on the interactive path and
// must answer within interactive latency.
type Generator struct {
	heavy     llm.LLMProvider
	light     llm.LLMProvider
	templates *template.Store
}

func NewGenerator(heavy, light llm.LLMProvider, templates *template.Store) *Generator {
	return &Generator{
		heavy:     heavy,
		light:     light,
		templates: templates,
	}
}

type predictedPathsPayload struct {
	PredictedPaths []cist.PredictedPath `json:"predicted_paths"`
}

// PredictPaths issues a single heavy generation call producing 3-5 weighted
// candidate user-response continuations. Failures propagate: this sits on
// the background path and the caller owns the task status.
func (g *Generator) PredictPaths(
	ctx context.Context,
	conversationContext string,
	photoContext string,
	history []Exchange,
	lastReply string,
) (*cist.PathPrediction, error) {

	userPrompt := fmt.Sprintf(pathPredictionUserPrompt,
		orDefault(photoContext, noPhotoContext),
		FormatHistory(history, 10),
		lastReply,
	)

	reply, err := g.heavy.Chat(ctx, []llm.Message{
		{Role: "system", Content: pathPredictionSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("path prediction call: %w", err)
	}

	var payload predictedPathsPayload
	if err := unmarshalModelJSON(reply, &payload); err != nil {
		return nil, fmt.Errorf("path prediction: %w", err)
	}
	if len(payload.PredictedPaths) < 3 {
		return nil, fmt.Errorf("path prediction returned %d paths, want 3-5", len(payload.PredictedPaths))
	}
	if len(payload.PredictedPaths) > 5 {
		payload.PredictedPaths = payload.PredictedPaths[:5]
	}

	return &cist.PathPrediction{
		Id:                  uuid.NewString(),
		CurrentTurn:         len(history),
		PredictedPaths:      payload.PredictedPaths,
		PhotoContext:        photoContext,
		ConversationContext: conversationContext,
		CreatedAt:           time.Now(),
	}, nil
}

type adaptedQuestionsPayload struct {
	AdaptedQuestions []struct {
		Question              string  `json:"question"`
		AdaptationStrategy    string  `json:"adaptation_strategy"`
		NaturalnessScore      float64 `json:"naturalness_score"`
		ContextRelevanceScore float64 `json:"context_relevance_score"`
	} `json:"adapted_questions"`
}

// GenerateCandidates issues one paraphrase call per canonical template per
// predicted path. Deliberately combinatorial: diversity first, evaluation
// culls afterwards.
func (g *Generator) GenerateCandidates(
	ctx context.Context,
	category cist.Category,
	conversationContext string,
	photoContext string,
	paths []cist.PredictedPath,
	sessionId string,
) ([]cist.QuestionCandidate, error) {

	originals := g.templates.Questions(category)
	candidates := make([]cist.QuestionCandidate, 0, len(originals)*len(paths))

	for _, original := range originals {
		for _, path := range paths {
			userPrompt := fmt.Sprintf(questionGenerationUserPrompt,
				category.String(),
				original,
				orDefault(photoContext, noPhotoContext),
				conversationContext,
				path.PredictedResponse,
			)

			reply, err := g.heavy.Chat(ctx, []llm.Message{
				{Role: "system", Content: questionGenerationSystemPrompt},
				{Role: "user", Content: userPrompt},
			}, llm.WithTemperature(0.7))
			if err != nil {
				return nil, fmt.Errorf("candidate generation call: %w", err)
			}

			var payload adaptedQuestionsPayload
			if err := unmarshalModelJSON(reply, &payload); err != nil {
				return nil, fmt.Errorf("candidate generation: %w", err)
			}

			for _, adapted := range payload.AdaptedQuestions {
				candidates = append(candidates, cist.QuestionCandidate{
					Id:                    uuid.NewString(),
					SessionId:             sessionId,
					Category:              category,
					OriginalQuestion:      original,
					AdaptedQuestion:       adapted.Question,
					ContextRelevanceScore: adapted.ContextRelevanceScore,
					NaturalnessScore:      adapted.NaturalnessScore,
					PhotoContext:          photoContext,
					ConversationContext:   conversationContext,
					CreatedAt:             time.Now(),
				})
			}
		}
	}

	return candidates, nil
}

type evaluationsPayload struct {
	Evaluations []struct {
		QuestionId            string  `json:"question_id"`
		NaturalnessScore      float64 `json:"naturalness_score"`
		ContextRelevanceScore float64 `json:"context_relevance_score"`
		DifficultyScore       float64 `json:"difficulty_score"`
		OverallScore          float64 `json:"overall_score"`
		PassThreshold         bool    `json:"pass_threshold"`
	} `json:"evaluations"`
}

// EvaluateCandidates scores all candidates in one batched call and keeps
// only those clearing the pass threshold. Non-passing candidates are
// dropped, not cached.
func (g *Generator) EvaluateCandidates(
	ctx context.Context,
	candidates []cist.QuestionCandidate,
	evaluationContext map[string]interface{},
) ([]cist.QuestionCandidate, error) {

	if len(candidates) == 0 {
		return nil, nil
	}

	questionsData := make([]map[string]string, 0, len(candidates))
	for _, candidate := range candidates {
		questionsData = append(questionsData, map[string]string{
			"question_id": candidate.Id,
			"question":    candidate.AdaptedQuestion,
			"category":    candidate.Category.String(),
			"original":    candidate.OriginalQuestion,
		})
	}

	questionsJSON, err := json.Marshal(questionsData)
	if err != nil {
		return nil, fmt.Errorf("marshal questions for evaluation: %w", err)
	}
	contextJSON, err := json.Marshal(evaluationContext)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation context: %w", err)
	}

	reply, err := g.heavy.Chat(ctx, []llm.Message{
		{Role: "system", Content: questionEvaluationSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(questionEvaluationUserPrompt, questionsJSON, contextJSON)},
	}, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("candidate evaluation call: %w", err)
	}

	var payload evaluationsPayload
	if err := unmarshalModelJSON(reply, &payload); err != nil {
		return nil, fmt.Errorf("candidate evaluation: %w", err)
	}

	evaluations := make(map[string]int, len(payload.Evaluations))
	for i, evaluation := range payload.Evaluations {
		evaluations[evaluation.QuestionId] = i
	}

	survivors := make([]cist.QuestionCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		idx, found := evaluations[candidate.Id]
		if !found {
			continue
		}
		evaluation := payload.Evaluations[idx]
		if !evaluation.PassThreshold {
			continue
		}
		candidate.DifficultyScore = evaluation.DifficultyScore
		candidate.OverallScore = evaluation.OverallScore
		survivors = append(survivors, candidate)
	}

	return survivors, nil
}

// LightReply generates the immediate conversational response on the
// interactive path. On any failure it returns the fixed empathetic
// fallback; it never surfaces an error to the turn.
func (g *Generator) LightReply(
	ctx context.Context,
	userMessage string,
	conversationContext string,
	photoContext string,
) string {

	userPrompt := fmt.Sprintf(lightReplyUserPrompt,
		orDefault(photoContext, "사진을 함께 보고 있습니다"),
		conversationContext,
		userMessage,
	)

	reply, err := g.light.Chat(ctx, []llm.Message{
		{Role: "system", Content: lightReplySystemPrompt},
		{Role: "user", Content: userPrompt},
	}, llm.WithTemperature(0.6), llm.WithMaxTokens(256))
	if err != nil {
		return FallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return FallbackReply
	}
	return reply
}

// FormatHistory renders the most recent entries as a speaker-tagged block.
func FormatHistory(history []Exchange, limit int) string {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	lines := make([]string, 0, len(history))
	for _, exchange := range history {
		speaker := "AI"
		if exchange.Role == "user" {
			speaker = "사용자"
		}
		lines = append(lines, speaker+": "+exchange.Content)
	}
	return strings.Join(lines, "\n")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
