package policy

import (
	"context"
	"strings"

	"memento-be/pkg/llm"
)

// Router is the pluggable insertion strategy. RuleRouter is the canonical
// production policy; LLMRouter is an alternative that delegates the
// standard-chat vs assessment-chat call to a language model.
type Router interface {
	Route(ctx context.Context, state TurnState, message string, history []HistoryEntry) Decision
}

// RuleRouter wraps the rule Engine. The first two turns are deterministic
// open conversation by construction (minimum-turn rule).
type RuleRouter struct {
	engine *Engine
}

func NewRuleRouter(engine *Engine) *RuleRouter {
	return &RuleRouter{engine: engine}
}

func (r *RuleRouter) Route(_ context.Context, state TurnState, message string, history []HistoryEntry) Decision {
	return r.engine.Decide(state, message, history)
}

const routingPrompt = `현재 대화 맥락을 분석하여 다음 중 하나를 선택하세요:

1. standard_chat: 일반적인 일상 대화 진행
2. assessment_chat: 인지기능 평가 질문 삽입

다음 기준으로 판단하세요:
- 사용자가 기억력, 시간, 장소에 대해 언급하거나 혼란을 보이면 → assessment_chat
- 일반적인 사진 설명이나 일상 대화이면 → standard_chat

응답은 반드시 'standard_chat' 또는 'assessment_chat' 중 하나만 답하세요.`

// LLMRouter asks a language model whether to steer into an assessment
// exchange. The hard preconditions (minimum turns, completed categories,
// forced insertion) still come from the rule engine; only the contextual
// call is delegated. Any model failure falls back to the rule decision.
type LLMRouter struct {
	engine   *Engine
	provider llm.LLMProvider
}

func NewLLMRouter(engine *Engine, provider llm.LLMProvider) *LLMRouter {
	return &LLMRouter{engine: engine, provider: provider}
}

func (r *LLMRouter) Route(ctx context.Context, state TurnState, message string, history []HistoryEntry) Decision {
	ruleDecision := r.engine.Decide(state, message, history)

	// Hard rules (1-3) and exhausted categories are not negotiable.
	switch ruleDecision.Reason {
	case "Minimum turns not reached", "All CIST categories completed", "Maximum turns without CIST reached":
		return ruleDecision
	}

	reply, err := r.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: routingPrompt},
		{Role: "user", Content: message},
	}, llm.WithTemperature(0.0))
	if err != nil {
		return ruleDecision
	}

	verdict := strings.ToLower(strings.TrimSpace(reply))
	if verdict != "assessment_chat" {
		return Decision{Reason: "LLM routed to standard chat"}
	}

	available := availableCategories(state.Progress)
	if len(available) == 0 {
		return Decision{Reason: "All CIST categories completed"}
	}
	contextType := AnalyzeContext(message)
	return Decision{
		Insert:   true,
		Category: selectContextualCategory(available, contextType),
		Reason:   "LLM routed to assessment chat: " + contextType,
	}
}
