package qcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"memento-be/pkg/cist"
	"memento-be/internal/pkg/logger"
)

const (
	keyPrefix    = "memento:cache:"
	questionTTL  = 24 * time.Hour
	minScore     = 0.7
	maxReturned  = 5
	overlapBonus = 0.1
	overlapCap   = 0.3
)

// QuestionCache stores evaluated question candidates per session and
// category, and re-ranks them against the live conversation at read time.
// The cache is an accelerator, not a ledger: every backend failure degrades
// to an empty read or a dropped write, never to a failed turn.
type QuestionCache struct {
	store Store
	log   logger.ILogger
}

func NewQuestionCache(store Store, log logger.ILogger) *QuestionCache {
	return &QuestionCache{store: store, log: log}
}

func questionKey(sessionId string, category cist.Category) string {
	return fmt.Sprintf("%squestions:%s:%s", keyPrefix, sessionId, category)
}

func pathKey(sessionId string, turn int) string {
	return fmt.Sprintf("%spaths:%s:%d", keyPrefix, sessionId, turn)
}

// Put merges new candidates into the session-category bucket. Candidates
// whose adapted question text already exists in the bucket are dropped, so
// the first write wins and re-runs never duplicate.
func (c *QuestionCache) Put(ctx context.Context, sessionId string, category cist.Category, candidates []cist.QuestionCandidate) {
	if len(candidates) == 0 {
		return
	}
	key := questionKey(sessionId, category)

	existing := c.read(ctx, key)
	seen := make(map[string]bool, len(existing))
	for _, candidate := range existing {
		seen[candidate.AdaptedQuestion] = true
	}

	merged := existing
	for _, candidate := range candidates {
		if seen[candidate.AdaptedQuestion] {
			continue
		}
		seen[candidate.AdaptedQuestion] = true
		merged = append(merged, candidate)
	}

	c.write(ctx, key, merged)
}

// Get returns the bucket's unused candidates re-ranked against the current
// message. Rank is the stored overall score plus a capped bonus for keyword
// overlap between the message and the candidate's stored conversation
// context; candidates below the quality floor are filtered out and at most
// five are returned.
func (c *QuestionCache) Get(ctx context.Context, sessionId string, category cist.Category, currentMessage string) []cist.QuestionCandidate {
	candidates := c.read(ctx, questionKey(sessionId, category))
	if len(candidates) == 0 {
		return nil
	}

	messageTokens := tokenize(currentMessage)

	type ranked struct {
		candidate cist.QuestionCandidate
		score     float64
	}
	scored := make([]ranked, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.IsUsed {
			continue
		}
		bonus := overlapBonus * float64(overlap(messageTokens, tokenize(candidate.ConversationContext)))
		if bonus > overlapCap {
			bonus = overlapCap
		}
		score := candidate.OverallScore + bonus
		if score < minScore {
			continue
		}
		scored = append(scored, ranked{candidate: candidate, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > maxReturned {
		scored = scored[:maxReturned]
	}

	results := make([]cist.QuestionCandidate, 0, len(scored))
	for _, entry := range scored {
		results = append(results, entry.candidate)
	}
	return results
}

// MarkUsed flags one candidate so later reads skip it. A missing bucket or
// id is a no-op.
func (c *QuestionCache) MarkUsed(ctx context.Context, sessionId string, category cist.Category, candidateId string) {
	key := questionKey(sessionId, category)
	candidates := c.read(ctx, key)
	changed := false
	for i := range candidates {
		if candidates[i].Id == candidateId {
			candidates[i].IsUsed = true
			changed = true
		}
	}
	if changed {
		c.write(ctx, key, candidates)
	}
}

// PutPrediction stores the path prediction for one turn.
func (c *QuestionCache) PutPrediction(ctx context.Context, prediction *cist.PathPrediction) {
	payload, err := json.Marshal(prediction)
	if err != nil {
		c.log.Warn("qcache", "marshal prediction failed", map[string]interface{}{"error": err.Error()})
		return
	}
	key := pathKey(prediction.SessionId, prediction.CurrentTurn)
	if err := c.store.SetTTL(ctx, key, payload, questionTTL); err != nil {
		c.log.Warn("qcache", "cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// GetPrediction returns the stored prediction for a turn, or nil.
func (c *QuestionCache) GetPrediction(ctx context.Context, sessionId string, turn int) *cist.PathPrediction {
	payload, err := c.store.Get(ctx, pathKey(sessionId, turn))
	if err != nil {
		return nil
	}
	var prediction cist.PathPrediction
	if err := json.Unmarshal(payload, &prediction); err != nil {
		return nil
	}
	return &prediction
}

// InvalidateSession drops every cached entry for the session.
func (c *QuestionCache) InvalidateSession(ctx context.Context, sessionId string) {
	patterns := []string{
		fmt.Sprintf("%squestions:%s:*", keyPrefix, sessionId),
		fmt.Sprintf("%spaths:%s:*", keyPrefix, sessionId),
	}
	for _, pattern := range patterns {
		keys, err := c.store.Keys(ctx, pattern)
		if err != nil {
			c.log.Warn("qcache", "cache scan failed", map[string]interface{}{"pattern": pattern, "error": err.Error()})
			continue
		}
		if err := c.store.Delete(ctx, keys...); err != nil {
			c.log.Warn("qcache", "cache invalidation failed", map[string]interface{}{"session_id": sessionId, "error": err.Error()})
		}
	}
}

func (c *QuestionCache) read(ctx context.Context, key string) []cist.QuestionCandidate {
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if err != ErrNotFound {
			c.log.Warn("qcache", "cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil
	}
	var candidates []cist.QuestionCandidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		c.log.Warn("qcache", "cache decode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}
	return candidates
}

func (c *QuestionCache) write(ctx context.Context, key string, candidates []cist.QuestionCandidate) {
	payload, err := json.Marshal(candidates)
	if err != nil {
		c.log.Warn("qcache", "cache marshal failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.store.SetTTL(ctx, key, payload, questionTTL); err != nil {
		c.log.Warn("qcache", "cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		tokens[field] = true
	}
	return tokens
}

func overlap(a, b map[string]bool) int {
	count := 0
	for token := range a {
		if b[token] {
			count++
		}
	}
	return count
}
