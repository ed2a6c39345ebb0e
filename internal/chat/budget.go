package chat

import (
	"sort"

	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

// Plan is the ordered set of turns chosen for inclusion in a prompt. It is
// always chronological and always ends with the most recent turn.
type Plan []NormalizedTurn

// SelectorWeights tunes the composite relevance score. The three factors and
// their rank order (recency > size == role) matter; the exact values are an
// empirical knob.
type SelectorWeights struct {
	Recency float64
	Size    float64
	Role    float64
}

func DefaultSelectorWeights() SelectorWeights {
	return SelectorWeights{Recency: 0.6, Size: 0.2, Role: 0.2}
}

// Selector picks which prior turns to retain under a token budget.
type Selector struct {
	weights         SelectorWeights
	responseReserve int
}

// NewSelector creates a Selector. responseReserve is the token allowance
// held back for the model's own reply.
func NewSelector(weights SelectorWeights, responseReserve int) *Selector {
	if weights == (SelectorWeights{}) {
		weights = DefaultSelectorWeights()
	}
	if responseReserve < 0 {
		responseReserve = 0
	}
	return &Selector{weights: weights, responseReserve: responseReserve}
}

// Select retains a subset of turns under the given total budget.
//
// The most recent turn is the user's actual question: it is admitted first
// and never evicted, even when it alone exceeds the budget. Prior turns are
// admitted greedily by composite score, with user→assistant critical pairs
// kept atomic, then the plan is restored to chronological order.
//
// systemTokens is the estimated cost of the fixed system instruction; it is
// reserved off the top together with the response allowance.
func (s *Selector) Select(turns []NormalizedTurn, budget, systemTokens int) Plan {
	if len(turns) == 0 {
		return nil
	}

	final := turns[len(turns)-1]
	priors := turns[:len(turns)-1]

	working := budget - systemTokens - s.responseReserve
	working -= final.Tokens

	if len(priors) == 0 || working <= 0 {
		return Plan{final}
	}

	scores := s.scoreTurns(priors, len(turns))
	admitted := make([]bool, len(priors))

	// Critical pairs: a user turn immediately followed by an assistant turn
	// forms a complete question/answer unit. Pair greedily left to right so
	// each turn belongs to at most one pair.
	type pair struct {
		user, assistant int // indexes into priors
		score           float64
	}
	var pairs []pair
	paired := make([]bool, len(priors))
	for i := 0; i+1 < len(priors); i++ {
		if paired[i] {
			continue
		}
		if priors[i].Role == transcript.RoleUser && priors[i+1].Role == transcript.RoleAssistant {
			pairs = append(pairs, pair{
				user:      i,
				assistant: i + 1,
				score:     (scores[i] + scores[i+1]) / 2,
			})
			paired[i], paired[i+1] = true, true
		}
	}

	// Phase 1: admit pairs in descending score order, atomically.
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].score > pairs[b].score })
	for _, p := range pairs {
		cost := priors[p.user].Tokens + priors[p.assistant].Tokens
		if cost <= working {
			admitted[p.user], admitted[p.assistant] = true, true
			working -= cost
		}
	}

	// Phase 2: admit remaining turns individually in descending score order.
	order := make([]int, len(priors))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	for _, i := range order {
		if admitted[i] {
			continue
		}
		if priors[i].Tokens <= working {
			admitted[i] = true
			working -= priors[i].Tokens
		}
	}

	// Restore chronological order.
	plan := make(Plan, 0, len(priors)+1)
	for i, t := range priors {
		if admitted[i] {
			plan = append(plan, t)
		}
	}
	plan = append(plan, final)
	sort.SliceStable(plan, func(a, b int) bool { return plan[a].Index < plan[b].Index })
	return plan
}

// scoreTurns computes the composite relevance score for each prior turn:
// recency (later is better), size penalty (smaller is better), and a role
// bonus (user intent weighs more than the assistant's prior phrasing).
func (s *Selector) scoreTurns(priors []NormalizedTurn, total int) []float64 {
	largest := 0
	for _, t := range priors {
		if t.Tokens > largest {
			largest = t.Tokens
		}
	}

	scores := make([]float64, len(priors))
	for i, t := range priors {
		recency := float64(t.Index+1) / float64(total)

		size := 1.0
		if largest > 0 {
			size = 1 - float64(t.Tokens)/float64(largest)
		}

		role := 0.5
		if t.Role == transcript.RoleUser {
			role = 1.0
		}

		scores[i] = s.weights.Recency*recency + s.weights.Size*size + s.weights.Role*role
	}
	return scores
}
