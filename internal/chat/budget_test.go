package chat

import (
	"sort"
	"testing"

	"github.com/DavidBatoDev/wally-chat-bot/internal/transcript"
)

// mkTurn builds a NormalizedTurn with an explicit token cost.
func mkTurn(role transcript.Role, text string, tokens, index int) NormalizedTurn {
	return NormalizedTurn{Role: role, Text: text, Tokens: tokens, Index: index}
}

func planTexts(p Plan) []string {
	texts := make([]string, len(p))
	for i, t := range p {
		texts[i] = t.Text
	}
	return texts
}

func TestSelect_AllFit(t *testing.T) {
	// Scenario: budget large enough for everything keeps everything, in order.
	sel := NewSelector(DefaultSelectorWeights(), 0)
	turns := []NormalizedTurn{
		mkTurn(transcript.RoleUser, "Hi", 1, 0),
		mkTurn(transcript.RoleAssistant, "Hello", 2, 1),
		mkTurn(transcript.RoleUser, "Translate my ID to French", 7, 2),
	}
	plan := sel.Select(turns, 100000, 10)
	want := []string{"Hi", "Hello", "Translate my ID to French"}
	got := planTexts(plan)
	if len(got) != len(want) {
		t.Fatalf("plan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan = %v, want %v", got, want)
		}
	}
}

func TestSelect_OnlyFinalFits(t *testing.T) {
	sel := NewSelector(DefaultSelectorWeights(), 0)
	turns := []NormalizedTurn{
		mkTurn(transcript.RoleUser, "Hi", 100, 0),
		mkTurn(transcript.RoleAssistant, "Hello", 100, 1),
		mkTurn(transcript.RoleUser, "Translate my ID to French", 7, 2),
	}
	plan := sel.Select(turns, 10, 0)
	if len(plan) != 1 || plan[0].Text != "Translate my ID to French" {
		t.Fatalf("plan = %v, want only the final turn", planTexts(plan))
	}
}

func TestSelect_FinalTurnInviolable(t *testing.T) {
	sel := NewSelector(DefaultSelectorWeights(), 512)
	turns := []NormalizedTurn{
		mkTurn(transcript.RoleUser, "old", 50, 0),
		mkTurn(transcript.RoleUser, "the question", 5000, 1),
	}

	// Even a zero budget keeps the final turn.
	plan := sel.Select(turns, 0, 0)
	if len(plan) != 1 || plan[0].Text != "the question" {
		t.Fatalf("budget 0: plan = %v, want [the question]", planTexts(plan))
	}

	// A final turn bigger than the entire budget is still included.
	plan = sel.Select(turns, 100, 10)
	if len(plan) != 1 || plan[0].Text != "the question" {
		t.Fatalf("oversized final: plan = %v, want [the question]", planTexts(plan))
	}
}

func TestSelect_NoPriorTurns(t *testing.T) {
	sel := NewSelector(DefaultSelectorWeights(), 0)
	turns := []NormalizedTurn{mkTurn(transcript.RoleUser, "only", 3, 0)}
	plan := sel.Select(turns, 1000, 0)
	if len(plan) != 1 || plan[0].Text != "only" {
		t.Fatalf("plan = %v, want [only]", planTexts(plan))
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	sel := NewSelector(DefaultSelectorWeights(), 0)
	if plan := sel.Select(nil, 1000, 0); plan != nil {
		t.Fatalf("plan = %v, want nil", plan)
	}
}

func TestSelect_ChronologicalInvariant(t *testing.T) {
	// Selection order is score-driven, but the returned plan must be sorted
	// by original index no matter what gets admitted.
	sel := NewSelector(DefaultSelectorWeights(), 0)
	turns := []NormalizedTurn{
		mkTurn(transcript.RoleAssistant, "a0", 30, 0),
		mkTurn(transcript.RoleUser, "u1", 5, 1),
		mkTurn(transcript.RoleAssistant, "a2", 40, 2),
		mkTurn(transcript.RoleUser, "u3", 5, 3),
		mkTurn(transcript.RoleAssistant, "a4", 8, 4),
		mkTurn(transcript.RoleUser, "query", 10, 5),
	}
	plan := sel.Select(turns, 60, 0)
	if !sort.SliceIsSorted(plan, func(a, b int) bool { return plan[a].Index < plan[b].Index }) {
		t.Fatalf("plan not chronological: %v", planTexts(plan))
	}
	if plan[len(plan)-1].Text != "query" {
		t.Fatalf("plan must end with the final turn, got %v", planTexts(plan))
	}
}

func TestSelect_CriticalPairAtomic(t *testing.T) {
	// A user→assistant pair that fits as a unit is admitted as a unit.
	sel := NewSelector(DefaultSelectorWeights(), 0)
	turns := []NormalizedTurn{
		mkTurn(transcript.RoleUser, "q1", 10, 0),
		mkTurn(transcript.RoleAssistant, "a1", 10, 1),
		mkTurn(transcript.RoleUser, "query", 10, 2),
	}
	// working budget = 30 - 10 (final) = 20: exactly the pair.
	plan := sel.Select(turns, 30, 0)
	got := planTexts(plan)
	if len(got) != 3 {
		t.Fatalf("plan = %v, want the pair plus the final turn", got)
	}

	hasQ1, hasA1 := false, false
	for _, text := range got {
		if text == "q1" {
			hasQ1 = true
		}
		if text == "a1" {
			hasA1 = true
		}
	}
	if hasQ1 != hasA1 {
		t.Fatalf("critical pair split: %v", got)
	}
}

func TestSelect_PairPreferredOverLoneSingle(t *testing.T) {
	// With room for only one unit, the highest-scored pair goes in before
	// loose singles are considered.
	sel := NewSelector(DefaultSelectorWeights(), 0)
	turns := []NormalizedTurn{
		mkTurn(transcript.RoleAssistant, "orphan", 10, 0),
		mkTurn(transcript.RoleUser, "q1", 10, 1),
		mkTurn(transcript.RoleAssistant, "a1", 10, 2),
		mkTurn(transcript.RoleUser, "query", 10, 3),
	}
	// working = 40 - 10 = 30: pair (20) fits, then orphan (10) also fits.
	plan := sel.Select(turns, 40, 0)
	if len(plan) != 4 {
		t.Fatalf("plan = %v, want all four", planTexts(plan))
	}

	// working = 30 - 10 = 20: only the pair fits.
	plan = sel.Select(turns, 30, 0)
	got := planTexts(plan)
	if len(got) != 3 || got[0] != "q1" || got[1] != "a1" || got[2] != "query" {
		t.Fatalf("plan = %v, want [q1 a1 query]", got)
	}
}

func TestScoreTurns_FactorRankOrder(t *testing.T) {
	sel := NewSelector(DefaultSelectorWeights(), 0)

	// Recency dominates: identical turns at different positions.
	priors := []NormalizedTurn{
		mkTurn(transcript.RoleUser, "early", 10, 0),
		mkTurn(transcript.RoleUser, "late", 10, 5),
	}
	scores := sel.scoreTurns(priors, 7)
	if scores[1] <= scores[0] {
		t.Errorf("recency: late turn score %f should beat early %f", scores[1], scores[0])
	}

	// Smaller turns beat bigger ones at the same position and role.
	priors = []NormalizedTurn{
		mkTurn(transcript.RoleUser, "big", 100, 3),
		mkTurn(transcript.RoleUser, "small", 10, 3),
	}
	scores = sel.scoreTurns(priors, 7)
	if scores[1] <= scores[0] {
		t.Errorf("size: small turn score %f should beat big %f", scores[1], scores[0])
	}

	// User turns beat assistant turns, all else equal.
	priors = []NormalizedTurn{
		mkTurn(transcript.RoleAssistant, "a", 10, 3),
		mkTurn(transcript.RoleUser, "u", 10, 3),
	}
	scores = sel.scoreTurns(priors, 7)
	if scores[1] <= scores[0] {
		t.Errorf("role: user score %f should beat assistant %f", scores[1], scores[0])
	}
}
