package planner

import (
	"github.com/samber/lo"

	"ai-tripplanner-bot/pkg/store"
)

// ApplyDefaults records a synthetic system vote for the first
// defaultCount candidates of a kind, but only when the round closed
// without any vote at all. It returns how many defaults were applied
// and their display names for the summary message. Deterministic for a
// given candidate list.
func ApplyDefaults(session *store.Session, kind store.CandidateKind, defaultCount int) (int, []string) {
	ledger := session.Votes(kind)
	if !ledger.Empty() {
		return 0, nil
	}

	candidates := session.Candidates(kind)
	count := defaultCount
	if count > len(candidates) {
		count = len(candidates)
	}

	chosen := candidates[:count]
	for _, c := range chosen {
		ledger.Add(c.ID, store.SystemVoterID)
	}

	names := lo.Map(chosen, func(c store.Candidate, _ int) string { return c.Name })
	return count, names
}

// Prioritized returns the finalized selection for a kind: voted
// candidates in rank order (vote count descending, presentation order on
// ties). Stale ids that no longer match a candidate are dropped.
func Prioritized(session *store.Session, kind store.CandidateKind) []store.Candidate {
	candidates := session.Candidates(kind)
	byID := lo.KeyBy(candidates, func(c store.Candidate) string { return c.ID })

	ranked := session.Votes(kind).Ranked(candidates)
	result := make([]store.Candidate, 0, len(ranked))
	for _, iv := range ranked {
		if c, ok := byID[iv.ItemID]; ok {
			result = append(result, c)
		}
	}
	return result
}

// VoteCountsByName maps finalized candidate names to their vote counts,
// used to annotate priorities in the generation prompt.
func VoteCountsByName(session *store.Session, kind store.CandidateKind) map[string]int {
	ledger := session.Votes(kind)
	counts := make(map[string]int)
	for _, c := range session.Candidates(kind) {
		if n := ledger.Count(c.ID); n > 0 {
			counts[c.Name] = n
		}
	}
	return counts
}
