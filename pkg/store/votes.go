package store

import (
	"encoding/json"
	"sort"
)

// VoteLedger tracks, per candidate id, the set of voter identities that
// currently vote for it. The backing map never leaves this type so the
// no-empty-set invariant cannot be broken from outside: an item id is
// present if and only if at least one voter is recorded for it.
type VoteLedger struct {
	votes map[string]map[int64]struct{}
}

// ItemVotes pairs a candidate id with its current vote count.
type ItemVotes struct {
	ItemID string `json:"item_id"`
	Count  int    `json:"count"`
}

// NewVoteLedger returns an empty ledger.
func NewVoteLedger() VoteLedger {
	return VoteLedger{votes: make(map[string]map[int64]struct{})}
}

// Add records a vote. Re-adding an existing vote is a no-op; the return
// value reports whether the ledger changed.
func (l *VoteLedger) Add(itemID string, voterID int64) bool {
	if l.votes == nil {
		l.votes = make(map[string]map[int64]struct{})
	}
	set, ok := l.votes[itemID]
	if !ok {
		set = make(map[int64]struct{})
		l.votes[itemID] = set
	}
	if _, voted := set[voterID]; voted {
		return false
	}
	set[voterID] = struct{}{}
	return true
}

// Remove withdraws a vote. Removing a vote that was never cast is a
// no-op. When the last voter leaves an item, its entry is deleted so
// "has any vote" queries stay exact.
func (l *VoteLedger) Remove(itemID string, voterID int64) bool {
	set, ok := l.votes[itemID]
	if !ok {
		return false
	}
	if _, voted := set[voterID]; !voted {
		return false
	}
	delete(set, voterID)
	if len(set) == 0 {
		delete(l.votes, itemID)
	}
	return true
}

// Has reports whether the voter currently votes for the item.
func (l VoteLedger) Has(itemID string, voterID int64) bool {
	_, ok := l.votes[itemID][voterID]
	return ok
}

// Count returns the number of distinct voters for the item.
func (l VoteLedger) Count(itemID string) int {
	return len(l.votes[itemID])
}

// Total returns the number of (item, voter) pairs across the ledger.
func (l VoteLedger) Total() int {
	total := 0
	for _, set := range l.votes {
		total += len(set)
	}
	return total
}

// Empty reports whether no votes at all have been cast.
func (l VoteLedger) Empty() bool {
	return len(l.votes) == 0
}

// Ranked returns voted items ordered by vote count descending. Ties keep
// the candidates' presentation order; that order decides itinerary
// scheduling priority, so the sort must be stable. Items with zero votes
// are excluded.
func (l VoteLedger) Ranked(order []Candidate) []ItemVotes {
	ranked := make([]ItemVotes, 0, len(l.votes))
	for _, c := range order {
		if n := len(l.votes[c.ID]); n > 0 {
			ranked = append(ranked, ItemVotes{ItemID: c.ID, Count: n})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// MarshalJSON renders the ledger as item id -> sorted voter ids, keeping
// the debug output deterministic.
func (l VoteLedger) MarshalJSON() ([]byte, error) {
	out := make(map[string][]int64, len(l.votes))
	for id, set := range l.votes {
		voters := make([]int64, 0, len(set))
		for v := range set {
			voters = append(voters, v)
		}
		sort.Slice(voters, func(i, j int) bool { return voters[i] < voters[j] })
		out[id] = voters
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the ledger from the MarshalJSON shape.
func (l *VoteLedger) UnmarshalJSON(data []byte) error {
	var in map[string][]int64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	l.votes = make(map[string]map[int64]struct{}, len(in))
	for id, voters := range in {
		if len(voters) == 0 {
			continue
		}
		set := make(map[int64]struct{}, len(voters))
		for _, v := range voters {
			set[v] = struct{}{}
		}
		l.votes[id] = set
	}
	return nil
}
