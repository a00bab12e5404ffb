package store

import "time"

// FlowState identifies the wizard step a chat is currently in.
type FlowState string

const (
	StateIdle                FlowState = "IDLE"
	StateWaitingForHotel     FlowState = "WAITING_FOR_HOTEL"
	StateConfirmingHotel     FlowState = "CONFIRMING_HOTEL"
	StateSelectingDays       FlowState = "SELECTING_DAYS"
	StateSelectingActivities FlowState = "SELECTING_ACTIVITIES"
	StateSelectingFood       FlowState = "SELECTING_FOOD"
	StateGenerating          FlowState = "GENERATING"
	StateReviewingItinerary  FlowState = "REVIEWING_ITINERARY"
)

// CandidateKind discriminates the two voting rounds.
type CandidateKind string

const (
	KindActivity CandidateKind = "activity"
	KindEatery   CandidateKind = "eatery"
)

// Hotel parse confidence levels
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// SystemVoterID is the reserved voter identity used when default
// selections are applied on behalf of a chat that cast no votes.
const SystemVoterID int64 = 0

// Candidate is a single activity or eatery option presented for voting.
// Immutable once its round is built; IDs are sequential within a round
// ("001", "002", ...) and unique only within (round, kind).
type Candidate struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Location    string        `json:"location"`
	TimeInfo    string        `json:"time_info"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	Kind        CandidateKind `json:"kind"`
	Cuisine     string        `json:"cuisine,omitempty"` // eateries only
}

// HotelInfo is the parsed hotel input, immutable once built.
type HotelInfo struct {
	RawInput   string `json:"raw_input"`
	Name       string `json:"name"`
	Area       string `json:"area"`
	Confidence string `json:"confidence"`
}

// Session is the active per-chat conversation state held in memory.
// One Session exists per chat id; every participant in a group chat
// shares it. Mutations must be serialized per chat by the caller.
type Session struct {
	ChatID int64     `json:"chat_id"`
	State  FlowState `json:"state"`

	// Candidates presented in the current planning round, replaced
	// wholesale when a round's search completes.
	Activities []Candidate `json:"activities"`
	Eateries   []Candidate `json:"eateries"`

	// Per-item vote sets keyed by candidate id.
	ActivityVotes VoteLedger `json:"activity_votes"`
	EateryVotes   VoteLedger `json:"eatery_votes"`

	Hotel   *HotelInfo `json:"hotel,omitempty"`
	NumDays int        `json:"num_days"`

	Itinerary string `json:"itinerary,omitempty"`

	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a fresh idle session for a chat.
func NewSession(chatID int64) *Session {
	now := time.Now()
	return &Session{
		ChatID:        chatID,
		State:         StateIdle,
		ActivityVotes: NewVoteLedger(),
		EateryVotes:   NewVoteLedger(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Candidates returns the presented candidate list for a kind.
func (s *Session) Candidates(kind CandidateKind) []Candidate {
	if kind == KindActivity {
		return s.Activities
	}
	return s.Eateries
}

// SetCandidates replaces a round's candidate list and resets its votes.
func (s *Session) SetCandidates(kind CandidateKind, items []Candidate) {
	if kind == KindActivity {
		s.Activities = items
		s.ActivityVotes = NewVoteLedger()
	} else {
		s.Eateries = items
		s.EateryVotes = NewVoteLedger()
	}
}

// Votes returns the ledger for a kind.
func (s *Session) Votes(kind CandidateKind) VoteLedger {
	if kind == KindActivity {
		return s.ActivityVotes
	}
	return s.EateryVotes
}
