package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/internal/repository/memory"
	"ai-tripplanner-bot/pkg/llm"
	"ai-tripplanner-bot/pkg/planner"
	"ai-tripplanner-bot/pkg/search"
	"ai-tripplanner-bot/pkg/store"
	"ai-tripplanner-bot/pkg/telegram"
)

const (
	testChatID  int64 = 500
	testVoterA  int64 = 101
	testVoterB  int64 = 202
	testMessage int64 = 9000
)

// --- Test doubles ---

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// scriptedLLM answers each pipeline prompt with a canned reply, keyed by
// the prompt's task preamble.
type scriptedLLM struct {
	hotelErr     error
	itineraryErr error
}

const activityReply = `Treasure Bay Water Park|Lagoi Bay|Daily 9am-6pm|Family water park with wave pools.|https://example.com/a1
Mangrove Discovery Tour|Sebung Village|Check website|Boat tour through mangroves.|https://example.com/a2
Safari Lagoi|Lagoi|Daily 10am-5pm|Mini zoo with animal feeding.|https://example.com/a3
Trikora Beach|East Coast|All day|Quiet beach with shallow water.|https://example.com/a4
Crystal Lagoon|Treasure Bay|Daily 9am-7pm|Swimmable lagoon with kid zones.|https://example.com/a5`

const eateryReply = `Warung Yeah!|Lagoi Bay|Indonesian|Casual family dining with kid menu.|https://example.com/e1
Kelong Seafood|Trikora Beach|Seafood|Fresh halal seafood on the water.|https://example.com/e2
Rumah Imperium|Tanjung Pinang|Cafe|Kid-friendly cafe with local snacks.|https://example.com/e3
Ayam Presto|Town Center|Indonesian|Fried chicken the kids love.|https://example.com/e4
Lagoi Bay Food Court|Lagoi Bay|Mixed|Many stalls, something for everyone.|https://example.com/e5`

const itineraryReply = "================\nDAY 1 - Arrival Day\n================\n\n12:00 PM | Arrive at Hotel"

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	switch {
	case strings.Contains(prompt, "identify hotels"):
		if s.hotelErr != nil {
			return "", s.hotelErr
		}
		return `{"name": "Bintan Lagoon Resort", "area": "Lagoi", "confidence": "high"}`, nil
	case strings.Contains(prompt, "extracting kid-friendly activities"):
		return activityReply, nil
	case strings.Contains(prompt, "extracting halal dining"):
		return eateryReply, nil
	case strings.Contains(prompt, "travel planner creating"):
		if s.itineraryErr != nil {
			return "", s.itineraryErr
		}
		return itineraryReply, nil
	}
	return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) == 0 {
		return "", errors.New("empty history")
	}
	return s.Generate(ctx, history[len(history)-1].Content, options...)
}

type scriptedSearch struct {
	err       error
	noResults bool
}

func (s *scriptedSearch) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.noResults {
		return nil, nil
	}
	return []search.Result{{Title: "Guide", URL: "https://example.com", Content: "Things to do."}}, nil
}

type answeredCallback struct {
	ID    string
	Text  string
	Alert bool
}

// fakeTransport records every outbound interaction.
type fakeTransport struct {
	nextID  int64
	sent    []telegram.SendMessageParams
	edits   []telegram.EditMessageParams
	answers []answeredCallback
	markups []int64
	deleted []int64
}

func (f *fakeTransport) SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error) {
	f.nextID++
	f.sent = append(f.sent, params)
	return &telegram.Message{MessageID: f.nextID, Chat: telegram.Chat{ID: params.ChatID}, Text: params.Text}, nil
}

func (f *fakeTransport) EditMessageText(ctx context.Context, params telegram.EditMessageParams) error {
	f.edits = append(f.edits, params)
	return nil
}

func (f *fakeTransport) EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, markup *telegram.InlineKeyboardMarkup) error {
	f.markups = append(f.markups, messageID)
	return nil
}

func (f *fakeTransport) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	f.answers = append(f.answers, answeredCallback{ID: callbackID, Text: text, Alert: showAlert})
	return nil
}

func (f *fakeTransport) lastSent(t *testing.T) telegram.SendMessageParams {
	t.Helper()
	require.NotEmpty(t, f.sent, "no messages sent")
	return f.sent[len(f.sent)-1]
}

// --- Harness ---

type harness struct {
	engine   *Engine
	tr       *fakeTransport
	sessions *memory.SessionRepository
	llm      *scriptedLLM
	search   *scriptedSearch
}

func newHarness() *harness {
	cfg := &config.Config{
		Trip: config.TripConfig{
			Place:            "Bintan",
			StartDate:        "17 December 2025",
			EndDate:          "20 December 2025",
			Preferences:      []string{"family-friendly"},
			MaxSearchResults: 5,
			MaxChunkLen:      3500,
		},
	}

	llmProvider := &scriptedLLM{}
	searchProvider := &scriptedSearch{}
	sessions := memory.NewSessionRepository()
	svc := planner.NewService(searchProvider, llmProvider, nopLogger{}, cfg)
	tr := &fakeTransport{}

	return &harness{
		engine:   NewEngine(sessions, svc, tr, nopLogger{}, cfg),
		tr:       tr,
		sessions: sessions,
		llm:      llmProvider,
		search:   searchProvider,
	}
}

func (h *harness) session() *store.Session {
	return h.sessions.GetOrCreate(testChatID)
}

func (h *harness) command(name string) {
	h.engine.Handle(context.Background(), Event{
		ID: "ev", Type: EventCommand, ChatID: testChatID, UserID: testVoterA, Command: name,
	})
}

func (h *harness) text(userID int64, text string) {
	h.engine.Handle(context.Background(), Event{
		ID: "ev", Type: EventText, ChatID: testChatID, UserID: userID, Text: text,
	})
}

func (h *harness) tap(userID int64, payload string) {
	h.engine.Handle(context.Background(), Event{
		ID: "ev", Type: EventCallback, ChatID: testChatID, UserID: userID,
		Payload: payload, CallbackID: "cb", MessageID: testMessage,
	})
}

// driveToActivities replays the happy path up to the activity round.
func (h *harness) driveToActivities(t *testing.T, numDays int) {
	t.Helper()
	h.command("plan")
	h.text(testVoterA, "bintan lagoon")
	h.tap(testVoterA, payloadHotelYes)
	h.tap(testVoterA, fmt.Sprintf("%s%d", payloadDays, numDays))
	require.Equal(t, store.StateSelectingActivities, h.session().State)
}

// driveToFood continues through the activity round with one vote cast.
func (h *harness) driveToFood(t *testing.T, numDays int) {
	t.Helper()
	h.driveToActivities(t, numDays)
	h.tap(testVoterA, payloadSelect+"act_001")
	h.tap(testVoterA, payloadDoneAct)
	require.Equal(t, store.StateSelectingFood, h.session().State)
}

// --- Scenarios ---

func TestPlanCommandStartsHotelStep(t *testing.T) {
	h := newHarness()

	h.command("plan")

	assert.Equal(t, store.StateWaitingForHotel, h.session().State)
	assert.Contains(t, h.tr.lastSent(t).Text, "Where are you staying")
}

func TestPlanCommandRestartsMidFlow(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 3)

	h.command("plan")

	session := h.session()
	assert.Equal(t, store.StateWaitingForHotel, session.State)
	assert.Nil(t, session.Hotel)
	assert.Empty(t, session.Activities)
	assert.True(t, session.ActivityVotes.Empty())
}

func TestHotelInputLeadsToConfirmation(t *testing.T) {
	h := newHarness()
	h.command("plan")

	h.text(testVoterA, "bintan lagoon")

	session := h.session()
	require.Equal(t, store.StateConfirmingHotel, session.State)
	require.NotNil(t, session.Hotel)
	assert.Equal(t, "Bintan Lagoon Resort", session.Hotel.Name)
	assert.Equal(t, "Lagoi", session.Hotel.Area)

	last := h.tr.lastSent(t)
	require.NotNil(t, last.ReplyMarkup)
	buttons := last.ReplyMarkup.InlineKeyboard[0]
	require.Len(t, buttons, 2)
	assert.Equal(t, payloadHotelYes, buttons[0].CallbackData)
	assert.Equal(t, payloadHotelNo, buttons[1].CallbackData)
}

func TestHotelParseFailureStaysInHotelStep(t *testing.T) {
	h := newHarness()
	h.llm.hotelErr = errors.New("connection refused")
	h.command("plan")

	h.text(testVoterA, "bintan lagoon")

	assert.Equal(t, store.StateWaitingForHotel, h.session().State)
	assert.Nil(t, h.session().Hotel)
	assert.Contains(t, h.tr.lastSent(t).Text, "trouble understanding that hotel")
}

func TestHotelRejectionReturnsToInput(t *testing.T) {
	h := newHarness()
	h.command("plan")
	h.text(testVoterA, "bintan lagoon")

	h.tap(testVoterA, payloadHotelNo)

	session := h.session()
	assert.Equal(t, store.StateWaitingForHotel, session.State)
	assert.Nil(t, session.Hotel)
}

func TestDaysSelectionStartsActivityRound(t *testing.T) {
	h := newHarness()
	h.command("plan")
	h.text(testVoterA, "bintan lagoon")
	h.tap(testVoterA, payloadHotelYes)
	require.Equal(t, store.StateSelectingDays, h.session().State)

	h.tap(testVoterA, payloadDays+"3")

	session := h.session()
	assert.Equal(t, 3, session.NumDays)
	assert.Equal(t, store.StateSelectingActivities, session.State)
	require.Len(t, session.Activities, 5)
	assert.Equal(t, "001", session.Activities[0].ID)
	assert.Equal(t, "Treasure Bay Water Park", session.Activities[0].Name)

	// One toggle row per candidate plus the done row.
	last := h.tr.lastSent(t)
	require.NotNil(t, last.ReplyMarkup)
	require.Len(t, last.ReplyMarkup.InlineKeyboard, 6)
	assert.Equal(t, "sel_act_001", last.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, payloadDoneAct, last.ReplyMarkup.InlineKeyboard[5][0].CallbackData)
}

func TestSearchFailureDoesNotAdvanceStep(t *testing.T) {
	h := newHarness()
	h.command("plan")
	h.text(testVoterA, "bintan lagoon")
	h.tap(testVoterA, payloadHotelYes)

	h.search.err = errors.New("tavily down")
	h.tap(testVoterA, payloadDays+"3")

	// NumDays is recorded but the round never opened.
	session := h.session()
	assert.Equal(t, store.StateSelectingDays, session.State)
	assert.Empty(t, session.Activities)
	assert.Contains(t, h.tr.lastSent(t).Text, "couldn't search")
}

func TestNoSearchResultsShowsApology(t *testing.T) {
	h := newHarness()
	h.command("plan")
	h.text(testVoterA, "bintan lagoon")
	h.tap(testVoterA, payloadHotelYes)

	h.search.noResults = true
	h.tap(testVoterA, payloadDays+"2")

	session := h.session()
	assert.Equal(t, store.StateSelectingDays, session.State)
	assert.Empty(t, session.Activities)
	assert.Contains(t, h.tr.lastSent(t).Text, "couldn't find any activities")
}

func TestVoteToggleAcrossUsers(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 3)

	h.tap(testVoterA, payloadSelect+"act_002")
	h.tap(testVoterB, payloadSelect+"act_002")

	votes := h.session().ActivityVotes
	assert.Equal(t, 2, votes.Count("002"))

	// Re-adding the same vote changes nothing.
	h.tap(testVoterA, payloadSelect+"act_002")
	assert.Equal(t, 2, h.session().ActivityVotes.Count("002"))

	h.tap(testVoterA, payloadDeselect+"act_002")
	votes = h.session().ActivityVotes
	assert.Equal(t, 1, votes.Count("002"))
	assert.False(t, votes.Has("002", testVoterA))
	assert.True(t, votes.Has("002", testVoterB))
}

func TestVoteRefreshesKeyboardForTapper(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 3)

	h.tap(testVoterA, payloadSelect+"act_001")

	require.NotEmpty(t, h.tr.edits)
	edit := h.tr.edits[len(h.tr.edits)-1]
	require.NotNil(t, edit.ReplyMarkup)

	first := edit.ReplyMarkup.InlineKeyboard[0][0]
	assert.Equal(t, payloadDeselect+"act_001", first.CallbackData, "tapper's button should flip to deselect")
	assert.Contains(t, first.Text, "✅")
	assert.Contains(t, first.Text, "(1)")

	second := edit.ReplyMarkup.InlineKeyboard[1][0]
	assert.Equal(t, payloadSelect+"act_002", second.CallbackData)
}

func TestDoneActivitiesAppliesDefaultsWhenNoVotes(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 1)

	h.tap(testVoterA, payloadDoneAct)

	session := h.session()
	// One-day trip defaults to two activities, applied as system votes.
	votes := session.ActivityVotes
	assert.Equal(t, 2, votes.Total())
	assert.True(t, votes.Has("001", store.SystemVoterID))
	assert.True(t, votes.Has("002", store.SystemVoterID))
	assert.False(t, votes.Has("003", store.SystemVoterID))

	assert.Equal(t, store.StateSelectingFood, session.State)
	require.NotEmpty(t, h.tr.edits)
	assert.Contains(t, h.tr.edits[len(h.tr.edits)-1].Text, "No activities selected")
}

func TestDoneActivitiesKeepsCastVotes(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 3)
	h.tap(testVoterA, payloadSelect+"act_003")

	h.tap(testVoterA, payloadDoneAct)

	session := h.session()
	assert.Equal(t, store.StateSelectingFood, session.State)
	assert.Equal(t, 1, session.ActivityVotes.Total())
	assert.False(t, session.ActivityVotes.Has("001", store.SystemVoterID))
	require.Len(t, session.Eateries, 5)
}

func TestDoneFoodGeneratesItinerary(t *testing.T) {
	h := newHarness()
	h.driveToFood(t, 3)
	h.tap(testVoterA, payloadSelect+"fod_002")

	h.tap(testVoterA, payloadDoneFood)

	session := h.session()
	assert.Equal(t, store.StateReviewingItinerary, session.State)
	assert.Equal(t, itineraryReply, session.Itinerary)

	// Status message was cleaned up after generation finished.
	assert.NotEmpty(t, h.tr.deleted)

	last := h.tr.lastSent(t)
	assert.Equal(t, itineraryReply, last.Text)
	assert.Empty(t, last.ParseMode, "itinerary chunks are plain text")
	require.NotNil(t, last.ReplyMarkup)
	buttons := last.ReplyMarkup.InlineKeyboard[0]
	assert.Equal(t, payloadItinRegen, buttons[0].CallbackData)
	assert.Equal(t, payloadItinOK, buttons[1].CallbackData)
}

func TestGenerationFailureRollsBackToFood(t *testing.T) {
	h := newHarness()
	h.driveToFood(t, 3)
	h.tap(testVoterA, payloadSelect+"fod_002")

	h.llm.itineraryErr = errors.New("model offline")
	h.tap(testVoterA, payloadDoneFood)

	session := h.session()
	assert.Equal(t, store.StateSelectingFood, session.State)
	assert.Empty(t, session.Itinerary)
	// Votes survive the rollback, a retry needs no re-voting.
	assert.True(t, session.EateryVotes.Has("002", testVoterA))
	assert.True(t, session.ActivityVotes.Has("001", testVoterA))
	assert.Contains(t, h.tr.lastSent(t).Text, "trouble generating")
}

func TestRegenerateProducesNewItinerary(t *testing.T) {
	h := newHarness()
	h.driveToFood(t, 3)
	h.tap(testVoterA, payloadSelect+"fod_002")
	h.tap(testVoterA, payloadDoneFood)
	require.Equal(t, store.StateReviewingItinerary, h.session().State)

	h.tap(testVoterA, payloadItinRegen)

	session := h.session()
	assert.Equal(t, store.StateReviewingItinerary, session.State)
	assert.Equal(t, itineraryReply, session.Itinerary)
}

func TestAcceptItineraryEndsSession(t *testing.T) {
	h := newHarness()
	h.driveToFood(t, 3)
	h.tap(testVoterA, payloadSelect+"fod_002")
	h.tap(testVoterA, payloadDoneFood)

	h.tap(testVoterA, payloadItinOK)

	assert.Equal(t, store.StateIdle, h.session().State)
	assert.NotEmpty(t, h.tr.markups, "review buttons should be detached")
	assert.Contains(t, h.tr.lastSent(t).Text, "Have a wonderful trip")
}

func TestWrongStepCallbackLeavesSessionUntouched(t *testing.T) {
	h := newHarness()
	h.command("plan")
	h.text(testVoterA, "bintan lagoon")

	before, err := json.Marshal(h.session())
	require.NoError(t, err)

	// Voting is only valid during the activity round.
	h.tap(testVoterA, payloadSelect+"act_001")

	after, err := json.Marshal(h.session())
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))

	require.NotEmpty(t, h.tr.answers)
	answer := h.tr.answers[len(h.tr.answers)-1]
	assert.Equal(t, restartNotice, answer.Text)
	assert.True(t, answer.Alert)
}

func TestUnknownPayloadIsRejected(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 3)

	h.tap(testVoterA, "bogus_payload")

	require.NotEmpty(t, h.tr.answers)
	answer := h.tr.answers[len(h.tr.answers)-1]
	assert.Equal(t, "Unknown action", answer.Text)
	assert.True(t, answer.Alert)
}

func TestTextDuringButtonStepGetsGuidance(t *testing.T) {
	h := newHarness()
	h.driveToActivities(t, 3)

	h.text(testVoterA, "I like the water park")

	assert.Equal(t, store.StateSelectingActivities, h.session().State)
	assert.Contains(t, h.tr.lastSent(t).Text, "use the buttons above")
}

func TestItineraryChunkingKeyboardOnLastChunkOnly(t *testing.T) {
	h := newHarness()
	h.engine.cfg.Trip.MaxChunkLen = 40

	long := strings.Repeat("Morning at the beach. ", 3) + "\n\n" +
		strings.Repeat("Lunch near the lagoon. ", 3) + "\n\n" +
		"Dinner at the kelong."
	h.engine.sendItinerary(context.Background(), testChatID, long)

	require.Greater(t, len(h.tr.sent), 1, "long itinerary should be chunked")
	for i, msg := range h.tr.sent {
		assert.Empty(t, msg.ParseMode)
		if i < len(h.tr.sent)-1 {
			assert.Nil(t, msg.ReplyMarkup, "chunk %d should carry no buttons", i)
		} else {
			assert.NotNil(t, msg.ReplyMarkup, "final chunk carries the review buttons")
		}
	}
}
