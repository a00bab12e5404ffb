package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/internal/pkg/logger"
	"ai-tripplanner-bot/internal/repository/memory"
	"ai-tripplanner-bot/pkg/planner"
	"ai-tripplanner-bot/pkg/store"
)

const restartNotice = "Please use /plan to start over."

// Engine drives the trip-planning wizard. Each inbound event is handled
// to completion under its chat's lock, so concurrent taps from group
// members never race on one session; different chats proceed in
// parallel.
type Engine struct {
	sessions  *memory.SessionRepository
	planner   *planner.Service
	transport Transport
	logger    logger.ILogger
	cfg       *config.Config

	routes map[string]callbackRoute

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// callbackRoute ties a button-payload family to the step it is valid in
// and its handler. The single table replaces per-handler state guards.
type callbackRoute struct {
	state  store.FlowState
	handle func(ctx context.Context, ev Event, session *store.Session)
}

func NewEngine(sessions *memory.SessionRepository, svc *planner.Service, transport Transport, log logger.ILogger, cfg *config.Config) *Engine {
	e := &Engine{
		sessions:  sessions,
		planner:   svc,
		transport: transport,
		logger:    log,
		cfg:       cfg,
		chatLocks: make(map[int64]*sync.Mutex),
	}
	e.routes = map[string]callbackRoute{
		"hotel":     {state: store.StateConfirmingHotel, handle: e.handleHotelConfirmation},
		"days":      {state: store.StateSelectingDays, handle: e.handleDaysSelection},
		"vote_act":  {state: store.StateSelectingActivities, handle: e.handleVote},
		"vote_fod":  {state: store.StateSelectingFood, handle: e.handleVote},
		"done_act":  {state: store.StateSelectingActivities, handle: e.handleDoneActivities},
		"done_fod":  {state: store.StateSelectingFood, handle: e.handleDoneFood},
		"itinerary": {state: store.StateReviewingItinerary, handle: e.handleItineraryAction},
	}
	return e
}

// Handle processes one normalized event end to end, including any
// outbound search or generation calls made during a step transition.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	lock := e.chatLock(ev.ChatID)
	lock.Lock()
	defer lock.Unlock()

	session := e.sessions.GetOrCreate(ev.ChatID)

	e.logger.Info("flow", "handling event", map[string]interface{}{
		"event_id": ev.ID,
		"type":     string(ev.Type),
		"chat_id":  ev.ChatID,
		"user_id":  ev.UserID,
		"state":    string(session.State),
	})

	switch ev.Type {
	case EventCommand:
		e.handleCommand(ctx, ev, session)
	case EventCallback:
		if !e.dispatchCallback(ctx, ev, session) {
			// Rejected taps must not touch the session, not even its
			// bookkeeping timestamps.
			return
		}
	case EventText:
		e.handleText(ctx, ev, session)
	}

	session.UpdatedAt = time.Now()
	e.sessions.Save(session)
}

// dispatchCallback resolves the payload family, applies the step guard
// once, then runs the handler. Wrong-step taps answer with a restart
// notice and leave the session untouched; the return value reports
// whether the handler ran.
func (e *Engine) dispatchCallback(ctx context.Context, ev Event, session *store.Session) bool {
	key := routeKey(ev.Payload)
	route, ok := e.routes[key]
	if !ok {
		e.logger.Warn("flow", "unknown callback payload", map[string]interface{}{"payload": ev.Payload})
		e.answer(ctx, ev, "Unknown action", true)
		return false
	}

	if session.State != route.state {
		e.logger.Info("flow", "callback rejected in wrong step", map[string]interface{}{
			"payload":  ev.Payload,
			"state":    string(session.State),
			"required": string(route.state),
		})
		e.answer(ctx, ev, restartNotice, true)
		return false
	}

	route.handle(ctx, ev, session)
	return true
}

func routeKey(payload string) string {
	switch {
	case payload == payloadHotelYes || payload == payloadHotelNo:
		return "hotel"
	case strings.HasPrefix(payload, payloadDays):
		return "days"
	case strings.HasPrefix(payload, payloadSelect+"act_"), strings.HasPrefix(payload, payloadDeselect+"act_"):
		return "vote_act"
	case strings.HasPrefix(payload, payloadSelect+"fod_"), strings.HasPrefix(payload, payloadDeselect+"fod_"):
		return "vote_fod"
	case payload == payloadDoneAct:
		return "done_act"
	case payload == payloadDoneFood:
		return "done_fod"
	case payload == payloadItinRegen || payload == payloadItinOK:
		return "itinerary"
	default:
		return ""
	}
}

func (e *Engine) chatLock(chatID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		e.chatLocks[chatID] = lock
	}
	return lock
}

// answer acknowledges a button tap; failures are logged only, a lost
// toast never blocks the flow.
func (e *Engine) answer(ctx context.Context, ev Event, text string, alert bool) {
	if ev.CallbackID == "" {
		return
	}
	if err := e.transport.AnswerCallbackQuery(ctx, ev.CallbackID, text, alert); err != nil {
		e.logger.Warn("flow", "answer callback failed", map[string]interface{}{"error": err.Error()})
	}
}
