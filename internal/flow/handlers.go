package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/pkg/planner"
	"ai-tripplanner-bot/pkg/store"
	"ai-tripplanner-bot/pkg/telegram"
	"ai-tripplanner-bot/pkg/utils"
)

// === Commands ===

func (e *Engine) handleCommand(ctx context.Context, ev Event, session *store.Session) {
	switch ev.Command {
	case "start":
		e.handleStart(ctx, ev)
	case "plan":
		e.handlePlan(ctx, ev, session)
	case "help":
		e.handleHelp(ctx, ev)
	default:
		e.send(ctx, ev.ChatID, "🤔 I don't know that command. Try /plan or /help.", nil)
	}
}

func (e *Engine) handleStart(ctx context.Context, ev Event) {
	name := ev.UserName
	if name == "" {
		name = "there"
	}
	e.send(ctx, ev.ChatID, fmt.Sprintf(
		"👋 Welcome %s to %s Trip Planner!\n\n"+
			"I help families plan kid-friendly %s getaways.\n\n"+
			"Here's how it works:\n"+
			"1️⃣ Use /plan to begin\n"+
			"2️⃣ Tell me your hotel and trip length\n"+
			"3️⃣ I'll show activities &amp; eateries tailored to your trip\n"+
			"4️⃣ Tap ✅ to vote for what interests you\n"+
			"5️⃣ In groups, everyone can vote!\n"+
			"6️⃣ Get your personalized itinerary!\n\n"+
			"💡 Tip: Use /plan anytime to start over.",
		escapeHTML(name), escapeHTML(e.cfg.Trip.Place), escapeHTML(e.cfg.Trip.Place)), nil)
}

func (e *Engine) handleHelp(ctx context.Context, ev Event) {
	e.send(ctx, ev.ChatID,
		"🧭 <b>Commands</b>\n\n"+
			"/plan - start (or restart) planning a trip\n"+
			"/help - show this message\n\n"+
			"Flow: Hotel → Days → Activities → Food → Itinerary\n"+
			"💡 <i>In group chats, everyone can vote on the options.</i>", nil)
}

// handlePlan wipes the chat's session and starts a fresh wizard run
// with the trip dates pre-filled.
func (e *Engine) handlePlan(ctx context.Context, ev Event, session *store.Session) {
	e.logger.Info("flow", "restarting session", map[string]interface{}{"chat_id": ev.ChatID})

	*session = *store.NewSession(ev.ChatID)
	session.StartDate = e.cfg.Trip.StartDate
	session.EndDate = e.cfg.Trip.EndDate

	e.send(ctx, ev.ChatID, fmt.Sprintf(
		"🗓️ Planning your %s trip (%s - %s)...\n\nLet's start with some basics!",
		escapeHTML(e.cfg.Trip.Place), escapeHTML(session.StartDate), escapeHTML(session.EndDate)), nil)

	e.startHotelInput(ctx, session)
}

// === Free text ===

func (e *Engine) handleText(ctx context.Context, ev Event, session *store.Session) {
	if session.State == store.StateWaitingForHotel {
		e.handleHotelInput(ctx, ev, session)
		return
	}

	// Every other step steers the user back to its buttons.
	var guidance string
	switch session.State {
	case store.StateIdle:
		guidance = "👋 Hi! Use /plan to start planning your trip, or /help to see available commands."
	case store.StateConfirmingHotel:
		guidance = "👆 Please use the buttons above to confirm your hotel, or tap 'No' to re-enter."
	case store.StateSelectingDays:
		guidance = "👆 Please use the buttons above to select the number of days."
	case store.StateSelectingActivities, store.StateSelectingFood:
		guidance = "👆 Please use the buttons above to make selections.\nTap ✅ to select, then tap 'Done' when finished."
	case store.StateReviewingItinerary:
		guidance = "👆 Please use the buttons above to accept or regenerate your itinerary."
	case store.StateGenerating:
		guidance = "⏳ Please wait - I'm generating your itinerary..."
	default:
		guidance = "🤔 I wasn't expecting text input right now.\n\nUse /plan to start over or /help for guidance."
	}
	e.send(ctx, ev.ChatID, guidance, nil)
}

func (e *Engine) handleHotelInput(ctx context.Context, ev Event, session *store.Session) {
	e.send(ctx, ev.ChatID, "🔍 Looking up your hotel...", nil)

	info, err := e.planner.ParseHotel(ctx, ev.Text)
	if err != nil {
		// Stay in the hotel step so the user can simply type again.
		e.logger.Error("flow", "hotel parse failed", map[string]interface{}{"error": err.Error()})
		e.send(ctx, ev.ChatID,
			"❌ I had trouble understanding that hotel.\n"+
				"The AI service may be temporarily unavailable.\n\n"+
				"Please try typing the hotel name again, or use /plan to restart.", nil)
		return
	}

	session.Hotel = info
	session.State = store.StateConfirmingHotel

	e.send(ctx, ev.ChatID, fmt.Sprintf(
		"🔍 Got it! I found:\n\n<b>%s</b>\n📍 Area: %s%s\n\nIs this correct?",
		escapeHTML(info.Name), escapeHTML(info.Area), confidenceCaption(info.Confidence)),
		confirmKeyboard())
}

// === Step starters ===

func (e *Engine) startHotelInput(ctx context.Context, session *store.Session) {
	session.State = store.StateWaitingForHotel

	e.send(ctx, session.ChatID, fmt.Sprintf(
		"🏨 <b>Where are you staying in %s?</b>\n\n"+
			"Please type your hotel name or address.\n"+
			"<i>(e.g., \"Bintan Lagoon Resort\" or \"Four Points by Sheraton\")</i>",
		escapeHTML(e.cfg.Trip.Place)), nil)
}

func (e *Engine) startDaysSelection(ctx context.Context, session *store.Session) {
	session.State = store.StateSelectingDays

	e.send(ctx, session.ChatID, fmt.Sprintf(
		"📅 <b>How many days in %s?</b>\n\n"+
			"Select the number of days for your itinerary:\n"+
			"<i>(This will determine how many activities and eateries I recommend)</i>",
		escapeHTML(e.cfg.Trip.Place)), daysKeyboard())
}

func (e *Engine) startActivitySelection(ctx context.Context, session *store.Session) {
	count := config.ActivityRecommendationCount(session.NumDays)

	e.send(ctx, session.ChatID, fmt.Sprintf(
		"🔎 Searching for kid-friendly activities...\n"+
			"<i>(Looking for %d options based on your %d-day trip)</i>",
		count, session.NumDays), nil)

	candidates, err := e.planner.SearchActivities(ctx, count)
	if err != nil {
		e.reportRoundFailure(ctx, session.ChatID, "activities", err)
		return
	}
	if len(candidates) == 0 {
		e.send(ctx, session.ChatID, fmt.Sprintf(
			"😕 I couldn't find any activities in %s.\nThis might be a temporary issue.\n\n"+
				"Please try /plan again in a few moments.", escapeHTML(e.cfg.Trip.Place)), nil)
		return
	}

	session.SetCandidates(store.KindActivity, candidates)
	session.State = store.StateSelectingActivities

	header := recommendationHeader(candidates, store.KindActivity, e.cfg.Trip.Place, session.NumDays)
	e.send(ctx, session.ChatID, header, voteKeyboard(session, store.KindActivity, 0))
}

func (e *Engine) startFoodSelection(ctx context.Context, session *store.Session) {
	count := config.FoodRecommendationCount(session.NumDays)

	e.send(ctx, session.ChatID, fmt.Sprintf(
		"🔎 Now searching for eateries...\n"+
			"<i>(Looking for %d options for your %d days of meals)</i>",
		count, session.NumDays), nil)

	candidates, err := e.planner.SearchEateries(ctx, count)
	if err != nil {
		e.reportRoundFailure(ctx, session.ChatID, "eateries", err)
		return
	}
	if len(candidates) == 0 {
		e.send(ctx, session.ChatID, fmt.Sprintf(
			"😕 I couldn't find any eateries in %s.\nThis might be a temporary issue.\n\n"+
				"Please try /plan again in a few moments.", escapeHTML(e.cfg.Trip.Place)), nil)
		return
	}

	session.SetCandidates(store.KindEatery, candidates)
	session.State = store.StateSelectingFood

	header := recommendationHeader(candidates, store.KindEatery, e.cfg.Trip.Place, session.NumDays)
	e.send(ctx, session.ChatID, header, voteKeyboard(session, store.KindEatery, 0))
}

func (e *Engine) startGeneration(ctx context.Context, session *store.Session) {
	session.State = store.StateGenerating

	hotelName, hotelArea := hotelFields(session)
	status := e.send(ctx, session.ChatID, fmt.Sprintf(
		"⏳ <b>Generating your personalized itinerary...</b>\n\n"+
			"I'm considering:\n"+
			"• %d activities selected\n"+
			"• %d eateries selected\n"+
			"• Your hotel location (%s)\n"+
			"• Travel times between locations\n\n"+
			"<i>This may take a moment. LLM is thinking...</i>",
		session.ActivityVotes.Total(), session.EateryVotes.Total(), escapeHTML(hotelArea)), nil)

	activities := planner.Prioritized(session, store.KindActivity)
	eateries := planner.Prioritized(session, store.KindEatery)

	itinerary, err := e.planner.GenerateItinerary(ctx,
		activities, eateries,
		hotelName, hotelArea,
		session.NumDays,
		planner.VoteCountsByName(session, store.KindActivity),
		planner.VoteCountsByName(session, store.KindEatery),
	)
	if err != nil {
		// Roll back one step; votes survive so a retry needs no re-voting.
		e.logger.Error("flow", "itinerary generation failed", map[string]interface{}{"error": err.Error()})
		session.State = store.StateSelectingFood
		e.send(ctx, session.ChatID,
			"❌ Sorry, I had trouble generating your itinerary.\n"+
				"The AI service may be temporarily unavailable.\n\n"+
				"Please try selecting eateries again or use /plan to start over.", nil)
		return
	}

	session.Itinerary = itinerary
	session.State = store.StateReviewingItinerary

	if status != nil {
		// Advisory cleanup; a stuck status message is harmless.
		if err := e.transport.DeleteMessage(ctx, session.ChatID, status.MessageID); err != nil {
			e.logger.Debug("flow", "status message delete failed", map[string]interface{}{"error": err.Error()})
		}
	}

	e.sendItinerary(ctx, session.ChatID, itinerary)
}

// reportRoundFailure surfaces a search/extraction failure without
// advancing the step, so the user can retry from where they are.
func (e *Engine) reportRoundFailure(ctx context.Context, chatID int64, what string, err error) {
	e.logger.Error("flow", "round failed", map[string]interface{}{"round": what, "error": err.Error()})

	var searchErr *planner.SearchError
	if errors.As(err, &searchErr) {
		e.send(ctx, chatID, fmt.Sprintf(
			"❌ Sorry, I couldn't search for %s right now.\n"+
				"The search service may be temporarily unavailable.\n\n"+
				"Please try again with /plan in a few moments.", what), nil)
		return
	}
	e.send(ctx, chatID, fmt.Sprintf(
		"❌ Sorry, I had trouble processing the %s search results.\n"+
			"The AI service may be temporarily unavailable.\n\n"+
			"Please try again with /plan in a few moments.", what), nil)
}

// === Callback handlers (step guards already applied by dispatch) ===

func (e *Engine) handleHotelConfirmation(ctx context.Context, ev Event, session *store.Session) {
	e.answer(ctx, ev, "", false)

	if ev.Payload == payloadHotelNo {
		session.Hotel = nil
		session.State = store.StateWaitingForHotel
		e.edit(ctx, ev, fmt.Sprintf(
			"No problem! Let's try again.\n\n🏨 <b>Where are you staying in %s?</b>\n\n"+
				"Please type your hotel name or address.", escapeHTML(e.cfg.Trip.Place)), nil)
		return
	}

	hotelName, hotelArea := hotelFields(session)
	e.edit(ctx, ev, fmt.Sprintf(
		"✅ <b>Hotel Confirmed!</b>\n🏨 %s (%s)\n\nGreat! Now let's figure out your trip duration...",
		escapeHTML(hotelName), escapeHTML(hotelArea)), nil)

	e.startDaysSelection(ctx, session)
}

func (e *Engine) handleDaysSelection(ctx context.Context, ev Event, session *store.Session) {
	numDays, err := strconv.Atoi(strings.TrimPrefix(ev.Payload, payloadDays))
	if err != nil || numDays < 1 || numDays > 5 {
		e.answer(ctx, ev, "Unknown action", true)
		return
	}
	e.answer(ctx, ev, "", false)

	session.NumDays = numDays

	dayWord := "days"
	if numDays == 1 {
		dayWord = "day"
	}
	e.edit(ctx, ev, fmt.Sprintf(
		"✅ <b>Trip Duration:</b> %d %s\n\n"+
			"Perfect! I'll show you:\n"+
			"• ~%d activities to choose from\n"+
			"• ~%d eateries for your meals\n\n"+
			"Let's find some fun activities!",
		numDays, dayWord,
		config.ActivityRecommendationCount(numDays),
		config.FoodRecommendationCount(numDays)), nil)

	e.startActivitySelection(ctx, session)
}

// handleVote toggles one (candidate, voter) vote and refreshes the
// round message in place with the new counts.
func (e *Engine) handleVote(ctx context.Context, ev Event, session *store.Session) {
	parts := strings.SplitN(ev.Payload, "_", 3)
	if len(parts) != 3 {
		e.answer(ctx, ev, "Unknown action", true)
		return
	}
	action, code, itemID := parts[0], parts[1], parts[2]

	kind := store.KindActivity
	if code == "fod" {
		kind = store.KindEatery
	}

	ledger := session.Votes(kind)
	if action == "sel" {
		ledger.Add(itemID, ev.UserID)
		e.answer(ctx, ev, "✅ Vote added!", false)
	} else {
		ledger.Remove(itemID, ev.UserID)
		e.answer(ctx, ev, "Vote removed", false)
	}

	header := recommendationHeader(session.Candidates(kind), kind, e.cfg.Trip.Place, session.NumDays)
	err := e.transport.EditMessageText(ctx, telegram.EditMessageParams{
		ChatID:                ev.ChatID,
		MessageID:             ev.MessageID,
		Text:                  header,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           voteKeyboard(session, kind, ev.UserID),
	})
	if err != nil && !telegram.IsNotModified(err) {
		e.logger.Error("flow", "vote message update failed", map[string]interface{}{"error": err.Error()})
	}
}

func (e *Engine) handleDoneActivities(ctx context.Context, ev Event, session *store.Session) {
	e.answer(ctx, ev, "", false)

	defaultCount := config.DefaultSelectionCount(session.NumDays, string(store.KindActivity))
	applied, names := planner.ApplyDefaults(session, store.KindActivity, defaultCount)

	var summary string
	if applied > 0 {
		e.logger.Info("flow", "applied default activity selections", map[string]interface{}{"count": applied})
		summary = fmt.Sprintf(
			"ℹ️ <b>No activities selected!</b>\nI've picked %d popular options for you:\n%s\n\n",
			applied, escapeHTML(strings.Join(names, ", ")))
	} else {
		summary = fmt.Sprintf("✅ <b>Activities Selected:</b>\n%s\n\n",
			selectionSummary(session, store.KindActivity))
	}

	e.edit(ctx, ev, summary+"Now let's pick some places to eat!", nil)
	e.startFoodSelection(ctx, session)
}

func (e *Engine) handleDoneFood(ctx context.Context, ev Event, session *store.Session) {
	e.answer(ctx, ev, "", false)

	defaultCount := config.DefaultSelectionCount(session.NumDays, string(store.KindEatery))
	applied, names := planner.ApplyDefaults(session, store.KindEatery, defaultCount)

	var summary string
	if applied > 0 {
		e.logger.Info("flow", "applied default eatery selections", map[string]interface{}{"count": applied})
		summary = fmt.Sprintf(
			"ℹ️ <b>No eateries selected!</b>\nI've picked %d popular options for you:\n%s\n\n",
			applied, escapeHTML(strings.Join(names, ", ")))
	} else {
		summary = fmt.Sprintf("✅ <b>Eateries Selected:</b>\n%s\n\n",
			selectionSummary(session, store.KindEatery))
	}

	hotelName, _ := hotelFields(session)
	e.edit(ctx, ev, summary+fmt.Sprintf(
		"<b>Your Trip Summary:</b>\n"+
			"• 📅 Duration: %d days\n"+
			"• 🏨 Hotel: %s\n"+
			"• 🎯 Activities: %d selected\n"+
			"• 🍽️ Eateries: %d selected\n\n"+
			"Now generating your personalized itinerary!",
		session.NumDays, escapeHTML(hotelName),
		session.ActivityVotes.Total(), session.EateryVotes.Total()), nil)

	e.startGeneration(ctx, session)
}

func (e *Engine) handleItineraryAction(ctx context.Context, ev Event, session *store.Session) {
	e.answer(ctx, ev, "", false)

	if ev.Payload == payloadItinRegen {
		e.edit(ctx, ev,
			"🔄 <b>Regenerating your itinerary...</b>\n\n<i>Creating a fresh plan for your trip...</i>", nil)
		// Same finalized selections, new generation.
		e.startGeneration(ctx, session)
		return
	}

	session.State = store.StateIdle

	// Detach the buttons from the accepted itinerary; best effort.
	if err := e.transport.EditMessageReplyMarkup(ctx, ev.ChatID, ev.MessageID, nil); err != nil {
		e.logger.Debug("flow", "markup removal failed", map[string]interface{}{"error": err.Error()})
	}

	e.send(ctx, ev.ChatID, fmt.Sprintf(
		"🎉 <b>Perfect! Your itinerary is ready.</b>\n\n"+
			"Have a wonderful trip to %s! 🏝️\n\n"+
			"💡 <b>Tips:</b>\n"+
			"• Screenshot or copy the itinerary above\n"+
			"• Use /plan anytime to create a new trip\n"+
			"• Use /help if you need assistance\n\n"+
			"<i>Safe travels! 👋</i>", escapeHTML(e.cfg.Trip.Place)), nil)
}

// === Outbound helpers ===

// send delivers an HTML message, returning the sent message when the
// transport accepted it. Send failures are logged; the flow continues.
func (e *Engine) send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) *telegram.Message {
	msg, err := e.transport.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
	if err != nil {
		e.logger.Error("flow", "send failed", map[string]interface{}{"chat_id": chatID, "error": err.Error()})
		return nil
	}
	return msg
}

// edit rewrites the message the tapped keyboard hangs off.
func (e *Engine) edit(ctx context.Context, ev Event, text string, markup *telegram.InlineKeyboardMarkup) {
	err := e.transport.EditMessageText(ctx, telegram.EditMessageParams{
		ChatID:                ev.ChatID,
		MessageID:             ev.MessageID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
	if err != nil && !telegram.IsNotModified(err) {
		e.logger.Error("flow", "edit failed", map[string]interface{}{"chat_id": ev.ChatID, "error": err.Error()})
	}
}

// sendItinerary delivers the generated plan, chunked to the transport
// limit. Only the final chunk carries the review buttons.
func (e *Engine) sendItinerary(ctx context.Context, chatID int64, itinerary string) {
	chunks := utils.SplitChunks(itinerary, e.cfg.Trip.MaxChunkLen)

	for i, chunk := range chunks {
		var markup *telegram.InlineKeyboardMarkup
		if i == len(chunks)-1 {
			markup = itineraryKeyboard()
		}
		// Plain text: generated itineraries carry no markup.
		_, err := e.transport.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:                chatID,
			Text:                  chunk,
			DisableWebPagePreview: true,
			ReplyMarkup:           markup,
		})
		if err != nil {
			e.logger.Error("flow", "itinerary chunk send failed", map[string]interface{}{
				"chunk": i + 1, "total": len(chunks), "error": err.Error(),
			})
		}
	}
}

func hotelFields(session *store.Session) (name, area string) {
	if session.Hotel == nil {
		return "Unknown", "Unknown"
	}
	return session.Hotel.Name, session.Hotel.Area
}
