package flow

import (
	"fmt"

	"ai-tripplanner-bot/pkg/store"
	"ai-tripplanner-bot/pkg/telegram"
)

// Button payload vocabulary. These strings are the entire contract
// between taps and the dispatch table and must stay stable.
const (
	payloadHotelYes  = "htl_yes"
	payloadHotelNo   = "htl_no"
	payloadDays      = "days_" // days_<N>
	payloadSelect    = "sel_"  // sel_<kind>_<id>
	payloadDeselect  = "des_"  // des_<kind>_<id>
	payloadDoneAct   = "done_act"
	payloadDoneFood  = "done_fod"
	payloadItinRegen = "itin_regen"
	payloadItinOK    = "itin_ok"
)

const buttonTextMaxLen = 40

// kindCode maps a candidate kind to its payload segment.
func kindCode(kind store.CandidateKind) string {
	if kind == store.KindActivity {
		return "act"
	}
	return "fod"
}

// voteKeyboard builds toggle buttons for a voting round. Each button
// shows a checkmark when the viewing user has voted for the item and
// the live vote count when anyone has.
func voteKeyboard(session *store.Session, kind store.CandidateKind, viewerID int64) *telegram.InlineKeyboardMarkup {
	ledger := session.Votes(kind)
	code := kindCode(kind)

	var rows [][]telegram.InlineKeyboardButton
	for _, c := range session.Candidates(kind) {
		voted := ledger.Has(c.ID, viewerID)

		icon := "⬜"
		prefix := payloadSelect
		if voted {
			icon = "✅"
			prefix = payloadDeselect
		}

		text := fmt.Sprintf("%s %s", icon, c.Name)
		if n := ledger.Count(c.ID); n > 0 {
			text = fmt.Sprintf("%s %s (%d)", icon, c.Name, n)
		}
		text = truncateButton(text)

		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         text,
			CallbackData: fmt.Sprintf("%s%s_%s", prefix, code, c.ID),
		}})
	}

	doneText := "➡️ Done Selecting Activities"
	donePayload := payloadDoneAct
	if kind == store.KindEatery {
		doneText = "➡️ Done Selecting Eateries"
		donePayload = payloadDoneFood
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{Text: doneText, CallbackData: donePayload}})

	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func truncateButton(text string) string {
	runes := []rune(text)
	if len(runes) <= buttonTextMaxLen {
		return text
	}
	return string(runes[:buttonTextMaxLen-3]) + "..."
}

// daysKeyboard offers trip lengths 1-5 in a single row.
func daysKeyboard() *telegram.InlineKeyboardMarkup {
	row := make([]telegram.InlineKeyboardButton, 0, 5)
	for i := 1; i <= 5; i++ {
		label := fmt.Sprintf("%d Days", i)
		if i == 1 {
			label = "1 Day"
		}
		row = append(row, telegram.InlineKeyboardButton{
			Text:         label,
			CallbackData: fmt.Sprintf("%s%d", payloadDays, i),
		})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{row}}
}

// confirmKeyboard is the hotel yes/no prompt.
func confirmKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{Text: "✅ Yes", CallbackData: payloadHotelYes},
		{Text: "❌ No, let me re-enter", CallbackData: payloadHotelNo},
	}}}
}

// itineraryKeyboard is attached to the final itinerary chunk only.
func itineraryKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{Text: "🔄 Regenerate", CallbackData: payloadItinRegen},
		{Text: "✅ Looks good!", CallbackData: payloadItinOK},
	}}}
}
