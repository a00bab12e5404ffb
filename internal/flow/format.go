package flow

import (
	"fmt"
	"strings"

	"ai-tripplanner-bot/pkg/planner"
	"ai-tripplanner-bot/pkg/store"
)

// escapeHTML neutralizes markup-significant characters in candidate
// text. Candidate fields come from search results processed by a
// generator, so they are untrusted and must not corrupt message markup.
func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// recommendationHeader renders the voting-round message: title plus the
// numbered candidate list with details.
func recommendationHeader(items []store.Candidate, kind store.CandidateKind, place string, numDays int) string {
	daysText := ""
	if numDays > 0 {
		daysText = fmt.Sprintf(" (for your %d-day trip)", numDays)
	}

	var b strings.Builder
	if kind == store.KindActivity {
		fmt.Fprintf(&b, "🎉 <b>Kid-Friendly Activities in %s</b> 🎉\n\n", escapeHTML(place))
		fmt.Fprintf(&b, "Found %d activities%s! Tap to vote:\n\n", len(items), daysText)
		for i, c := range items {
			fmt.Fprintf(&b, "<b>%d. %s</b>\n📍 %s | 📅 %s\n<i>%s</i>\n🔗 %s\n\n",
				i+1, escapeHTML(c.Name), escapeHTML(c.Location), escapeHTML(c.TimeInfo),
				escapeHTML(c.Description), c.URL)
		}
		b.WriteString("👆 <b>Select activities above, then tap 'Done'</b>\n")
	} else {
		fmt.Fprintf(&b, "🍽️ <b>Halal Dining/Cafe Options in %s</b> 🍽️\n\n", escapeHTML(place))
		fmt.Fprintf(&b, "Found %d eateries%s! Tap to vote:\n\n", len(items), daysText)
		for i, c := range items {
			fmt.Fprintf(&b, "<b>%d. %s</b>\n📍 %s | 🍴 %s\n<i>%s</i>\n🔗 %s\n\n",
				i+1, escapeHTML(c.Name), escapeHTML(c.Location), escapeHTML(c.Cuisine),
				escapeHTML(c.Description), c.URL)
		}
		b.WriteString("👆 <b>Select eateries above, then tap 'Done'</b>\n")
	}
	b.WriteString("💡 <i>In group chats, everyone can vote!</i>")
	return b.String()
}

// selectionSummary lists the finalized picks with their vote weights,
// in rank order.
func selectionSummary(session *store.Session, kind store.CandidateKind) string {
	selected := planner.Prioritized(session, kind)
	if len(selected) == 0 {
		return "None"
	}

	ledger := session.Votes(kind)
	var lines []string
	for _, c := range selected {
		if n := ledger.Count(c.ID); n > 1 {
			lines = append(lines, fmt.Sprintf("• %s (%d votes)", escapeHTML(c.Name), n))
		} else {
			lines = append(lines, fmt.Sprintf("• %s", escapeHTML(c.Name)))
		}
	}
	return strings.Join(lines, "\n")
}

// confidenceCaption adds a disclaimer when the hotel parse was not
// certain.
func confidenceCaption(confidence string) string {
	switch confidence {
	case store.ConfidenceMedium:
		return "\n<i>(I'm fairly confident about this)</i>"
	case store.ConfidenceLow:
		return "\n<i>(I'm not entirely sure - please verify)</i>"
	default:
		return ""
	}
}
