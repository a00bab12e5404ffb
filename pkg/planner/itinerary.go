package planner

import (
	"context"
	"fmt"
	"strings"

	"ai-tripplanner-bot/pkg/llm"
	"ai-tripplanner-bot/pkg/store"
)

// GenerateItinerary produces the day-by-day plan from the finalized
// selections. Items arrive in priority order; vote counts annotate the
// prompt so the model schedules popular picks first.
func (s *Service) GenerateItinerary(
	ctx context.Context,
	activities []store.Candidate,
	eateries []store.Candidate,
	hotelName string,
	hotelArea string,
	numDays int,
	activityVotes map[string]int,
	eateryVotes map[string]int,
) (string, error) {
	s.logger.Info("planner", "generating itinerary", map[string]interface{}{
		"days":       numDays,
		"activities": len(activities),
		"eateries":   len(eateries),
	})

	activitiesText := selectionBlock(activities, activityVotes, false)
	if activitiesText == "" {
		activitiesText = fmt.Sprintf(
			"No specific activities selected - suggest popular kid-friendly options in %s.", s.place)
	}
	eateriesText := selectionBlock(eateries, eateryVotes, true)
	if eateriesText == "" {
		eateriesText = "No specific eateries selected - suggest halal-friendly options near activities."
	}

	prompt := s.itineraryPrompt(activitiesText, eateriesText, hotelName, hotelArea, numDays)

	content, err := s.provider.Generate(ctx, prompt, llm.WithMaxTokens(2500))
	if err != nil {
		return "", &GenerationError{Op: "itinerary", Err: err}
	}

	content = StripThinking(content)
	s.logger.Info("planner", "itinerary generated", map[string]interface{}{"chars": len(content)})
	return content, nil
}

// selectionBlock renders a priority-ordered candidate list for the
// prompt, tagging each line with its vote weight.
func selectionBlock(items []store.Candidate, votes map[string]int, eatery bool) string {
	var b strings.Builder
	for i, item := range items {
		voteInfo := ""
		switch n := votes[item.Name]; {
		case n > 1:
			voteInfo = fmt.Sprintf(" [%d votes - high priority]", n)
		case n == 1:
			voteInfo = " [1 vote]"
		}

		detail := "Hours: " + item.TimeInfo
		if eatery {
			detail = "Cuisine: " + item.Cuisine
		}
		fmt.Fprintf(&b, "%d. %s%s\n   Location: %s\n   %s\n   Description: %s\n\n",
			i+1, item.Name, voteInfo, item.Location, detail, item.Description)
	}
	return b.String()
}

func (s *Service) itineraryPrompt(activitiesText, eateriesText, hotelName, hotelArea string, numDays int) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a family travel planner creating a detailed %[1]d-day itinerary for %[2]s.

HOTEL INFORMATION:
- Hotel: %[3]s
- Area: %[4]s

SELECTED ACTIVITIES (in priority order - items with more votes should be scheduled first):
%[5]s

SELECTED EATERIES (in priority order - items with more votes should be used first):
%[6]s

IMPORTANT SCHEDULING RULES:

**Day 1 (Arrival Day) - Special Schedule:**
- ~12:00 PM: Arrive at hotel, drop bags
- 12:30-2:00 PM: Lunch at nearby eatery
- 2:00-3:00 PM: Explore nearby area / wait for check-in
- 3:00 PM: Hotel check-in
- 3:00-4:30 PM: Rest and settle in
- 4:30-6:00 PM: Beach/pool at hotel
- 6:00-7:00 PM: Freshen up
- 7:30 PM+: Dinner

**Day 2 onwards (Normal Schedule):**
- 8:00-9:30 AM: Breakfast at hotel
- 9:30-10:00 AM: Prepare and travel to activity
- 10:00 AM-1:00 PM: Morning activity
- 1:00-2:00 PM: Lunch (MUST be near morning activity location!)
- 2:00-2:30 PM: Travel back to hotel
- 2:30-4:30 PM: Nap time (2 hours - critical for young kids!)
- 4:30-6:00 PM: Beach/pool at hotel
- 6:00-7:00 PM: Freshen up
- 7:30 PM+: Dinner

GENERATION RULES:
1. Schedule higher-priority items (more votes) on earlier/better days
2. If more activities than available days, prioritize by vote count
3. Cluster activities geographically to minimize travel time
4. Match lunch spots to morning activity locations
5. Include transport method AND estimated cost for each trip
6. Use "Day 1", "Day 2" format - NOT specific dates
7. Keep family-friendly pace - no rushing

FORMAT YOUR RESPONSE EXACTLY LIKE THIS (use plain text, no markdown):

================================================
DAY 1 - Arrival Day
================================================

12:00 PM | Arrive at Hotel
   %[3]s
   Drop bags at reception

12:30-2:00 PM | Lunch
   [Restaurant Name]
   Location: [Area]
   Cuisine: [Type]
   Transport: [How to get there from hotel + cost]

... continue with rest of day ...

================================================
DAY 2
================================================

8:00-9:30 AM | Breakfast
   %[3]s

... continue for remaining days ...

Keep response under 2800 characters total. Be concise but complete.

/no_think`, numDays, s.place, hotelName, hotelArea, activitiesText, eateriesText))
}
