package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ai-tripplanner-bot/pkg/llm"
	"ai-tripplanner-bot/pkg/store"
)

var jsonObjectRe = regexp.MustCompile(`\{[^}]+\}`)

type hotelReply struct {
	Name       string `json:"name"`
	Area       string `json:"area"`
	Confidence string `json:"confidence"`
}

// ParseHotel asks the LLM to identify the hotel name and area from the
// user's free text. This is the one place approximate recovery beats
// failure: when the model replies but its output is unusable, the raw
// input is echoed back at low confidence instead of re-prompting. Only
// a failed provider call returns an error.
func (s *Service) ParseHotel(ctx context.Context, userInput string) (*store.HotelInfo, error) {
	s.logger.Info("planner", "parsing hotel input", map[string]interface{}{"input": userInput})

	content, err := s.provider.Generate(ctx, s.hotelPrompt(userInput), llm.WithMaxTokens(200))
	if err != nil {
		return nil, &GenerationError{Op: "hotel parse", Err: err}
	}

	content = StripThinking(content)
	if match := jsonObjectRe.FindString(content); match != "" {
		content = match
	}

	var reply hotelReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		s.logger.Warn("planner", "hotel reply was not valid JSON", map[string]interface{}{"error": err.Error()})
		return fallbackHotel(userInput), nil
	}

	info := &store.HotelInfo{
		RawInput:   userInput,
		Name:       reply.Name,
		Area:       reply.Area,
		Confidence: reply.Confidence,
	}
	if info.Name == "" {
		info.Name = titleCase(userInput)
	}
	if info.Area == "" {
		info.Area = "Unknown"
	}
	switch info.Confidence {
	case store.ConfidenceHigh, store.ConfidenceMedium, store.ConfidenceLow:
	default:
		info.Confidence = store.ConfidenceLow
	}

	s.logger.Info("planner", "hotel parsed", map[string]interface{}{
		"name":       info.Name,
		"area":       info.Area,
		"confidence": info.Confidence,
	})
	return info, nil
}

func fallbackHotel(userInput string) *store.HotelInfo {
	return &store.HotelInfo{
		RawInput:   userInput,
		Name:       titleCase(userInput),
		Area:       "Unknown",
		Confidence: store.ConfidenceLow,
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

func (s *Service) hotelPrompt(userInput string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a travel assistant helping identify hotels in %[1]s.

The user entered: "%[2]s"

Your task:
1. Identify the most likely hotel name from the input
2. Determine which area/neighborhood of %[1]s this hotel is located in
3. Rate your confidence (high/medium/low)

Use your knowledge of %[1]s's geography and hotels. Common areas in %[1]s include resort areas, beach zones, and town centers - use whatever area names are most accurate for this destination.

Respond ONLY with valid JSON in this exact format (no other text):
{"name": "Full Hotel Name", "area": "Area/Neighborhood Name", "confidence": "high"}

Rules:
- "name": The official/common hotel name (capitalize properly)
- "area": The general area or neighborhood (e.g., "Lagoi", "North Coast", "Town Center")
- "confidence":
  - "high" if you're certain about both name and area
  - "medium" if you recognize the hotel but unsure about exact area
  - "low" if you're guessing based on partial information

Examples:
- Input: "bintan lagoon" -> {"name": "Bintan Lagoon Resort", "area": "Lagoi", "confidence": "high"}
- Input: "angsana" -> {"name": "Angsana Bintan", "area": "Lagoi Bay", "confidence": "high"}
- Input: "some random place" -> {"name": "Some Random Place", "area": "Unknown", "confidence": "low"}

/no_think`, s.place, userInput))
}
