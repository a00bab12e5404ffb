package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/internal/pkg/logger"
	"ai-tripplanner-bot/pkg/llm"
	"ai-tripplanner-bot/pkg/search"
	"ai-tripplanner-bot/pkg/store"
)

const snippetMaxLen = 600

// Service runs the search -> extract -> generate pipeline for one trip
// destination. It owns no session state; callers pass candidates and
// selections in.
type Service struct {
	searcher search.SearchProvider
	provider llm.LLMProvider
	logger   logger.ILogger

	place            string
	startDate        string
	endDate          string
	preferences      []string
	maxSearchResults int
}

func NewService(searcher search.SearchProvider, provider llm.LLMProvider, log logger.ILogger, cfg *config.Config) *Service {
	return &Service{
		searcher:         searcher,
		provider:         provider,
		logger:           log,
		place:            cfg.Trip.Place,
		startDate:        cfg.Trip.StartDate,
		endDate:          cfg.Trip.EndDate,
		preferences:      cfg.Trip.Preferences,
		maxSearchResults: cfg.Trip.MaxSearchResults,
	}
}

var thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes the model's delimited deliberation block so it
// never reaches the line parser or the user.
func StripThinking(content string) string {
	return strings.TrimSpace(thinkBlockRe.ReplaceAllString(content, ""))
}

// SearchActivities finds family-friendly activity candidates: one web
// search, then structured extraction through the LLM. recommendCount
// caps how many candidates come back.
func (s *Service) SearchActivities(ctx context.Context, recommendCount int) ([]store.Candidate, error) {
	s.logger.Info("planner", "searching for activities", map[string]interface{}{"place": s.place})

	query := fmt.Sprintf(
		"kid-friendly events and activities in %s from %s to %s suitable for families with young children",
		s.place, s.startDate, s.endDate,
	)
	results, err := s.searcher.Search(ctx, query, s.maxSearchResults)
	if err != nil {
		return nil, &SearchError{Op: "activities", Err: err}
	}
	if len(results) == 0 {
		s.logger.Warn("planner", "no search results for activities", nil)
		return nil, nil
	}

	prompt := s.activityExtractionPrompt(flattenResults(results), recommendCount)
	content, err := s.provider.Generate(ctx, prompt, llm.WithMaxTokens(1200))
	if err != nil {
		return nil, &GenerationError{Op: "activity extraction", Err: err}
	}

	candidates := parseCandidateLines(content, store.KindActivity, recommendCount)
	s.logger.Info("planner", "parsed activity candidates", map[string]interface{}{"count": len(candidates)})
	return candidates, nil
}

// SearchEateries finds dining candidates the same way.
func (s *Service) SearchEateries(ctx context.Context, recommendCount int) ([]store.Candidate, error) {
	s.logger.Info("planner", "searching for eateries", map[string]interface{}{"place": s.place})

	query := fmt.Sprintf(
		"halal dining options in %s family-friendly restaurants, eateries and cafes",
		s.place,
	)
	results, err := s.searcher.Search(ctx, query, s.maxSearchResults)
	if err != nil {
		return nil, &SearchError{Op: "eateries", Err: err}
	}
	if len(results) == 0 {
		s.logger.Warn("planner", "no search results for eateries", nil)
		return nil, nil
	}

	prompt := s.eateryExtractionPrompt(flattenResults(results), recommendCount)
	content, err := s.provider.Generate(ctx, prompt, llm.WithMaxTokens(1200))
	if err != nil {
		return nil, &GenerationError{Op: "eatery extraction", Err: err}
	}

	candidates := parseCandidateLines(content, store.KindEatery, recommendCount)
	s.logger.Info("planner", "parsed eatery candidates", map[string]interface{}{"count": len(candidates)})
	return candidates, nil
}

// flattenResults renders search snippets into the block of text fed to
// the extraction prompt, truncating oversized snippets.
func flattenResults(results []search.Result) string {
	var b strings.Builder
	for _, r := range results {
		snippet := strings.TrimSpace(r.Content)
		if len([]rune(snippet)) > snippetMaxLen {
			snippet = strings.TrimRight(string([]rune(snippet)[:snippetMaxLen]), " ") + "…"
		}
		fmt.Fprintf(&b, "Title: %s\nURL: %s\nContent: %s\n\n", r.Title, r.URL, snippet)
	}
	return b.String()
}

// parseCandidateLines turns pipe-delimited extraction output into
// candidates. Lines with fewer than five fields are discarded; parsing
// stops once max candidates are collected. IDs are zero-padded line
// indexes, so they are unique within the round only.
func parseCandidateLines(content string, kind store.CandidateKind, max int) []store.Candidate {
	content = StripThinking(content)

	var candidates []store.Candidate
	for idx, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 5 {
			continue
		}

		c := store.Candidate{
			ID:          fmt.Sprintf("%03d", idx+1),
			Name:        strings.TrimSpace(parts[0]),
			Location:    strings.TrimSpace(parts[1]),
			Description: strings.TrimSpace(parts[3]),
			URL:         strings.TrimSpace(parts[4]),
			Kind:        kind,
		}
		if kind == store.KindEatery {
			c.Cuisine = strings.TrimSpace(parts[2])
		} else {
			c.TimeInfo = strings.TrimSpace(parts[2])
		}
		candidates = append(candidates, c)

		if len(candidates) >= max {
			break
		}
	}
	return candidates
}

func (s *Service) activityExtractionPrompt(resultsText string, count int) string {
	low := count - 2
	if low < 1 {
		low = 1
	}
	return strings.TrimSpace(fmt.Sprintf(`
You are extracting kid-friendly activities for families visiting %[1]s from %[2]s to %[3]s.

Here are search results:

%[4]s

Preferences: %[5]s

Extract the top %[6]d-%[7]d most relevant activities. For EACH activity, output EXACTLY this format (one per line, pipe-separated):

NAME|LOCATION|DATE_TIME|DESCRIPTION|URL

Rules:
- NAME: Activity or attraction name (short, clear)
- LOCATION: Area/neighborhood in %[1]s
- DATE_TIME: Operating hours or "Check website"
- DESCRIPTION: One sentence, under 100 chars
- URL: The source URL

Example output:
Treasure Bay Water Park|Lagoi Bay|Daily 9am-6pm|Family water park with kid zones and wave pools.|https://example.com
Mangrove Discovery Tour|Sebung Village|Check website|Boat tour through mangroves to see fireflies.|https://example.com

Output ONLY the pipe-separated lines, nothing else. /no_think`,
		s.place, s.startDate, s.endDate, resultsText, strings.Join(s.preferences, ", "), low, count))
}

func (s *Service) eateryExtractionPrompt(resultsText string, count int) string {
	low := count - 2
	if low < 1 {
		low = 1
	}
	return strings.TrimSpace(fmt.Sprintf(`
You are extracting halal dining options for families visiting %[1]s.

Here are search results:

%[2]s

Extract the top %[3]d-%[4]d most relevant halal-friendly restaurants or cafes. Include at least 1 cafe if it exists in the search results. For EACH place, output EXACTLY this format (one per line, pipe-separated):

NAME|LOCATION|CUISINE|DESCRIPTION|URL

Rules:
- NAME: Restaurant or cafe name
- LOCATION: Area/neighborhood in %[1]s
- CUISINE: Type of food (Indonesian, Malay, Seafood, etc.)
- DESCRIPTION: One sentence, under 100 chars, mention if family-friendly
- URL: The source URL

Example output:
Warung Yeah!|Lagoi Bay|Indonesian|Casual family dining with local favorites and kid menu.|https://example.com
Kelong Seafood|Trikora Beach|Seafood|Fresh halal seafood in a waterfront setting.|https://example.com

Output ONLY the pipe-separated lines, nothing else. /no_think`,
		s.place, resultsText, low, count))
}
