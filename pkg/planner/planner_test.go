package planner

import (
	"context"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/pkg/llm"
	"ai-tripplanner-bot/pkg/search"
)

// Shared test doubles for the pipeline tests.

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
	}
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

type fakeSearch struct {
	results []search.Result
	err     error
}

func (f *fakeSearch) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	return f.results, f.err
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Trip: config.TripConfig{
			Place:            "Bintan",
			StartDate:        "17 December 2025",
			EndDate:          "20 December 2025",
			Preferences:      []string{"family-friendly", "outdoor activities"},
			MaxSearchResults: 5,
			MaxChunkLen:      3500,
		},
	}
}

func testService(searcher search.SearchProvider, provider llm.LLMProvider) *Service {
	return NewService(searcher, provider, nopLogger{}, testConfig())
}
