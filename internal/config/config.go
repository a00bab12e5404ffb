package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	Keys     APIKeys
	Ai       AIConfig
	Trip     TripConfig
}

type AppConfig struct {
	DebugPort   string
	Environment string
	LogFilePath string
}

type TelegramConfig struct {
	BotToken    string
	PollTimeout int // seconds, long-polling wait on getUpdates
}

type APIKeys struct {
	Tavily      string
	OpenAI      string
	HuggingFace string
}

type AIConfig struct {
	LLMProvider   string // "ollama", "openai" or "huggingface"
	LLMModel      string // e.g. "qwen3:8b", "gpt-4o-mini"
	OllamaBaseURL string
}

// ProviderKey returns the API key matching the configured LLM provider.
func (c *Config) ProviderKey() string {
	if c.Ai.LLMProvider == "huggingface" {
		return c.Keys.HuggingFace
	}
	return c.Keys.OpenAI
}

type TripConfig struct {
	Place     string
	StartDate string
	EndDate   string

	// Chat participant preferences injected into search/extraction prompts
	Preferences []string

	MaxSearchResults int
	MaxChunkLen      int // stay safely below the transport hard limit
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			DebugPort:   getEnv("DEBUG_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "tripbot.log"),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			PollTimeout: getEnvAsInt("TELEGRAM_POLL_TIMEOUT", 30),
		},
		Keys: APIKeys{
			Tavily:      getEnv("TAVILY_API_KEY", ""),
			OpenAI:      getEnv("OPENAI_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "qwen3:8b"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Trip: TripConfig{
			Place:            getEnv("TRIP_PLACE", "Bintan"),
			StartDate:        getEnv("TRIP_START_DATE", "17 December 2025"),
			EndDate:          getEnv("TRIP_END_DATE", "20 December 2025"),
			Preferences:      getEnvAsList("TRIP_PREFERENCES", defaultPreferences),
			MaxSearchResults: getEnvAsInt("MAX_SEARCH_RESULTS", 15),
			MaxChunkLen:      getEnvAsInt("MAX_CHUNK_LEN", 3500),
		},
	}
}

var defaultPreferences = []string{
	"outdoor activities",
	"low-cost or free",
	"suitable for young children (5-8 years old)",
	"family-friendly",
}

// ActivityRecommendationCount returns how many activity candidates to
// present for a trip length: roughly one morning slot per day with ~2x
// options for voting variety, capped at 10.
func ActivityRecommendationCount(numDays int) int {
	if numDays <= 2 {
		return numDays*2 + 2
	}
	if n := numDays * 2; n < 10 {
		return n
	}
	return 10
}

// FoodRecommendationCount returns how many eatery candidates to present:
// lunch plus dinner per day with a small buffer, capped at 10.
func FoodRecommendationCount(numDays int) int {
	n := numDays*2 + 2
	if n > 10 {
		return 10
	}
	return n
}

// DefaultSelectionCount returns how many candidates to auto-pick when a
// round closes without a single vote.
func DefaultSelectionCount(numDays int, kind string) int {
	if kind == "activity" {
		return clamp(numDays, 2, 4)
	}
	return clamp(numDays*2, 3, 6)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
