package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/internal/flow"
	"ai-tripplanner-bot/internal/pkg/logger"
	"ai-tripplanner-bot/internal/repository/memory"
	"ai-tripplanner-bot/pkg/llm/factory"
	"ai-tripplanner-bot/pkg/planner"
	"ai-tripplanner-bot/pkg/search/tavily"
	"ai-tripplanner-bot/pkg/telegram"
)

type Container struct {
	Logger   logger.ILogger
	Sessions *memory.SessionRepository
	Engine   *flow.Engine
	Poller   *flow.Poller

	// Bus between poller and engine; main.go runs both ends.
	PubSub message.Subscriber
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.ProviderKey(),
	)
	if err != nil {
		log.Panicf("Unable to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	searchProvider := tavily.NewTavilyProvider(cfg.Keys.Tavily)

	// 4. Services
	sessions := memory.NewSessionRepository()
	plannerSvc := planner.NewService(searchProvider, llmProvider, sysLogger, cfg)

	tgClient := telegram.NewClient(cfg.Telegram.BotToken)
	engine := flow.NewEngine(sessions, plannerSvc, tgClient, sysLogger, cfg)
	poller := flow.NewPoller(tgClient, pubSub, sysLogger, cfg.Telegram.PollTimeout)

	return &Container{
		Logger:   sysLogger,
		Sessions: sessions,
		Engine:   engine,
		Poller:   poller,
		PubSub:   pubSub,
	}
}
