package main

import (
	"context"
	"log"

	"github.com/fatih/color"

	"ai-tripplanner-bot/internal/bootstrap"
	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN not set! Create a .env file with your bot token.")
	}

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	ctx := context.Background()

	// 3. Start Background Services
	go func() {
		if err := container.Engine.Consume(ctx, container.PubSub); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	go func() {
		if err := container.Poller.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Background Poller Error: %v", err)
		}
	}()

	color.Green("🤖 %s Trip Planner Bot is running!", cfg.Trip.Place)
	color.Cyan("📍 Destination: %s (%s - %s)", cfg.Trip.Place, cfg.Trip.StartDate, cfg.Trip.EndDate)
	color.Cyan("📋 Flow: Hotel → Days → Activities → Food → Generate")

	// 4. Run Debug Server (blocks)
	srv := server.New(cfg, container.Sessions)
	log.Fatal(srv.Run())
}
