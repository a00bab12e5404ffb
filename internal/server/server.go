package server

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"ai-tripplanner-bot/internal/config"
	"ai-tripplanner-bot/internal/repository/memory"
)

// Server exposes a small debug surface next to the bot: liveness plus a
// dump of the live sessions for poking at vote state during testing.
type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, sessions *memory.SessionRepository) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/debug/sessions", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"sessions": sessions.All()})
	})

	return &Server{app: app, cfg: cfg}
}

func (s *Server) Run() error {
	log.Printf("✅ Debug server is running on http://localhost:%s", s.cfg.App.DebugPort)
	return s.app.Listen(":" + s.cfg.App.DebugPort)
}
