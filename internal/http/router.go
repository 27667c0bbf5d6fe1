package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hostops/automation-backend/internal/config"
	"github.com/hostops/automation-backend/internal/http/handlers"
	"github.com/hostops/automation-backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	ruleHandler *handlers.RuleHandler,
	logHandler *handlers.LogHandler,
	scheduleHandler *handlers.ScheduleHandler,
	metaHandler *handlers.MetaHandler,
	statsHandler *handlers.StatsHandler,
	nlpHandler *handlers.NLPHandler,
	settingsHandler *handlers.SettingsHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Catalogs
	api.Get("/meta/triggers", metaHandler.GetTriggers)
	api.Get("/meta/actions", metaHandler.GetActions)

	// Rules
	api.Get("/rules", ruleHandler.ListRules)
	api.Post("/rules", ruleHandler.CreateRule)
	api.Get("/rules/:id", ruleHandler.GetRule)
	api.Put("/rules/:id", ruleHandler.UpdateRule)
	api.Delete("/rules/:id", ruleHandler.DeleteRule)
	api.Post("/rules/:id/toggle", ruleHandler.ToggleRule)

	// Activity log
	api.Get("/logs", logHandler.ListLogs)
	api.Delete("/logs", logHandler.ClearLogs)

	// Pending schedules
	api.Get("/schedules", scheduleHandler.ListSchedules)
	api.Delete("/schedules/:id", scheduleHandler.CancelSchedule)

	// Natural-language rule parsing
	api.Post("/nlp/parse", nlpHandler.Parse)
	api.Get("/settings", settingsHandler.GetSettings)
	api.Put("/settings/nlp-key", settingsHandler.SetNLPKey)

	// Dashboard
	api.Get("/stats", statsHandler.GetStats)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
