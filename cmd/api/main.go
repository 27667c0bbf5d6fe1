package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/hostops/automation-backend/internal/config"
	"github.com/hostops/automation-backend/internal/events"
	apphttp "github.com/hostops/automation-backend/internal/http"
	"github.com/hostops/automation-backend/internal/http/dto"
	"github.com/hostops/automation-backend/internal/http/handlers"
	"github.com/hostops/automation-backend/internal/middleware"
	"github.com/hostops/automation-backend/internal/services"
	"github.com/hostops/automation-backend/internal/storage"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: snapshot store + broadcast bus
	rdb, err := storage.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	store := storage.NewRedisStore(rdb)
	bus := events.NewRedisBus(rdb, log)

	// Engine
	activity := services.NewActivityLog(store, bus, log)
	if err := activity.Load(ctx); err != nil {
		log.Fatal("failed to load activity log", zap.Error(err))
	}

	dispatcher := services.NewDispatcher(activity, log)
	slack := services.NewSlackNotifier(cfg.SlackWebhookURL, activity, log)
	services.RegisterDefaultEffectors(dispatcher, activity, slack)

	scheduler := services.NewScheduler(dispatcher, activity, services.NewSystemClock(), log)
	orchestrator := services.NewOrchestrator(dispatcher, scheduler, activity, log)

	ruleService := services.NewRuleService(store, bus, orchestrator, activity, log)
	if err := ruleService.Load(ctx); err != nil {
		log.Fatal("failed to load rules", zap.Error(err))
	}

	nlpClient := services.NewNLPClient(cfg, activity, log)

	// Handlers
	ruleHandler := handlers.NewRuleHandler(ruleService, log)
	logHandler := handlers.NewLogHandler(activity, log)
	scheduleHandler := handlers.NewScheduleHandler(scheduler, log)
	metaHandler := handlers.NewMetaHandler()
	statsHandler := handlers.NewStatsHandler(ruleService, scheduler, activity)
	nlpHandler := handlers.NewNLPHandler(nlpClient, activity, log)
	settingsHandler := handlers.NewSettingsHandler(nlpClient, log)
	wsHub := handlers.NewWSHub(bus, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			reqID, _ := c.Locals(middleware.CtxRequestID).(string)
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: reqID})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, ruleHandler, logHandler, scheduleHandler, metaHandler, statsHandler, nlpHandler, settingsHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
