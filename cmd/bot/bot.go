package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/abelzeko/plant-manager/internal/api"
	"github.com/abelzeko/plant-manager/internal/config"
	"github.com/abelzeko/plant-manager/internal/integration"
	"github.com/abelzeko/plant-manager/internal/integration/openai"
	"github.com/abelzeko/plant-manager/internal/logger"
	"github.com/abelzeko/plant-manager/internal/metrics"
	"github.com/abelzeko/plant-manager/internal/repository"
	"github.com/abelzeko/plant-manager/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatal(err)
	}

	sugar, err := logger.New(cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer sugar.Sync()
	sugar.Info("Starting Plant Manager bot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := repository.NewSQLiteKVStorage(cfg.DBPath)
	if err != nil {
		sugar.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storage.Close()

	location, _ := cfg.Location()
	m := metrics.New()
	opts := []usecases.Option{
		usecases.WithLocale(cfg.Language()),
		usecases.WithLocation(location),
		usecases.WithMetrics(m),
	}

	// Free-text interpretation is optional
	openAIService, err := openai.NewOpenAIService(cfg.OpenAIKey)
	switch {
	case err == nil:
		opts = append(opts, usecases.WithOpenAI(openAIService))
	case errors.Is(err, openai.ErrMissingAPIKey):
		sugar.Info("OPENAI_API_KEY not set, free-text messages get the help hint")
	default:
		sugar.Fatalf("Failed to initialize OpenAI service: %v", err)
	}

	useCase := usecases.NewPlantUseCase(
		repository.NewPlantStore(storage),
		repository.NewUserStore(storage),
		integration.NewCatalogClient(cfg.CatalogURL),
		opts...,
	)

	telegramBot, err := api.NewTelegramBot(cfg.TelegramToken, cfg.OwnerChatID, useCase)
	if err != nil {
		sugar.Fatalf("Failed to initialize Telegram bot: %v", err)
	}
	notifier := api.NewTelegramNotifier(telegramBot.API(), cfg.OwnerChatID)

	if cfg.MetricsAddr != "" {
		go func() {
			sugar.Infof("Serving metrics on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, m.Handler()); err != nil {
				sugar.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	dispatch := func() {
		if _, err := useCase.DispatchDueReminders(ctx, notifier); err != nil {
			zap.S().Errorf("Reminder run failed: %v", err)
		}
	}

	// Catch up on reminders that fell due while the bot was down
	dispatch()

	c, err := newReminderCron(cfg.ReminderSchedule, dispatch)
	if err != nil {
		sugar.Fatalf("Failed to set up cron job: %v", err)
	}
	sugar.Infof("Reminders scheduled with %q", cfg.ReminderSchedule)
	c.Start()
	defer c.Stop()

	telegramBot.Start(ctx)
	sugar.Info("Shutting down")
}
