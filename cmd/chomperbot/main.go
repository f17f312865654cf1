package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"chomper/internal/bot"
	"chomper/internal/config"
	"chomper/internal/repository"
	"chomper/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "error", err)
	}

	logger := newLogger(cfg.LogLevel)

	if cfg.TelegramToken == "" {
		logger.Fatal("CHOMPER_TELEGRAM_TOKEN is required")
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open db", "error", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	reminderSvc := service.NewReminderService(taskRepo)

	chomperBot, err := bot.New(cfg.TelegramToken, userRepo, taskSvc, reminderSvc, logger)
	if err != nil {
		logger.Fatal("create bot", "error", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.AgendaTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := chomperBot.SendDailyAgendas(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("daily agenda", "error", err)
		}
	}); err != nil {
		logger.Fatal("schedule agenda", "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("chomper bot started", "agenda_time", cfg.AgendaTime)
	if err := chomperBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", "error", err)
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{Level: lvl})
}
