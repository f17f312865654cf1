package main

import (
	"context"
	"os"
	"os/user"
	"time"

	"github.com/charmbracelet/log"

	"chomper/internal/config"
	"chomper/internal/repository"
	"chomper/internal/service"
	"chomper/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", "error", err)
	}

	// The TUI owns the terminal, so the log goes to a file.
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o666)
	if err != nil {
		log.Fatal("open log file", "error", err)
	}
	defer f.Close() //nolint:errcheck
	logger := newLogger(cfg.LogLevel, f)
	logger.Info("loaded config", "db", cfg.DatabaseURL)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	taskSvc := service.NewTaskService(taskRepo)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	owner, err := userRepo.UpsertLocal(ctx, localUsername())
	if err != nil {
		logger.Error("resolve local user", "error", err)
		os.Exit(1)
	}

	if err := ui.Run(taskSvc, owner, logger); err != nil {
		logger.Error("ui stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string, f *os.File) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(f, log.Options{Level: lvl})
}

func localUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}
