package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings shared by both front ends.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	LogLevel      string
	LogPath       string
	AgendaTime    string // HH:MM, local time
}

// Load reads configuration from a .env file (if present) and the environment.
// The Telegram token is only needed by the bot binary, so Load does not
// require it; the bot checks for it itself.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("CHOMPER_TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("CHOMPER_DB_URL")),
		LogLevel:      strings.TrimSpace(os.Getenv("CHOMPER_LOG_LEVEL")),
		LogPath:       strings.TrimSpace(os.Getenv("CHOMPER_LOG_PATH")),
		AgendaTime:    strings.TrimSpace(os.Getenv("CHOMPER_AGENDA_TIME")),
	}

	home, _ := os.UserHomeDir()
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = filepath.Join(home, ".chomper", "chomper.db")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(home, ".chomper", "chomper.log")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AgendaTime == "" {
		cfg.AgendaTime = "08:00"
	}

	return cfg, nil
}
