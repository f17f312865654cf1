package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CHOMPER_TELEGRAM_TOKEN", "CHOMPER_DB_URL",
		"CHOMPER_LOG_LEVEL", "CHOMPER_LOG_PATH", "CHOMPER_AGENDA_TIME",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "" {
		t.Errorf("token = %q, want unset", cfg.TelegramToken)
	}
	if cfg.DatabaseURL == "" || cfg.LogPath == "" {
		t.Error("db and log paths must get defaults")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.AgendaTime != "08:00" {
		t.Errorf("agenda time = %q, want 08:00", cfg.AgendaTime)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHOMPER_TELEGRAM_TOKEN", " 123:abc ")
	t.Setenv("CHOMPER_DB_URL", "/tmp/x.db")
	t.Setenv("CHOMPER_LOG_LEVEL", "debug")
	t.Setenv("CHOMPER_LOG_PATH", "/tmp/x.log")
	t.Setenv("CHOMPER_AGENDA_TIME", "21:30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "123:abc" {
		t.Errorf("token = %q, want trimmed value", cfg.TelegramToken)
	}
	if cfg.DatabaseURL != "/tmp/x.db" || cfg.LogPath != "/tmp/x.log" {
		t.Errorf("paths = %q / %q", cfg.DatabaseURL, cfg.LogPath)
	}
	if cfg.LogLevel != "debug" || cfg.AgendaTime != "21:30" {
		t.Errorf("level/agenda = %q / %q", cfg.LogLevel, cfg.AgendaTime)
	}
}
