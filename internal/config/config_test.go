package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "ADMIN_IDS", "MANAGER_CHAT_ID", "ORDERS_CHANNEL_ID", "MANAGER_TELEGRAM_IDS",
		"GOOGLE_SHEET_ID", "GOOGLE_CREDENTIALS_PATH", "DATABASE_PATH", "STUDIO_NAME",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNewConfigDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram:\n  token: secret\n")

	cfg, err := NewConfig(path)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Quiz.MaxOrdersPerHour != 5 || cfg.Quiz.RateWindow != time.Hour || cfg.Quiz.Budget != "5000" {
		t.Fatalf("quiz = %+v", cfg.Quiz)
	}
	if cfg.Scheduler.ReminderInterval != 30*time.Minute || cfg.Scheduler.ReminderAfter != time.Hour {
		t.Fatalf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.ExportTime != "23:00" || cfg.Session.Backend != "memory" {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "data/bot.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
}

func TestNewConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  token: secret
  admin_ids: [1, 2]
quiz:
  max_orders_per_hour: 3
scheduler:
  timezone: Europe/Moscow
  reminder_interval: 10m
  export_time: "21:30"
notifications:
  manager_emails: [sales@example.com]
`)

	cfg, err := NewConfig(path)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if len(cfg.Telegram.AdminIDs) != 2 || cfg.Quiz.MaxOrdersPerHour != 3 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Scheduler.ReminderInterval != 10*time.Minute || cfg.Scheduler.ExportTime != "21:30" {
		t.Fatalf("scheduler = %+v", cfg.Scheduler)
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Moscow" {
		t.Fatalf("Location = %v, %v", loc, err)
	}
}

func TestNewConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_IDS", "10, 20,")
	t.Setenv("MANAGER_TELEGRAM_IDS", "30")
	t.Setenv("ORDERS_CHANNEL_ID", "@orders")

	cfg, err := NewConfig(writeConfig(t, "telegram:\n  token: from-file\n"))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if len(cfg.Telegram.AdminIDs) != 2 || cfg.Telegram.AdminIDs[1] != 20 {
		t.Fatalf("admin ids = %v", cfg.Telegram.AdminIDs)
	}
	if len(cfg.Notifications.ManagerIDs) != 1 || cfg.Notifications.OrdersChannelID != "@orders" {
		t.Fatalf("notifications = %+v", cfg.Notifications)
	}
}

func TestNewConfigValidation(t *testing.T) {
	tests := map[string]string{
		"no token":        "telegram:\n  token: \"\"\n",
		"bad driver":      "telegram:\n  token: x\ndatabase:\n  driver: mysql\n",
		"bad backend":     "telegram:\n  token: x\nsession:\n  backend: file\n",
		"bad export time": "telegram:\n  token: x\nscheduler:\n  export_time: \"25:99\"\n",
		"bad email":       "telegram:\n  token: x\nnotifications:\n  manager_emails: [nope]\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := NewConfig(writeConfig(t, body)); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList(" 1,2 ,,3")
	if err != nil || len(ids) != 3 || ids[2] != 3 {
		t.Fatalf("ParseIDList = %v, %v", ids, err)
	}
	if _, err := ParseIDList("1,abc"); err == nil {
		t.Fatal("invalid id accepted")
	}
}
