// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Database struct {
	Driver   string `yaml:"driver" validate:"oneof=sqlite postgres"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type Logger struct {
	Level string `yaml:"level"`
	Sink  string `yaml:"sink"`
}

type Telegram struct {
	Token       string  `yaml:"token" validate:"required"`
	AdminIDs    []int64 `yaml:"admin_ids"`
	SendRate    float64 `yaml:"send_rate"`
	PollTimeout int     `yaml:"poll_timeout"`
}

type Quiz struct {
	MaxOrdersPerHour int           `yaml:"max_orders_per_hour" validate:"min=1"`
	RateWindow       time.Duration `yaml:"rate_window"`
	Budget           string        `yaml:"budget"`
}

type Session struct {
	Backend string        `yaml:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `yaml:"ttl"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Scheduler struct {
	Timezone         string        `yaml:"timezone"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	ReminderAfter    time.Duration `yaml:"reminder_after"`
	ExportTime       string        `yaml:"export_time" validate:"datetime=15:04"`
}

// Notifications описывает статические адресаты уведомлений менеджерам.
type Notifications struct {
	ManagerChatID      string   `yaml:"manager_chat_id"`
	OrdersChannelID    string   `yaml:"orders_channel_id"`
	ManagerIDs         []int64  `yaml:"manager_ids"`
	ManagerEmails      []string `yaml:"manager_emails" validate:"dive,email"`
	UseManagerRegistry bool     `yaml:"use_manager_registry"`
}

type Sheets struct {
	SheetID         string `yaml:"sheet_id"`
	CredentialsPath string `yaml:"credentials_path"`
	Range           string `yaml:"range"`
}

type Archive struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Email struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type Server struct {
	Addr             string `yaml:"addr"`
	GRPCAddr         string `yaml:"grpc_addr"`
	MetricsNamespace string `yaml:"metrics_namespace"`
}

type Studio struct {
	Name         string `yaml:"name"`
	PortfolioDir string `yaml:"portfolio_dir"`
}

type AppConfig struct {
	Server        Server        `yaml:"server"`
	Logger        Logger        `yaml:"log"`
	Telegram      Telegram      `yaml:"telegram"`
	Database      Database      `yaml:"database"`
	Quiz          Quiz          `yaml:"quiz"`
	Session       Session       `yaml:"session"`
	Redis         Redis         `yaml:"redis"`
	Scheduler     Scheduler     `yaml:"scheduler"`
	Notifications Notifications `yaml:"notifications"`
	Sheets        Sheets        `yaml:"sheets"`
	Archive       Archive       `yaml:"archive"`
	Email         Email         `yaml:"email"`
	Studio        Studio        `yaml:"studio"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() AppConfig {
	return AppConfig{
		Server:   Server{Addr: ":8080", MetricsNamespace: "landing_bot"},
		Logger:   Logger{Level: "info", Sink: "stdout"},
		Telegram: Telegram{SendRate: 25, PollTimeout: 60},
		Database: Database{Driver: "sqlite", Path: "data/bot.db", SSLMode: "disable"},
		Quiz: Quiz{
			MaxOrdersPerHour: 5,
			RateWindow:       time.Hour,
			Budget:           "5000",
		},
		Session: Session{Backend: "memory", TTL: 24 * time.Hour},
		Scheduler: Scheduler{
			Timezone:         "Local",
			ReminderInterval: 30 * time.Minute,
			ReminderAfter:    time.Hour,
			ExportTime:       "23:00",
		},
		Sheets: Sheets{CredentialsPath: "credentials.json", Range: "A1"},
		Email:  Email{Port: 587},
		Studio: Studio{Name: "Лендинг Студия", PortfolioDir: "assets/portfolio"},
	}
}

// NewConfig читает YAML-файл поверх значений по умолчанию, применяет переменные окружения
// (в том числе из .env) и проверяет результат.
func NewConfig(path string) (*AppConfig, error) {
	appConfig := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// .env необязателен
	_ = godotenv.Load()

	if err := appConfig.applyEnv(); err != nil {
		return nil, err
	}

	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	return &appConfig, nil
}

// Validate проверяет конфигурацию по тегам validate.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location возвращает часовой пояс для календарных суток и расписания.
func (c *AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Scheduler.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

func (c *AppConfig) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString("BOT_TOKEN", &c.Telegram.Token)
	setString("MANAGER_CHAT_ID", &c.Notifications.ManagerChatID)
	setString("ORDERS_CHANNEL_ID", &c.Notifications.OrdersChannelID)
	setString("GOOGLE_SHEET_ID", &c.Sheets.SheetID)
	setString("GOOGLE_CREDENTIALS_PATH", &c.Sheets.CredentialsPath)
	setString("DATABASE_PATH", &c.Database.Path)
	setString("STUDIO_NAME", &c.Studio.Name)

	if v, ok := os.LookupEnv("ADMIN_IDS"); ok {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("ADMIN_IDS: %w", err)
		}
		c.Telegram.AdminIDs = ids
	}
	if v, ok := os.LookupEnv("MANAGER_TELEGRAM_IDS"); ok {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("MANAGER_TELEGRAM_IDS: %w", err)
		}
		c.Notifications.ManagerIDs = ids
	}

	return nil
}

// ParseIDList разбирает список идентификаторов через запятую, пропуская пустые элементы.
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
