package bot

import (
	"context"
	"time"

	"landing-bot/internal/models"
	"landing-bot/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger: интерфейс для отправки сообщений в Telegram
type Messenger interface {
	SendMessage(ctx context.Context, msg models.OutgoingMessage) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) error
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
	SendPhoto(ctx context.Context, chatID int64, path, caption string) error
}

// UpdateSource: источник входящих событий
type UpdateSource interface {
	StartBot(ctx context.Context) (<-chan models.Update, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o models.NewOrder) (string, error)
	CountOrdersSince(ctx context.Context, telegramUserID int64, since time.Time) (int, error)
	UpdateStatus(ctx context.Context, orderID string, upd models.StatusUpdate) error
	ClaimOrder(ctx context.Context, orderID string, managerID int64) (bool, error)
	GetLastOrderForUser(ctx context.Context, telegramUserID int64) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	GetOrdersForExport(ctx context.Context, since *time.Time) ([]models.ExportRow, error)
}

type UserStore interface {
	EnsureUser(ctx context.Context, p models.UserProfile) (int64, error)
	UpdatePhone(ctx context.Context, userID int64, phone string) error
	GetUserByTelegramID(ctx context.Context, userID int64) (*models.User, error)
	ListActiveUserIDs(ctx context.Context) ([]int64, error)
}

type EventLog interface {
	LogEvent(ctx context.Context, ev models.AnalyticsEvent) error
}

// Notifier рассылает уведомление о новой заявке менеджерам.
type Notifier interface {
	NewOrder(ctx context.Context, n notify.OrderNotice) []notify.Result
}

type ManagerStore interface {
	AddManager(ctx context.Context, telegramID int64, name string) error
	DeactivateManager(ctx context.Context, telegramID int64) error
	ListActiveManagers(ctx context.Context) ([]models.Manager, error)
}

type StatsStore interface {
	GetStats(ctx context.Context) (models.Stats, error)
}

// ManagerChecker решает, может ли пользователь брать заявки в работу.
type ManagerChecker interface {
	IsManager(ctx context.Context, userID int64) bool
}
