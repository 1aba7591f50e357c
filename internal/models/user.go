package models

import "time"

const UserStatusActive = "active"

// User: пользователь бота. UserID: идентификатор в Telegram, ID: первичный ключ в таблице users.
type User struct {
	ID               int64     `db:"id"`
	UserID           int64     `db:"user_id"`
	Username         string    `db:"username"`
	FullName         string    `db:"full_name"`
	Phone            *string   `db:"phone"`
	RegistrationDate time.Time `db:"registration_date"`
	Status           string    `db:"status"`
}

// UserProfile: данные пользователя, известные из входящего события.
type UserProfile struct {
	UserID   int64
	Username string
	FullName string
}

// Manager: получатель уведомлений из реестра менеджеров.
type Manager struct {
	ID         int64  `db:"id"`
	TelegramID int64  `db:"telegram_id"`
	Name       string `db:"name"`
	IsActive   bool   `db:"is_active"`
}

const (
	EventStart              = "start"
	EventOrderCreated       = "order_created"
	EventOrderTaken         = "order_taken"
	EventOrderStatusChanged = "order_status_changed"
	EventBroadcast          = "broadcast"
)

// AnalyticsEvent: запись журнала аналитики, только на добавление.
type AnalyticsEvent struct {
	ID        int64     `db:"id"`
	EventType string    `db:"event_type"`
	UserID    *int64    `db:"user_id"`
	OrderID   *string   `db:"order_id"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// Stats: сводка для /admin_stats.
type Stats struct {
	UsersTotal  int
	OrdersTotal int
	OrdersNew   int
	StartsToday int
}
