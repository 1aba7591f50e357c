package models

import "time"

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDone       OrderStatus = "done"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus принимает только четыре известных статуса.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusNew, OrderStatusInProgress, OrderStatusDone, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// Terminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDone || s == OrderStatusCancelled
}

// Order: заявка. OrderID имеет вид #<год>-<порядковый номер за сутки>.
type Order struct {
	ID                int64       `db:"id"`
	OrderID           string      `db:"order_id"`
	UserID            int64       `db:"user_id"`
	TelegramUserID    int64       `db:"telegram_user_id"`
	Username          string      `db:"username"`
	FullName          string      `db:"full_name"`
	BusinessType      string      `db:"business_type"`
	Goal              string      `db:"goal"`
	Budget            string      `db:"budget"`
	Timeline          string      `db:"timeline"`
	Materials         string      `db:"materials"`
	ContactPreference string      `db:"contact_preference"`
	Phone             string      `db:"phone"`
	Status            OrderStatus `db:"status"`
	CreatedAt         time.Time   `db:"created_at"`
	ManagerID         *int64      `db:"manager_id"`
	Notes             *string     `db:"notes"`
}

// NewOrder: поля заявки, собранные квизом.
type NewOrder struct {
	TelegramUserID    int64
	BusinessType      string
	Goal              string
	Budget            string
	Timeline          string
	Materials         string
	ContactPreference string
	Phone             string
}

// StatusUpdate: частичное обновление заявки: пишутся только заданные поля.
type StatusUpdate struct {
	Status    OrderStatus
	ManagerID *int64
	Notes     *string
}

// ExportRow: строка выгрузки заявок.
type ExportRow struct {
	OrderID   string      `db:"order_id"`
	CreatedAt time.Time   `db:"created_at"`
	Status    OrderStatus `db:"status"`
	Phone     string      `db:"phone"`
	FullName  string      `db:"full_name"`
}
