package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"landing-bot/internal/models"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const orderColumns = `
            o.id,
            o.order_id,
            o.user_id,
            u.user_id AS telegram_user_id,
            COALESCE(u.username, '') AS username,
            COALESCE(u.full_name, '') AS full_name,
            o.business_type,
            o.goal,
            o.budget,
            o.timeline,
            o.materials,
            o.contact_preference,
            o.phone,
            o.status,
            o.created_at,
            o.manager_id,
            o.notes`

// latestByOrderID выбирает самую свежую заявку с данным номером
const latestByOrderID = `SELECT id FROM orders WHERE order_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`

// OrderRepository представляет репозиторий для работы с заявками
type OrderRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	clock
}

// NewOrderRepository создает новый репозиторий заявок; loc задает границы суток для нумерации и выгрузки.
func NewOrderRepository(db *sqlx.DB, logger *zap.Logger, loc *time.Location) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
		clock:  newClock(loc),
	}
}

// CreateOrder сохраняет заявку и возвращает ее номер вида #2025-001.
// Номер выдается счетчиком order_sequences внутри той же транзакции, что и вставка.
// Последовательность начинается заново каждые сутки, поэтому номер уникален в пределах дня.
func (r *OrderRepository) CreateOrder(ctx context.Context, o models.NewOrder) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Ошибка при начале транзакции", zap.Error(err))
		return "", err
	}
	defer tx.Rollback() // Откатываем транзакцию в случае ошибки

	now := r.nowUTC()

	var userPK int64
	err = tx.GetContext(ctx, &userPK, tx.Rebind(`
        INSERT INTO users (user_id, registration_date, status)
        VALUES (?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET status = users.status
        RETURNING id
    `), o.TelegramUserID, now, models.UserStatusActive)
	if err != nil {
		r.logger.Error("Ошибка при получении пользователя для заявки",
			zap.Error(err),
			zap.Int64("user_id", o.TelegramUserID),
		)
		return "", err
	}

	dayStart, dayEnd := r.dayBounds(now)
	local := now.In(r.loc)
	day := local.Format("2006-01-02")

	var seq int
	err = tx.GetContext(ctx, &seq, tx.Rebind(`
        INSERT INTO order_sequences (day, last_value)
        VALUES (?, (SELECT COUNT(*) FROM orders WHERE created_at >= ? AND created_at < ?) + 1)
        ON CONFLICT (day) DO UPDATE SET last_value = order_sequences.last_value + 1
        RETURNING last_value
    `), day, dayStart, dayEnd)
	if err != nil {
		r.logger.Error("Ошибка при выдаче номера заявки", zap.Error(err))
		return "", err
	}

	orderID := fmt.Sprintf("#%s-%03d", local.Format("2006"), seq)

	_, err = tx.ExecContext(ctx, tx.Rebind(`
        INSERT INTO orders (
            order_id, order_day, user_id, business_type, goal, budget, timeline,
            materials, contact_preference, phone, status, created_at
        )
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `),
		orderID,
		day,
		userPK,
		o.BusinessType,
		o.Goal,
		o.Budget,
		o.Timeline,
		o.Materials,
		o.ContactPreference,
		o.Phone,
		models.OrderStatusNew,
		now,
	)
	if err != nil {
		r.logger.Error("Ошибка при создании заявки",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return "", err
	}

	// Фиксируем транзакцию
	if err = tx.Commit(); err != nil {
		r.logger.Error("Ошибка при фиксации транзакции", zap.Error(err))
		return "", err
	}

	return orderID, nil
}

// CountOrdersSince считает заявки пользователя, созданные начиная с since.
func (r *OrderRepository) CountOrdersSince(ctx context.Context, telegramUserID int64, since time.Time) (int, error) {
	query := r.db.Rebind(`
        SELECT COUNT(*)
        FROM orders o
        JOIN users u ON o.user_id = u.id
        WHERE u.user_id = ? AND o.created_at >= ?
    `)

	var count int
	if err := r.db.GetContext(ctx, &count, query, telegramUserID, since.UTC()); err != nil {
		r.logger.Error("Ошибка при подсчете заявок пользователя",
			zap.Error(err),
			zap.Int64("user_id", telegramUserID),
		)
		return 0, err
	}

	return count, nil
}

// UpdateStatus меняет статус и, если заданы, менеджера и заметку.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, upd models.StatusUpdate) error {
	sets := []string{"status = ?"}
	args := []interface{}{upd.Status}

	if upd.ManagerID != nil {
		sets = append(sets, "manager_id = ?")
		args = append(args, *upd.ManagerID)
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *upd.Notes)
	}
	args = append(args, orderID)

	query := r.db.Rebind("UPDATE orders SET " + strings.Join(sets, ", ") + " WHERE id = (" + latestByOrderID + ")")

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Ошибка при обновлении статуса заявки",
			zap.Error(err),
			zap.String("order_id", orderID),
			zap.String("status", string(upd.Status)),
		)
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		r.logger.Warn("Заявка не найдена", zap.String("order_id", orderID))
		return ErrOrderNotFound
	}

	r.logger.Info("Статус заявки обновлен",
		zap.String("order_id", orderID),
		zap.String("status", string(upd.Status)),
	)
	return nil
}

// ClaimOrder переводит новую заявку в работу. Возвращает false, если заявку уже взяли.
func (r *OrderRepository) ClaimOrder(ctx context.Context, orderID string, managerID int64) (bool, error) {
	query := r.db.Rebind(`
        UPDATE orders
        SET status = ?, manager_id = ?
        WHERE id = (` + latestByOrderID + `) AND status = ?
    `)

	res, err := r.db.ExecContext(ctx, query, models.OrderStatusInProgress, managerID, orderID, models.OrderStatusNew)
	if err != nil {
		r.logger.Error("Ошибка при взятии заявки в работу",
			zap.Error(err),
			zap.String("order_id", orderID),
			zap.Int64("manager_id", managerID),
		)
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		r.logger.Info("Заявка уже взята или не существует",
			zap.String("order_id", orderID),
			zap.Int64("manager_id", managerID),
		)
		return false, nil
	}

	return true, nil
}

// GetLastOrderForUser возвращает последнюю заявку пользователя или ErrNotFound.
func (r *OrderRepository) GetLastOrderForUser(ctx context.Context, telegramUserID int64) (*models.Order, error) {
	query := r.db.Rebind(`
        SELECT` + orderColumns + `
        FROM orders o
        JOIN users u ON o.user_id = u.id
        WHERE u.user_id = ?
        ORDER BY o.created_at DESC, o.id DESC
        LIMIT 1
    `)

	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, telegramUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Ошибка при получении последней заявки",
			zap.Error(err),
			zap.Int64("user_id", telegramUserID),
		)
		return nil, err
	}

	return &order, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := r.db.Rebind(`
        SELECT` + orderColumns + `
        FROM orders o
        JOIN users u ON o.user_id = u.id
        WHERE o.id = (` + latestByOrderID + `)
    `)

	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("Заявка не найдена", zap.String("order_id", orderID))
			return nil, ErrOrderNotFound
		}
		r.logger.Error("Ошибка при получении заявки",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return nil, err
	}

	return &order, nil
}

// GetStaleOrders возвращает новые заявки, ожидающие дольше threshold, от старых к новым.
func (r *OrderRepository) GetStaleOrders(ctx context.Context, threshold time.Duration) ([]models.Order, error) {
	query := r.db.Rebind(`
        SELECT` + orderColumns + `
        FROM orders o
        JOIN users u ON o.user_id = u.id
        WHERE o.status = ? AND o.created_at <= ?
        ORDER BY o.created_at ASC
    `)

	cutoff := r.nowUTC().Add(-threshold)

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, models.OrderStatusNew, cutoff); err != nil {
		r.logger.Error("Ошибка при получении необработанных заявок",
			zap.Error(err),
			zap.Duration("threshold", threshold),
		)
		return nil, err
	}

	return orders, nil
}

// GetOrdersForExport возвращает заявки начиная с since; без since за текущие сутки.
func (r *OrderRepository) GetOrdersForExport(ctx context.Context, since *time.Time) ([]models.ExportRow, error) {
	var from, to time.Time
	if since != nil {
		from = since.UTC()
		to = r.nowUTC().Add(time.Second)
	} else {
		from, to = r.dayBounds(r.nowUTC())
	}

	query := r.db.Rebind(`
        SELECT
            o.order_id,
            o.created_at,
            o.status,
            o.phone,
            COALESCE(u.full_name, '') AS full_name
        FROM orders o
        JOIN users u ON o.user_id = u.id
        WHERE o.created_at >= ? AND o.created_at < ?
        ORDER BY o.created_at ASC, o.id ASC
    `)

	var rows []models.ExportRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		r.logger.Error("Ошибка при получении заявок для выгрузки", zap.Error(err))
		return nil, err
	}

	return rows, nil
}

func (r *OrderRepository) CountOrders(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`); err != nil {
		r.logger.Error("Ошибка при подсчете заявок", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *OrderRepository) CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE status = ?`)
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		r.logger.Error("Ошибка при подсчете заявок по статусу",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return 0, err
	}
	return count, nil
}
