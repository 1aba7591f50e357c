package database

import (
	"context"
	"landing-bot/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// StatsRepository собирает сводку для администратора.
type StatsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	clock
}

func NewStatsRepository(db *sqlx.DB, logger *zap.Logger, loc *time.Location) *StatsRepository {
	return &StatsRepository{
		db:     db,
		logger: logger,
		clock:  newClock(loc),
	}
}

func (r *StatsRepository) GetStats(ctx context.Context) (models.Stats, error) {
	dayStart, _ := r.dayBounds(r.nowUTC())

	query := r.db.Rebind(`
        SELECT
            (SELECT COUNT(*) FROM users) AS users_total,
            (SELECT COUNT(*) FROM orders) AS orders_total,
            (SELECT COUNT(*) FROM orders WHERE status = ?) AS orders_new,
            (SELECT COUNT(*) FROM analytics WHERE event_type = ? AND created_at >= ?) AS starts_today
    `)

	var row struct {
		UsersTotal  int `db:"users_total"`
		OrdersTotal int `db:"orders_total"`
		OrdersNew   int `db:"orders_new"`
		StartsToday int `db:"starts_today"`
	}
	if err := r.db.GetContext(ctx, &row, query, models.OrderStatusNew, models.EventStart, dayStart); err != nil {
		r.logger.Error("Ошибка при получении статистики", zap.Error(err))
		return models.Stats{}, err
	}

	return models.Stats{
		UsersTotal:  row.UsersTotal,
		OrdersTotal: row.OrdersTotal,
		OrdersNew:   row.OrdersNew,
		StartsToday: row.StartsToday,
	}, nil
}
