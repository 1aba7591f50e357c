package database

import (
	"context"
	"landing-bot/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// AnalyticsRepository: журнал событий, только на добавление.
type AnalyticsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	clock
}

func NewAnalyticsRepository(db *sqlx.DB, logger *zap.Logger, loc *time.Location) *AnalyticsRepository {
	return &AnalyticsRepository{
		db:     db,
		logger: logger,
		clock:  newClock(loc),
	}
}

// LogEvent записывает событие; CreatedAt проставляется, если не задан.
func (r *AnalyticsRepository) LogEvent(ctx context.Context, ev models.AnalyticsEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.nowUTC()
	}

	query := r.db.Rebind(`
        INSERT INTO analytics (event_type, user_id, order_id, payload, created_at)
        VALUES (?, ?, ?, ?, ?)
    `)

	_, err := r.db.ExecContext(ctx, query, ev.EventType, ev.UserID, ev.OrderID, ev.Payload, ev.CreatedAt.UTC())
	if err != nil {
		r.logger.Error("Ошибка при записи события аналитики",
			zap.Error(err),
			zap.String("event_type", ev.EventType),
		)
		return err
	}

	return nil
}

func (r *AnalyticsRepository) CountEventsSince(ctx context.Context, eventType string, since time.Time) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM analytics WHERE event_type = ? AND created_at >= ?`)

	var count int
	if err := r.db.GetContext(ctx, &count, query, eventType, since.UTC()); err != nil {
		r.logger.Error("Ошибка при подсчете событий",
			zap.Error(err),
			zap.String("event_type", eventType),
		)
		return 0, err
	}

	return count, nil
}
