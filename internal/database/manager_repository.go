package database

import (
	"context"
	"landing-bot/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ManagerRepository хранит реестр менеджеров, получающих заявки.
type ManagerRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewManagerRepository(db *sqlx.DB, logger *zap.Logger) *ManagerRepository {
	return &ManagerRepository{
		db:     db,
		logger: logger,
	}
}

// AddManager добавляет менеджера или снова включает отключенного.
func (r *ManagerRepository) AddManager(ctx context.Context, telegramID int64, name string) error {
	query := r.db.Rebind(`
        INSERT INTO managers (telegram_id, name, is_active)
        VALUES (?, ?, ?)
        ON CONFLICT (telegram_id) DO UPDATE SET
            name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE managers.name END,
            is_active = excluded.is_active
    `)

	if _, err := r.db.ExecContext(ctx, query, telegramID, name, true); err != nil {
		r.logger.Error("Ошибка при добавлении менеджера",
			zap.Error(err),
			zap.Int64("telegram_id", telegramID),
		)
		return err
	}

	r.logger.Info("Менеджер добавлен", zap.Int64("telegram_id", telegramID), zap.String("name", name))
	return nil
}

func (r *ManagerRepository) DeactivateManager(ctx context.Context, telegramID int64) error {
	query := r.db.Rebind(`UPDATE managers SET is_active = ? WHERE telegram_id = ?`)

	res, err := r.db.ExecContext(ctx, query, false, telegramID)
	if err != nil {
		r.logger.Error("Ошибка при отключении менеджера",
			zap.Error(err),
			zap.Int64("telegram_id", telegramID),
		)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ManagerRepository) ListActiveManagers(ctx context.Context) ([]models.Manager, error) {
	query := r.db.Rebind(`
        SELECT id, telegram_id, name, is_active
        FROM managers
        WHERE is_active = ?
        ORDER BY id
    `)

	var managers []models.Manager
	if err := r.db.SelectContext(ctx, &managers, query, true); err != nil {
		r.logger.Error("Ошибка при получении списка менеджеров", zap.Error(err))
		return nil, err
	}

	return managers, nil
}
