package database

import (
	"context"
	"database/sql"
	"errors"
	"landing-bot/internal/models"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UserRepository представляет репозиторий для работы с пользователями
type UserRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	clock
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *sqlx.DB, logger *zap.Logger, loc *time.Location) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
		clock:  newClock(loc),
	}
}

// EnsureUser создает пользователя при первом обращении и обновляет непустые имя и username.
// Возвращает первичный ключ строки.
func (r *UserRepository) EnsureUser(ctx context.Context, p models.UserProfile) (int64, error) {
	query := r.db.Rebind(`
        INSERT INTO users (user_id, username, full_name, registration_date, status)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET
            username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END,
            full_name = CASE WHEN excluded.full_name <> '' THEN excluded.full_name ELSE users.full_name END
        RETURNING id
    `)

	var id int64
	err := r.db.GetContext(ctx, &id, query, p.UserID, p.Username, p.FullName, r.nowUTC(), models.UserStatusActive)
	if err != nil {
		r.logger.Error("Ошибка при создании пользователя",
			zap.Error(err),
			zap.Int64("user_id", p.UserID),
			zap.String("username", p.Username),
		)
		return 0, err
	}

	return id, nil
}

// UpdatePhone сохраняет телефон, указанный в квизе.
func (r *UserRepository) UpdatePhone(ctx context.Context, userID int64, phone string) error {
	query := r.db.Rebind(`UPDATE users SET phone = ? WHERE user_id = ?`)

	res, err := r.db.ExecContext(ctx, query, phone, userID)
	if err != nil {
		r.logger.Error("Ошибка при обновлении телефона пользователя",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *UserRepository) GetUserByTelegramID(ctx context.Context, userID int64) (*models.User, error) {
	query := r.db.Rebind(`
        SELECT id, user_id, username, full_name, phone, registration_date, status
        FROM users
        WHERE user_id = ?
    `)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Ошибка при получении пользователя",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		return nil, err
	}

	return &user, nil
}

// ListActiveUserIDs возвращает получателей рассылки.
func (r *UserRepository) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	query := r.db.Rebind(`SELECT user_id FROM users WHERE status = ? ORDER BY id`)

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, models.UserStatusActive); err != nil {
		r.logger.Error("Ошибка при получении списка пользователей", zap.Error(err))
		return nil, err
	}

	return ids, nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		r.logger.Error("Ошибка при подсчете пользователей", zap.Error(err))
		return 0, err
	}
	return count, nil
}
