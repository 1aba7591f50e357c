package scheduler

import (
	"context"
	"landing-bot/internal/config"
	"landing-bot/internal/metrics"
	"landing-bot/internal/models"
	"landing-bot/internal/notify"
	"time"

	"go.uber.org/zap"
)

const reminderJobName = "stale_reminder"

type StaleOrderSource interface {
	GetStaleOrders(ctx context.Context, threshold time.Duration) ([]models.Order, error)
}

type StaleNotifier interface {
	StaleOrder(ctx context.Context, order models.Order) []notify.Result
}

// ReminderJob напоминает менеджерам о заявках, которые долго остаются в статусе new.
// Повторные напоминания по одной заявке не подавляются: каждая проверка рассылает все найденные.
type ReminderJob struct {
	orders        StaleOrderSource
	notifier      StaleNotifier
	metrics       *metrics.Metrics
	logger        *zap.Logger
	checkPeriod   time.Duration // Период проверки заявок
	reminderAfter time.Duration // Возраст заявки, после которого отправляется напоминание
}

// NewReminderJob создает задачу напоминаний
func NewReminderJob(
	orders StaleOrderSource,
	notifier StaleNotifier,
	cfg config.Scheduler,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ReminderJob {
	checkPeriod := cfg.ReminderInterval
	if checkPeriod <= 0 {
		checkPeriod = 30 * time.Minute // Проверка каждые 30 минут
	}
	reminderAfter := cfg.ReminderAfter
	if reminderAfter <= 0 {
		reminderAfter = time.Hour
	}

	return &ReminderJob{
		orders:        orders,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		checkPeriod:   checkPeriod,
		reminderAfter: reminderAfter,
	}
}

// Run запускает цикл проверки; первая проверка через один период. Возвращается после отмены ctx.
func (j *ReminderJob) Run(ctx context.Context) error {
	j.logger.Info("Запуск задачи напоминаний",
		zap.Duration("period", j.checkPeriod),
		zap.Duration("after", j.reminderAfter),
	)

	ticker := time.NewTicker(j.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Задача напоминаний остановлена")
			return nil
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.Error("Ошибка при проверке заявок для напоминаний", zap.Error(err))
			}
		}
	}
}

// RunOnce проверяет заявки и рассылает напоминания. Возвращает число заявок, о которых напомнили.
func (j *ReminderJob) RunOnce(ctx context.Context) (int, error) {
	started := time.Now()
	j.logger.Debug("Проверка заявок для отправки напоминаний")

	// Получаем заявки, которые нуждаются в напоминании
	orders, err := j.orders.GetStaleOrders(ctx, j.reminderAfter)
	if err != nil {
		j.metrics.Job(reminderJobName, started, err)
		return 0, err
	}

	if len(orders) == 0 {
		j.logger.Debug("Нет заявок, требующих напоминания")
		j.metrics.Job(reminderJobName, started, nil)
		return 0, nil
	}

	j.logger.Info("Найдены заявки для отправки напоминаний", zap.Int("count", len(orders)))

	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		j.notifier.StaleOrder(ctx, order)
	}

	j.metrics.Job(reminderJobName, started, nil)
	return len(orders), nil
}
