package scheduler

import (
	"context"
	"errors"
	"fmt"
	"landing-bot/internal/config"
	"landing-bot/internal/metrics"
	"landing-bot/internal/models"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	exportJobName = "daily_export"
	exportTimeout = 5 * time.Minute
)

type ExportSource interface {
	GetOrdersForExport(ctx context.Context, since *time.Time) ([]models.ExportRow, error)
}

// Sink: внешний приемник выгрузки (таблица, архив).
type Sink interface {
	Name() string
	Append(ctx context.Context, rows []models.ExportRow) error
}

// ExportJob раз в сутки выгружает заявки текущего дня во все настроенные приемники.
type ExportJob struct {
	source  ExportSource
	sinks   []Sink
	cron    *cron.Cron
	spec    string
	metrics *metrics.Metrics
	logger  *zap.Logger
	baseCtx context.Context
}

func NewExportJob(
	source ExportSource,
	sinks []Sink,
	cfg config.Scheduler,
	loc *time.Location,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*ExportJob, error) {
	spec, err := dailySpec(cfg.ExportTime)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	return &ExportJob{
		source:  source,
		sinks:   sinks,
		cron:    cron.New(cron.WithLocation(loc)),
		spec:    spec,
		metrics: m,
		logger:  logger,
		baseCtx: context.Background(),
	}, nil
}

// dailySpec переводит "HH:MM" в cron-выражение на каждый день.
func dailySpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid export time %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// Start регистрирует задачу в планировщике. ctx ограничивает выполнение запусков.
func (j *ExportJob) Start(ctx context.Context) error {
	j.baseCtx = ctx

	_, err := j.cron.AddFunc(j.spec, func() {
		runCtx, cancel := context.WithTimeout(j.baseCtx, exportTimeout)
		defer cancel()
		j.RunOnce(runCtx)
	})
	if err != nil {
		return fmt.Errorf("schedule export: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Ежедневная выгрузка запланирована", zap.String("cron", j.spec))
	return nil
}

// Stop останавливает планировщик и дожидается текущего запуска.
func (j *ExportJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Ежедневная выгрузка остановлена")
}

// RunOnce выгружает заявки за сегодня. Возвращает false, если приемники не настроены
// или выгрузка хотя бы в один из них не удалась; пустая выгрузка считается успешной.
func (j *ExportJob) RunOnce(ctx context.Context) bool {
	started := time.Now()

	if len(j.sinks) == 0 {
		j.logger.Debug("Выгрузка пропущена: приемники не настроены")
		return false
	}

	rows, err := j.source.GetOrdersForExport(ctx, nil)
	if err != nil {
		j.logger.Error("Ошибка при получении заявок для выгрузки", zap.Error(err))
		j.metrics.Job(exportJobName, started, err)
		return false
	}
	if len(rows) == 0 {
		j.logger.Info("Нет заявок за сегодня для выгрузки")
		j.metrics.Job(exportJobName, started, nil)
		return true
	}

	var errs []error
	for _, sink := range j.sinks {
		if err := sink.Append(ctx, rows); err != nil {
			j.logger.Error("Ошибка выгрузки заявок",
				zap.String("sink", sink.Name()),
				zap.Int("rows", len(rows)),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		j.logger.Info("Заявки выгружены", zap.String("sink", sink.Name()), zap.Int("rows", len(rows)))
	}

	err = errors.Join(errs...)
	j.metrics.Job(exportJobName, started, err)
	return err == nil
}
