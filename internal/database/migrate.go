package database

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// goose хранит FS и диалект в глобальном состоянии
var gooseMu sync.Mutex

func prepareGoose(driver string) (string, error) {
	goose.SetBaseFS(migrationsFS)

	switch driver {
	case DriverPostgres:
		if err := goose.SetDialect("postgres"); err != nil {
			return "", err
		}
		return "migrations/postgres", nil
	case DriverSQLite, "":
		if err := goose.SetDialect("sqlite3"); err != nil {
			return "", err
		}
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("неизвестный драйвер базы данных: %s", driver)
	}
}

// Migrate применяет все непримененные миграции.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepareGoose(db.DriverName())
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("применение миграций: %w", err)
	}
	return nil
}

// Rollback откатывает последнюю миграцию.
func Rollback(ctx context.Context, db *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepareGoose(db.DriverName())
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("откат миграции: %w", err)
	}
	return nil
}

// Status печатает состояние миграций через логгер goose.
func Status(ctx context.Context, db *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, err := prepareGoose(db.DriverName())
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB, dir)
}

// SetMigrationLogger заменяет логгер goose (в тестах goose.NopLogger()).
func SetMigrationLogger(l goose.Logger) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetLogger(l)
}

// gooseLogger пишет сообщения goose в zap.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

// NewGooseLogger адаптирует zap-логгер к интерфейсу логгера goose.
func NewGooseLogger(logger *zap.Logger) goose.Logger {
	return gooseLogger{sugar: logger.Sugar()}
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}
