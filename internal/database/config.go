package database

import (
	"errors"
	"fmt"
	"landing-bot/internal/config"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // драйвер для PostgreSQL
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // встроенный драйвер SQLite
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound      = errors.New("запись не найдена")
	ErrOrderNotFound = errors.New("заявка не найдена")
)

// NewConnection создает новое подключение к базе данных
func NewConnection(cfg config.Database, logger *zap.Logger) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case DriverPostgres:
		db, err = connectPostgres(cfg)
	case DriverSQLite, "":
		db, err = connectSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("неизвестный драйвер базы данных: %s", cfg.Driver)
	}
	if err != nil {
		logger.Error("Ошибка подключения к базе данных", zap.Error(err), zap.String("driver", cfg.Driver))
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	logger.Info("Успешное подключение к базе данных", zap.String("driver", db.DriverName()))
	return db, nil
}

func connectPostgres(cfg config.Database) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect(DriverPostgres, dsn)
	if err != nil {
		return nil, err
	}

	// Установка настроек пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func connectSQLite(path string) (*sqlx.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("не указан путь к файлу SQLite")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("создание директории для базы: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON&_time_format=sqlite"

	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}

	// Одно соединение: SQLite сериализует запись, а транзакция выдачи номера заявки не конкурирует сама с собой.
	db.SetMaxOpenConns(1)

	return db, nil
}
