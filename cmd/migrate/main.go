package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"landing-bot/internal/config"
	"landing-bot/internal/database"
	"landing-bot/internal/logger"

	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Использование: migrate [-config путь] up|down|status\n")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Путь к файлу конфигурации")
	flag.Usage = usage
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	// Загружаем конфигурацию
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Ошибка создания логгера: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Подключаемся к базе данных
	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer db.Close()

	database.SetMigrationLogger(database.NewGooseLogger(logger))
	ctx := context.Background()

	switch command {
	case "up":
		err = database.Migrate(ctx, db)
	case "down":
		err = database.Rollback(ctx, db)
	case "status":
		err = database.Status(ctx, db)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("Ошибка выполнения миграции", zap.String("command", command), zap.Error(err))
	}

	logger.Info("Миграция успешно выполнена", zap.String("command", command))
}
