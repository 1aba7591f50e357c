package main

import (
	"context"
	"flag"
	"log"
	"os"

	"landing-bot/internal/app"
)

func main() {
	runMigrations := flag.Bool("migrate", true, "Применить миграции базы данных при запуске")
	configPath := flag.String("config", "./config/config.yaml", "Путь к файлу конфигурации")
	verbose := flag.Bool("verbose", false, "Включить подробное логирование")
	flag.Parse()

	// Проверка существования файла конфигурации
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		log.Fatalf("Конфигурационный файл не найден: %s", *configPath)
	}

	log.Printf("Запуск приложения с параметрами:\n")
	log.Printf("- Конфигурационный файл: %s\n", *configPath)
	log.Printf("- Запуск миграций: %v\n", *runMigrations)
	log.Printf("- Подробное логирование: %v\n", *verbose)

	opts := app.Options{
		ConfigPath: *configPath,
		Migrate:    *runMigrations,
		Verbose:    *verbose,
	}
	if err := app.Run(context.Background(), opts); err != nil {
		log.Fatal(err)
	}
}
