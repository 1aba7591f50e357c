package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"landing-bot/internal/api"
	"landing-bot/internal/bot"
	"landing-bot/internal/config"
	"landing-bot/internal/database"
	"landing-bot/internal/export"
	"landing-bot/internal/grpc"
	"landing-bot/internal/logger"
	"landing-bot/internal/metrics"
	"landing-bot/internal/notify"
	"landing-bot/internal/scheduler"
	"landing-bot/internal/telegram"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options: параметры запуска из командной строки
type Options struct {
	ConfigPath string
	Migrate    bool
	Verbose    bool
}

func Run(ctx context.Context, opts Options) error {
	// Загружаем конфигурацию
	cfg, err := config.NewConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Verbose {
		cfg.Logger.Level = "debug"
	}

	// Инициализируем логгер
	logger, err := logger.New(cfg.Logger)
	if err != nil {
		zap.L().Error("не удалось создать логгер", zap.Error(err))
		return err
	}
	defer func() { _ = logger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("неизвестный часовой пояс", zap.Error(err))
		return err
	}

	// Подключаемся к базе данных
	db, err := database.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Error("не удалось подключиться к базе данных", zap.Error(err))
		return err
	}
	defer db.Close()

	if opts.Migrate {
		database.SetMigrationLogger(database.NewGooseLogger(logger))
		if err := database.Migrate(ctx, db); err != nil {
			logger.Error("ошибка применения миграций", zap.Error(err))
			return err
		}
	}

	m := metrics.Registry(cfg.Server.MetricsNamespace)

	// Инициализируем репозитории
	userRepo := database.NewUserRepository(db, logger, loc)
	orderRepo := database.NewOrderRepository(db, logger, loc)
	managerRepo := database.NewManagerRepository(db, logger)
	analyticsRepo := database.NewAnalyticsRepository(db, logger, loc)
	statsRepo := database.NewStatsRepository(db, logger, loc)

	// Инициализируем Telegram клиент
	tgClient, err := telegram.NewTelegramClient(cfg.Telegram.Token, cfg.Telegram.SendRate, cfg.Telegram.PollTimeout, logger)
	if err != nil {
		logger.Error("ошибка создания Telegram клиента", zap.Error(err))
		return err
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("ошибка создания хранилища сессий", zap.Error(err))
		return err
	}
	defer closeSessions()

	// Уведомления менеджерам
	var mailer notify.MailSender
	if smtp := notify.NewSMTPMailer(cfg.Email, cfg.Studio.Name); smtp != nil {
		mailer = smtp
	}
	targets := notify.NewTargets(cfg.Notifications, managerRepo, tgClient, mailer, logger)
	dispatcher := notify.NewDispatcher(targets, m, logger)

	// Инициализируем основной сервис бота
	quiz := bot.NewQuiz(tgClient, sessions, orderRepo, userRepo, analyticsRepo, dispatcher, cfg.Quiz, m, logger)
	botService := bot.NewService(cfg, loc, bot.Deps{
		Source:    tgClient,
		Messenger: tgClient,
		Quiz:      quiz,
		Orders:    orderRepo,
		Users:     userRepo,
		Events:    analyticsRepo,
		Managers:  managerRepo,
		Stats:     statsRepo,
		Checker:   targets,
		Metrics:   m,
		Logger:    logger,
	})

	// Фоновые задачи
	reminderJob := scheduler.NewReminderJob(orderRepo, dispatcher, cfg.Scheduler, m, logger)
	exportJob, err := scheduler.NewExportJob(orderRepo, exportSinks(ctx, cfg, loc, logger), cfg.Scheduler, loc, m, logger)
	if err != nil {
		logger.Error("ошибка настройки выгрузки", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if err := exportJob.Start(gctx); err != nil {
		logger.Error("ошибка запуска выгрузки", zap.Error(err))
		return err
	}
	defer exportJob.Stop()

	g.Go(func() error { return reminderJob.Run(gctx) })

	if cfg.Server.Addr != "" {
		opsServer := api.NewOpsServer(logger, db, cfg.Server.Addr)
		g.Go(func() error { return opsServer.Run(gctx) })
	}
	if cfg.Server.GRPCAddr != "" {
		healthServer := grpc.NewHealthServer(logger, db, cfg.Server.GRPCAddr)
		g.Go(func() error { return healthServer.Run(gctx) })
	}

	// Запускаем бота
	g.Go(func() error {
		if err := botService.Start(gctx); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("приложение остановлено с ошибкой", zap.Error(err))
		return err
	}

	logger.Info("приложение остановлено")
	return nil
}

// newSessionStore выбирает хранилище сессий квиза по session.backend.
func newSessionStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (bot.SessionStore, func(), error) {
	if cfg.Session.Backend != "redis" {
		return bot.NewMemorySessionStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Сессии квиза хранятся в Redis", zap.String("addr", cfg.Redis.Addr))
	return bot.NewRedisSessionStore(client, cfg.Session.TTL), func() { _ = client.Close() }, nil
}

// exportSinks собирает настроенные приемники выгрузки. Ненастроенные пропускаются.
func exportSinks(ctx context.Context, cfg *config.AppConfig, loc *time.Location, logger *zap.Logger) []scheduler.Sink {
	var sinks []scheduler.Sink

	sheets, err := export.NewSheetsSink(ctx, cfg.Sheets, loc)
	switch {
	case errors.Is(err, export.ErrNotConfigured):
		logger.Info("Google Sheets не настроен, выгрузка в таблицу отключена")
	case err != nil:
		logger.Warn("Не удалось подключиться к Google Sheets", zap.Error(err))
	default:
		sinks = append(sinks, sheets)
	}

	archive, err := export.NewArchiveSink(cfg.Archive, loc)
	switch {
	case errors.Is(err, export.ErrNotConfigured):
		logger.Debug("Архив выгрузок не настроен")
	case err != nil:
		logger.Warn("Не удалось подключиться к хранилищу архива", zap.Error(err))
	default:
		if err := archive.EnsureBucket(ctx); err != nil {
			logger.Warn("Не удалось проверить бакет архива", zap.Error(err))
		}
		sinks = append(sinks, archive)
	}

	return sinks
}
