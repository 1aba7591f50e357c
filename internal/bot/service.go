package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"landing-bot/internal/config"
	"landing-bot/internal/metrics"
	"landing-bot/internal/models"
	"landing-bot/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps зависимости основного сервиса бота
type Deps struct {
	Source    UpdateSource
	Messenger Messenger
	Quiz      *Quiz
	Orders    OrderStore
	Users     UserStore
	Events    EventLog
	Managers  ManagerStore
	Stats     StatsStore
	Checker   ManagerChecker
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Service основной сервис бота: читает события и раскладывает их по обработчикам
type Service struct {
	source    UpdateSource
	messenger Messenger
	quiz      *Quiz
	orders    OrderStore
	users     UserStore
	events    EventLog
	managers  ManagerStore
	stats     StatsStore
	checker   ManagerChecker
	metrics   *metrics.Metrics
	logger    *zap.Logger

	adminIDs map[int64]struct{}
	studio   config.Studio
	loc      *time.Location

	// Ходы одного пользователя выполняются строго в порядке поступления, разных параллельно.
	// Очередь удаляется, как только опустеет.
	mu     sync.Mutex
	queues map[int64]*turnQueue
	wg     sync.WaitGroup
}

type turnQueue struct {
	pending []models.Update
}

// NewService создает новый экземпляр основного сервиса бота
func NewService(cfg *config.AppConfig, loc *time.Location, deps Deps) *Service {
	admins := make(map[int64]struct{}, len(cfg.Telegram.AdminIDs))
	for _, id := range cfg.Telegram.AdminIDs {
		admins[id] = struct{}{}
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Service{
		source:    deps.Source,
		messenger: deps.Messenger,
		quiz:      deps.Quiz,
		orders:    deps.Orders,
		users:     deps.Users,
		events:    deps.Events,
		managers:  deps.Managers,
		stats:     deps.Stats,
		checker:   deps.Checker,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		adminIDs:  admins,
		studio:    cfg.Studio,
		loc:       loc,
		queues:    make(map[int64]*turnQueue),
	}
}

// Start запускает обработку событий и блокируется до отмены ctx.
// Перед выходом дожидается ходов, которые уже выполняются.
func (s *Service) Start(ctx context.Context) error {
	updates, err := s.source.StartBot(ctx)
	if err != nil {
		s.logger.Error("Ошибка при запуске бота", zap.Error(err))
		return err
	}

	s.logger.Info("Бот запущен и ожидает сообщений")

	for update := range updates {
		s.enqueue(ctx, update)
	}

	s.wg.Wait()
	s.logger.Info("Обработка сообщений остановлена")
	return nil
}

// enqueue ставит событие в очередь пользователя. Если очереди нет, запускает для нее обработчик.
func (s *Service) enqueue(ctx context.Context, u models.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.queues[u.UserID]; ok {
		q.pending = append(q.pending, u)
		return
	}

	q := &turnQueue{pending: []models.Update{u}}
	s.queues[u.UserID] = q
	s.wg.Add(1)
	go s.drain(ctx, u.UserID, q)
}

func (s *Service) drain(ctx context.Context, userID int64, q *turnQueue) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(q.pending) == 0 {
			delete(s.queues, userID)
			s.mu.Unlock()
			return
		}
		u := q.pending[0]
		q.pending[0] = models.Update{}
		q.pending = q.pending[1:]
		s.mu.Unlock()

		s.dispatch(ctx, u)
	}
}

func (s *Service) dispatch(ctx context.Context, u models.Update) {
	logger := s.logger.With(
		zap.String("turn_id", uuid.NewString()),
		zap.Int64("user_id", u.UserID),
		zap.Int64("chat_id", u.ChatID),
	)

	// Паника в одном ходе не должна останавливать бота
	defer func() {
		if r := recover(); r != nil {
			s.metrics.Error("panic")
			logger.Error("Паника при обработке сообщения",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	kind := "message"
	switch {
	case u.IsCallback():
		kind = "callback"
	case u.Contact != nil:
		kind = "contact"
	case u.Command != "":
		kind = "command"
	}
	s.metrics.Update(kind)

	logger.Debug("Получено событие",
		zap.String("kind", kind),
		zap.String("command", u.Command),
		zap.String("data", u.CallbackData),
	)

	if err := s.HandleUpdate(withLogger(ctx, logger), u); err != nil {
		s.metrics.Error("bot")
		logger.Error("Ошибка при обработке сообщения", zap.Error(err))
	}
}

// HandleUpdate основной обработчик входящих событий
func (s *Service) HandleUpdate(ctx context.Context, u models.Update) error {
	if u.IsCallback() {
		data := u.CallbackData
		switch {
		case strings.HasPrefix(data, notify.TakeOrderPrefix):
			return s.takeOrder(ctx, u, strings.TrimPrefix(data, notify.TakeOrderPrefix))
		case IsQuizCallback(data):
			return s.quiz.HandleCallback(ctx, u)
		}
		loggerFrom(ctx, s.logger).Debug("Неизвестный callback", zap.String("data", data))
		return nil
	}

	// /cancel действует на любом шаге квиза
	if u.Command == "cancel" {
		return s.quiz.Cancel(ctx, u)
	}
	if IsEntry(u) {
		return s.quiz.Start(ctx, u)
	}
	if handled, err := s.quiz.HandleMessage(ctx, u); handled {
		return err
	}

	if u.Command != "" {
		return s.handleCommand(ctx, u)
	}
	if u.Contact != nil {
		return nil
	}
	return s.handleMenuButton(ctx, u)
}

func (s *Service) handleCommand(ctx context.Context, u models.Update) error {
	switch u.Command {
	case "start":
		return s.handleStart(ctx, u)
	case "menu":
		return s.reply(ctx, u.ChatID, msgMainMenu, "", mainKeyboard())
	case "help":
		return s.reply(ctx, u.ChatID, helpMessage(s.studio.Name), models.ParseModeMarkdown, nil)
	case "price":
		return s.reply(ctx, u.ChatID, priceList, models.ParseModeMarkdown, nil)
	case "portfolio":
		return s.handlePortfolio(ctx, u)
	case "status":
		return s.handleStatus(ctx, u)
	}

	if strings.HasPrefix(u.Command, "admin_") {
		return s.handleAdmin(ctx, u)
	}

	loggerFrom(ctx, s.logger).Debug("Неизвестная команда", zap.String("command", u.Command))
	return nil
}

func (s *Service) reply(ctx context.Context, chatID int64, text, parseMode string, markup interface{}) error {
	_, err := s.messenger.SendMessage(ctx, models.OutgoingMessage{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (s *Service) isAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

type loggerKey struct{}

func withLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom возвращает логгер текущего хода, если он есть в контексте.
func loggerFrom(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return fallback
}
