package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"landing-bot/internal/config"
	"landing-bot/internal/metrics"
	"landing-bot/internal/models"
	"landing-bot/internal/notify"
	"landing-bot/internal/phone"
	"landing-bot/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultMaxOrdersPerHour = 5
	defaultBudget           = "5000"
	contactByPhone          = "phone"
)

// Quiz ведет пользователя по шагам: сфера, цель, контакт, подтверждение.
// Состояние между шагами хранится в SessionStore.
type Quiz struct {
	messenger Messenger
	sessions  SessionStore
	orders    OrderStore
	users     UserStore
	events    EventLog
	notifier  Notifier
	cfg       config.Quiz
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewQuiz(
	messenger Messenger,
	sessions SessionStore,
	orders OrderStore,
	users UserStore,
	events EventLog,
	notifier Notifier,
	cfg config.Quiz,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Quiz {
	if cfg.MaxOrdersPerHour <= 0 {
		cfg.MaxOrdersPerHour = defaultMaxOrdersPerHour
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Hour
	}
	if cfg.Budget == "" {
		cfg.Budget = defaultBudget
	}

	return &Quiz{
		messenger: messenger,
		sessions:  sessions,
		orders:    orders,
		users:     users,
		events:    events,
		notifier:  notifier,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// IsEntry сообщает, что событие начинает квиз.
func IsEntry(u models.Update) bool {
	if u.IsCallback() {
		return false
	}
	if u.Command == "order" {
		return true
	}
	text := strings.TrimSpace(u.Text)
	return text == btnOrder || text == btnOrderOld
}

// IsQuizCallback сообщает, что нажата кнопка квиза или подтверждения заявки.
func IsQuizCallback(data string) bool {
	return strings.HasPrefix(data, "quiz_") || strings.HasPrefix(data, "order_confirm_")
}

// Start начинает квиз заново, если пользователь не превысил лимит заявок.
func (q *Quiz) Start(ctx context.Context, u models.Update) error {
	logger := loggerFrom(ctx, q.logger)

	since := q.now().Add(-q.cfg.RateWindow)
	count, err := q.orders.CountOrdersSince(ctx, u.UserID, since)
	if err != nil {
		logger.Error("Ошибка при подсчете заявок пользователя", zap.Error(err))
		return err
	}
	if count >= q.cfg.MaxOrdersPerHour {
		logger.Info("Превышен лимит заявок",
			zap.Int("orders", count),
			zap.Int("limit", q.cfg.MaxOrdersPerHour),
		)
		q.metrics.RateLimit()
		return q.reply(ctx, u.ChatID, msgRateLimited, "", mainKeyboard())
	}

	if err := q.sessions.Save(ctx, u.UserID, newQuizSession()); err != nil {
		logger.Error("Ошибка при сохранении сессии квиза", zap.Error(err))
		return err
	}

	if err := q.reply(ctx, u.ChatID, quizIntro, models.ParseModeMarkdown, nil); err != nil {
		return err
	}
	return q.reply(ctx, u.ChatID, quizBusinessPrompt, models.ParseModeMarkdown, businessKeyboard())
}

// HandleCallback обрабатывает нажатия inline-кнопок квиза. Нажатия не на своем шаге игнорируются.
func (q *Quiz) HandleCallback(ctx context.Context, u models.Update) error {
	session, err := q.sessions.Get(ctx, u.UserID)
	if err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при получении сессии квиза", zap.Error(err))
		return err
	}
	if session == nil {
		return q.sessionLost(ctx, u)
	}

	data := u.CallbackData
	switch {
	case strings.HasPrefix(data, businessPrefix) && session.Step == StepBusinessType:
		return q.choose(ctx, u, session, answerBusinessType, quizBusinessPrompt, StepGoal, quizGoalPrompt, goalKeyboard())
	case strings.HasPrefix(data, goalPrefix) && session.Step == StepGoal:
		return q.choose(ctx, u, session, answerGoal, quizGoalPrompt, StepContact, quizContactPrompt, contactKeyboard())
	case data == confirmSubmit && session.Step == StepConfirm:
		return q.submit(ctx, u, session)
	case data == confirmCancel && session.Step == StepConfirm:
		return q.decline(ctx, u)
	}

	loggerFrom(ctx, q.logger).Debug("Нажатие не на своем шаге квиза",
		zap.String("data", data),
		zap.String("step", string(session.Step)),
	)
	return nil
}

// HandleMessage принимает телефон на шаге контакта. Возвращает false, если сообщение не относится к квизу.
func (q *Quiz) HandleMessage(ctx context.Context, u models.Update) (bool, error) {
	if u.IsCallback() || u.Command != "" {
		return false, nil
	}
	if u.Contact == nil && strings.TrimSpace(u.Text) == "" {
		return false, nil
	}

	session, err := q.sessions.Get(ctx, u.UserID)
	if err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при получении сессии квиза", zap.Error(err))
		return true, err
	}
	if session == nil || session.Step != StepContact {
		return false, nil
	}

	return true, q.receiveContact(ctx, u, session)
}

// Cancel завершает квиз на любом шаге.
func (q *Quiz) Cancel(ctx context.Context, u models.Update) error {
	if err := q.sessions.Delete(ctx, u.UserID); err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при удалении сессии квиза", zap.Error(err))
	}
	return q.reply(ctx, u.ChatID, msgCanceled, "", mainKeyboard())
}

func (q *Quiz) choose(
	ctx context.Context,
	u models.Update,
	session *QuizSession,
	key, prompt string,
	next Step,
	nextPrompt string,
	nextMarkup interface{},
) error {
	label := LabelFor(u.CallbackData)
	session.Answers[key] = label
	session.Step = next

	if err := q.sessions.Save(ctx, u.UserID, session); err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при сохранении сессии квиза", zap.Error(err))
		return err
	}

	// Оставляем вопрос в чате с отмеченным ответом
	text := prompt + "\n✔ " + utils.EscapeMarkdown(label)
	if err := q.messenger.EditMessageText(ctx, u.ChatID, u.MessageID, text, models.ParseModeMarkdown, nil); err != nil {
		loggerFrom(ctx, q.logger).Warn("Не удалось отметить ответ в сообщении", zap.Error(err))
	}

	return q.reply(ctx, u.ChatID, nextPrompt, models.ParseModeMarkdown, nextMarkup)
}

func (q *Quiz) receiveContact(ctx context.Context, u models.Update, session *QuizSession) error {
	var (
		number string
		valid  bool
	)
	if u.Contact != nil {
		number = strings.TrimSpace(u.Contact.PhoneNumber)
		valid = phone.ValidContact(number)
	} else {
		text := strings.TrimSpace(u.Text)
		if text == btnCancel {
			if err := q.sessions.Delete(ctx, u.UserID); err != nil {
				loggerFrom(ctx, q.logger).Error("Ошибка при удалении сессии квиза", zap.Error(err))
			}
			return q.reply(ctx, u.ChatID, msgOrderCanceled, "", mainKeyboard())
		}
		number = text
		valid = phone.Valid(text)
	}

	if !valid {
		return q.reply(ctx, u.ChatID, msgInvalidPhone, "", contactKeyboard())
	}

	session.Answers[answerPhone] = number
	session.Answers[answerContactPreference] = contactByPhone
	session.Step = StepConfirm
	if err := q.sessions.Save(ctx, u.UserID, session); err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при сохранении сессии квиза", zap.Error(err))
		return err
	}

	summary := fmt.Sprintf("*Проверьте данные:*\n\nСфера: %s\nЦель: %s\nТелефон: %s\n\n%s",
		utils.EscapeMarkdown(orDash(session.Answers[answerBusinessType])),
		utils.EscapeMarkdown(orDash(session.Answers[answerGoal])),
		utils.EscapeMarkdown(number),
		quizConfirmPrompt,
	)
	return q.reply(ctx, u.ChatID, summary, models.ParseModeMarkdown, confirmKeyboard())
}

func (q *Quiz) submit(ctx context.Context, u models.Update, session *QuizSession) error {
	logger := loggerFrom(ctx, q.logger)

	preference := session.Answers[answerContactPreference]
	if preference == "" {
		preference = contactByPhone
	}
	number := session.Answers[answerPhone]

	orderID, err := q.orders.CreateOrder(ctx, models.NewOrder{
		TelegramUserID:    u.UserID,
		BusinessType:      session.Answers[answerBusinessType],
		Goal:              session.Answers[answerGoal],
		Budget:            q.cfg.Budget,
		ContactPreference: preference,
		Phone:             number,
	})
	if err != nil {
		logger.Error("Ошибка при создании заявки", zap.Error(err))
		q.metrics.Error("quiz")
		if sendErr := q.reply(ctx, u.ChatID, msgOrderFailed, "", nil); sendErr != nil {
			logger.Warn("Не удалось сообщить об ошибке", zap.Error(sendErr))
		}
		return err
	}
	q.metrics.OrderCreated()
	logger = logger.With(zap.String("order_id", orderID))
	logger.Info("Создана новая заявка")

	// Заявка сохранена, повторное нажатие кнопки не должно создать вторую
	if err := q.sessions.Delete(ctx, u.UserID); err != nil {
		logger.Error("Ошибка при удалении сессии квиза", zap.Error(err))
	}

	if _, err := q.users.EnsureUser(ctx, u.Profile()); err != nil {
		logger.Warn("Не удалось обновить пользователя", zap.Error(err))
	}
	if err := q.users.UpdatePhone(ctx, u.UserID, number); err != nil {
		logger.Warn("Не удалось сохранить телефон пользователя", zap.Error(err))
	}
	userID := u.UserID
	if err := q.events.LogEvent(ctx, models.AnalyticsEvent{
		EventType: models.EventOrderCreated,
		UserID:    &userID,
		OrderID:   &orderID,
	}); err != nil {
		logger.Warn("Не удалось записать событие аналитики", zap.Error(err))
	}

	confirmation := fmt.Sprintf(orderConfirmed, orderID)
	if err := q.messenger.EditMessageText(ctx, u.ChatID, u.MessageID, confirmation, models.ParseModeMarkdown, nil); err != nil {
		logger.Warn("Не удалось показать подтверждение заявки", zap.Error(err))
	}
	if err := q.reply(ctx, u.ChatID, msgMenu, "", mainKeyboard()); err != nil {
		logger.Warn("Не удалось отправить меню", zap.Error(err))
	}

	// Ошибки доставки менеджерам не влияют на заявку, диспетчер их логирует
	q.notifier.NewOrder(ctx, notify.OrderNotice{
		OrderID:      orderID,
		FullName:     u.FullName,
		Username:     u.Username,
		Phone:        number,
		BusinessType: session.Answers[answerBusinessType],
		Goal:         session.Answers[answerGoal],
	})

	return nil
}

func (q *Quiz) decline(ctx context.Context, u models.Update) error {
	if err := q.sessions.Delete(ctx, u.UserID); err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при удалении сессии квиза", zap.Error(err))
	}
	if err := q.messenger.EditMessageText(ctx, u.ChatID, u.MessageID, msgOrderCanceled, "", nil); err != nil {
		loggerFrom(ctx, q.logger).Warn("Не удалось изменить сообщение", zap.Error(err))
	}
	return q.reply(ctx, u.ChatID, msgMenu, "", mainKeyboard())
}

// sessionLost: кнопка квиза нажата без активной сессии, например после перезапуска бота.
func (q *Quiz) sessionLost(ctx context.Context, u models.Update) error {
	loggerFrom(ctx, q.logger).Info("Нет активной сессии квиза", zap.String("data", u.CallbackData))
	return q.reply(ctx, u.ChatID, msgSessionLost, "", mainKeyboard())
}

func (q *Quiz) reply(ctx context.Context, chatID int64, text, parseMode string, markup interface{}) error {
	_, err := q.messenger.SendMessage(ctx, models.OutgoingMessage{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: markup,
	})
	if err != nil {
		loggerFrom(ctx, q.logger).Error("Ошибка при отправке сообщения", zap.Error(err))
	}
	return err
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
