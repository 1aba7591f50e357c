package telegram

import (
	"context"
	"fmt"
	"landing-bot/internal/models"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Лимит Bot API: около 30 сообщений в секунду на бота
const defaultSendRate = 25

type TelegramClient struct {
	bot         *tgbotapi.BotAPI
	limiter     *rate.Limiter
	logger      *zap.Logger
	pollTimeout int
}

func NewTelegramClient(token string, sendRate float64, pollTimeout int, logger *zap.Logger) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram client: %w", err)
	}

	if sendRate <= 0 {
		sendRate = defaultSendRate
	}
	if pollTimeout <= 0 {
		pollTimeout = 60
	}

	logger.Info("Авторизован бот", zap.String("username", bot.Self.UserName))

	return &TelegramClient{
		bot:         bot,
		limiter:     rate.NewLimiter(rate.Limit(sendRate), int(sendRate)),
		logger:      logger,
		pollTimeout: pollTimeout,
	}, nil
}

// SendMessage отправляет сообщение и возвращает его ID.
func (t *TelegramClient) SendMessage(ctx context.Context, out models.OutgoingMessage) (int, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var msg tgbotapi.MessageConfig
	if out.Channel != "" {
		msg = tgbotapi.NewMessageToChannel(out.Channel, out.Text)
	} else {
		msg = tgbotapi.NewMessage(out.ChatID, out.Text)
	}
	msg.ParseMode = out.ParseMode
	if out.ReplyMarkup != nil {
		msg.ReplyMarkup = out.ReplyMarkup
	}

	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendToChat отправляет сообщение по адресу из конфигурации: @username канала или числовой ID чата.
func (t *TelegramClient) SendToChat(ctx context.Context, chat string, text, parseMode string, markup interface{}) error {
	out := models.OutgoingMessage{Text: text, ParseMode: parseMode, ReplyMarkup: markup}

	chat = strings.TrimSpace(chat)
	if strings.HasPrefix(chat, "@") {
		out.Channel = chat
	} else {
		chatID, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat ID %q: %w", chat, err)
		}
		out.ChatID = chatID
	}

	_, err := t.SendMessage(ctx, out)
	return err
}

// EditMessageText заменяет текст сообщения; markup == nil убирает inline-клавиатуру.
func (t *TelegramClient) EditMessageText(ctx context.Context, chatID int64, messageID int, text, parseMode string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	editMsg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	editMsg.ParseMode = parseMode
	editMsg.ReplyMarkup = markup

	_, err := t.bot.Send(editMsg)
	return err
}

// SendDocument отправляет файл из памяти.
func (t *TelegramClient) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption

	_, err := t.bot.Send(doc)
	return err
}

// SendPhoto отправляет изображение с диска.
func (t *TelegramClient) SendPhoto(ctx context.Context, chatID int64, path, caption string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption

	_, err := t.bot.Send(photo)
	return err
}

// StartBot запускает long polling и отдает входящие события одним каналом.
// Канал закрывается после отмены ctx.
func (t *TelegramClient) StartBot(ctx context.Context) (<-chan models.Update, error) {
	// Удаляем вебхук перед запуском Long Polling
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to delete webhook: %w", err)
	}

	// Пауза для стабилизации соединения
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out := make(chan models.Update)

	// Настраиваем получение обновлений
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout

	updates := t.bot.GetUpdatesChan(u)

	go func() {
		defer close(out)
		defer t.bot.StopReceivingUpdates()

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}

				converted, ok := convertUpdate(update)
				if !ok {
					continue
				}

				// Отвечаем на callback, чтобы убрать индикатор загрузки у кнопки
				if update.CallbackQuery != nil {
					if _, err := t.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
						t.logger.Warn("Не удалось ответить на callback", zap.Error(err))
					}
				}

				select {
				case out <- converted:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func fullName(u *tgbotapi.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

func convertUpdate(update tgbotapi.Update) (models.Update, bool) {
	// Обработка callback-запросов (нажатий на инлайн-кнопки)
	if cq := update.CallbackQuery; cq != nil && cq.From != nil {
		result := models.Update{
			ChatID:       cq.From.ID,
			UserID:       cq.From.ID,
			Username:     cq.From.UserName,
			FullName:     fullName(cq.From),
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil {
			result.ChatID = cq.Message.Chat.ID
			result.MessageID = cq.Message.MessageID
			result.MessageText = cq.Message.Text
		}
		return result, true
	}

	// Обработка обычных сообщений
	msg := update.Message
	if msg == nil || msg.From == nil {
		return models.Update{}, false
	}

	result := models.Update{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FullName:  fullName(msg.From),
		Text:      msg.Text,
		MessageID: msg.MessageID,
	}
	if msg.IsCommand() {
		result.Command = msg.Command()
		result.Args = strings.TrimSpace(msg.CommandArguments())
	}
	if msg.Contact != nil {
		result.Contact = &models.Contact{
			PhoneNumber: msg.Contact.PhoneNumber,
			FirstName:   msg.Contact.FirstName,
			UserID:      msg.Contact.UserID,
		}
	}

	return result, true
}
