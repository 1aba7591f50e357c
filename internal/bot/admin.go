package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"landing-bot/internal/database"
	"landing-bot/internal/export"
	"landing-bot/internal/models"
	"landing-bot/internal/utils"

	"go.uber.org/zap"
)

// handleAdmin обрабатывает команды администратора. Доступ только для telegram.admin_ids.
func (s *Service) handleAdmin(ctx context.Context, u models.Update) error {
	if !s.isAdmin(u.UserID) {
		loggerFrom(ctx, s.logger).Warn("Отказано в доступе к команде администратора", zap.String("command", u.Command))
		return s.reply(ctx, u.ChatID, msgAccessDenied, "", nil)
	}

	args := strings.Fields(u.Args)

	switch u.Command {
	case "admin_stats":
		return s.adminStats(ctx, u)
	case "admin_broadcast":
		return s.adminBroadcast(ctx, u)
	case "admin_export":
		return s.adminExport(ctx, u)
	case "admin_user":
		return s.adminUser(ctx, u, args)
	case "admin_order":
		return s.adminOrder(ctx, u, args)
	case "admin_managers":
		return s.adminManagers(ctx, u)
	case "admin_manager_add":
		return s.adminManagerAdd(ctx, u, args)
	case "admin_manager_off":
		return s.adminManagerOff(ctx, u, args)
	}

	return s.reply(ctx, u.ChatID, "Неизвестная команда администратора.", "", nil)
}

func (s *Service) adminStats(ctx context.Context, u models.Update) error {
	stats, err := s.stats.GetStats(ctx)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("📊 *Статистика бота*\n\n"+
		"👥 Пользователей: %d\n"+
		"📋 Всего заявок: %d\n"+
		"🆕 Новых заявок: %d\n"+
		"🚀 Запусков /start сегодня: %d",
		stats.UsersTotal, stats.OrdersTotal, stats.OrdersNew, stats.StartsToday,
	)
	return s.reply(ctx, u.ChatID, text, models.ParseModeMarkdown, nil)
}

// adminBroadcast рассылает текст всем активным пользователям. Ошибки отдельных получателей только считаются.
func (s *Service) adminBroadcast(ctx context.Context, u models.Update) error {
	text := strings.TrimSpace(u.Args)
	if text == "" {
		return s.reply(ctx, u.ChatID, "Использование: /admin_broadcast Текст рассылки", "", nil)
	}

	userIDs, err := s.users.ListActiveUserIDs(ctx)
	if err != nil {
		return err
	}

	logger := loggerFrom(ctx, s.logger)
	sent := 0
	for _, id := range userIDs {
		if _, err := s.messenger.SendMessage(ctx, models.OutgoingMessage{ChatID: id, Text: text}); err != nil {
			logger.Warn("Не удалось отправить рассылку", zap.Error(err), zap.Int64("recipient", id))
			continue
		}
		sent++
	}

	logger.Info("Рассылка завершена", zap.Int("sent", sent), zap.Int("total", len(userIDs)))

	adminID := u.UserID
	if err := s.events.LogEvent(ctx, models.AnalyticsEvent{
		EventType: models.EventBroadcast,
		UserID:    &adminID,
		Payload:   fmt.Sprintf("%d/%d", sent, len(userIDs)),
	}); err != nil {
		logger.Warn("Не удалось записать событие аналитики", zap.Error(err))
	}

	return s.reply(ctx, u.ChatID, fmt.Sprintf("Рассылка отправлена: %d из %d", sent, len(userIDs)), "", nil)
}

func (s *Service) adminExport(ctx context.Context, u models.Update) error {
	rows, err := s.orders.GetOrdersForExport(ctx, nil)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return s.reply(ctx, u.ChatID, "Нет заявок за сегодня для экспорта.", "", nil)
	}

	data, err := export.BuildCSV(rows, s.loc)
	if err != nil {
		return err
	}
	return s.messenger.SendDocument(ctx, u.ChatID, export.FileName, data, "")
}

func (s *Service) adminUser(ctx context.Context, u models.Update, args []string) error {
	if len(args) < 1 {
		return s.reply(ctx, u.ChatID, "Использование: /admin_user <telegram_user_id>", "", nil)
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return s.reply(ctx, u.ChatID, "Укажите числовой user_id.", "", nil)
	}

	user, err := s.users.GetUserByTelegramID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return s.reply(ctx, u.ChatID, "Пользователь не найден.", "", nil)
	}
	if err != nil {
		return err
	}

	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}
	username := ""
	if user.Username != "" {
		username = "@" + user.Username
	}

	text := fmt.Sprintf("👤 *Пользователь*\n\n"+
		"ID: %d\n"+
		"Username: %s\n"+
		"Имя: %s\n"+
		"Телефон: %s\n"+
		"Регистрация: %s",
		user.UserID,
		utils.EscapeMarkdown(orDash(username)),
		utils.EscapeMarkdown(orDash(user.FullName)),
		utils.EscapeMarkdown(orDash(phone)),
		user.RegistrationDate.In(s.loc).Format("02.01.2006 15:04"),
	)
	return s.reply(ctx, u.ChatID, text, models.ParseModeMarkdown, nil)
}

func (s *Service) adminOrder(ctx context.Context, u models.Update, args []string) error {
	if len(args) < 2 {
		return s.reply(ctx, u.ChatID, "Использование: /admin_order <order_id> <new|in_progress|done|cancelled>", "", nil)
	}

	orderID := strings.TrimSpace(args[0])
	if !strings.HasPrefix(orderID, "#") {
		orderID = "#" + orderID
	}
	status, ok := models.ParseOrderStatus(strings.ToLower(strings.TrimSpace(args[1])))
	if !ok {
		return s.reply(ctx, u.ChatID, "Статус: new, in_progress, done или cancelled.", "", nil)
	}

	if _, err := s.orders.GetOrderByID(ctx, orderID); err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return s.reply(ctx, u.ChatID, "Заявка не найдена.", "", nil)
		}
		return err
	}

	adminID := u.UserID
	err := s.orders.UpdateStatus(ctx, orderID, models.StatusUpdate{Status: status, ManagerID: &adminID})
	if errors.Is(err, database.ErrOrderNotFound) {
		return s.reply(ctx, u.ChatID, "Заявка не найдена.", "", nil)
	}
	if err != nil {
		return err
	}

	if err := s.events.LogEvent(ctx, models.AnalyticsEvent{
		EventType: models.EventOrderStatusChanged,
		UserID:    &adminID,
		OrderID:   &orderID,
		Payload:   string(status),
	}); err != nil {
		loggerFrom(ctx, s.logger).Warn("Не удалось записать событие аналитики", zap.Error(err))
	}

	return s.reply(ctx, u.ChatID, fmt.Sprintf("Статус заявки %s изменён на: %s", orderID, status), "", nil)
}

func (s *Service) adminManagers(ctx context.Context, u models.Update) error {
	managers, err := s.managers.ListActiveManagers(ctx)
	if err != nil {
		return err
	}
	if len(managers) == 0 {
		return s.reply(ctx, u.ChatID, "Реестр менеджеров пуст.", "", nil)
	}

	var b strings.Builder
	b.WriteString("👥 Активные менеджеры:\n")
	for _, m := range managers {
		fmt.Fprintf(&b, "\n• %s (%d)", orDash(m.Name), m.TelegramID)
	}
	return s.reply(ctx, u.ChatID, b.String(), "", nil)
}

func (s *Service) adminManagerAdd(ctx context.Context, u models.Update, args []string) error {
	if len(args) < 1 {
		return s.reply(ctx, u.ChatID, "Использование: /admin_manager_add <telegram_id> <имя>", "", nil)
	}
	telegramID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return s.reply(ctx, u.ChatID, "Укажите числовой telegram_id.", "", nil)
	}
	name := strings.Join(args[1:], " ")

	if err := s.managers.AddManager(ctx, telegramID, name); err != nil {
		return err
	}
	return s.reply(ctx, u.ChatID, fmt.Sprintf("Менеджер %d добавлен.", telegramID), "", nil)
}

func (s *Service) adminManagerOff(ctx context.Context, u models.Update, args []string) error {
	if len(args) < 1 {
		return s.reply(ctx, u.ChatID, "Использование: /admin_manager_off <telegram_id>", "", nil)
	}
	telegramID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return s.reply(ctx, u.ChatID, "Укажите числовой telegram_id.", "", nil)
	}

	err = s.managers.DeactivateManager(ctx, telegramID)
	if errors.Is(err, database.ErrNotFound) {
		return s.reply(ctx, u.ChatID, "Менеджер не найден.", "", nil)
	}
	if err != nil {
		return err
	}
	return s.reply(ctx, u.ChatID, fmt.Sprintf("Менеджер %d отключён.", telegramID), "", nil)
}
