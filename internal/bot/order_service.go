package bot

import (
	"context"
	"errors"
	"fmt"

	"landing-bot/internal/database"
	"landing-bot/internal/models"

	"go.uber.org/zap"
)

// takeOrder обрабатывает кнопку «Взять в работу» под уведомлением о новой заявке.
// Ответы менеджеру уходят в личный чат, чтобы не засорять общий.
func (s *Service) takeOrder(ctx context.Context, u models.Update, orderID string) error {
	logger := loggerFrom(ctx, s.logger).With(zap.String("order_id", orderID))

	if !s.isAdmin(u.UserID) && (s.checker == nil || !s.checker.IsManager(ctx, u.UserID)) {
		logger.Warn("Попытка взять заявку без прав менеджера")
		s.notifyManager(ctx, u.UserID, msgAccessDenied)
		return nil
	}

	claimed, err := s.orders.ClaimOrder(ctx, orderID, u.UserID)
	if err != nil {
		return err
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, database.ErrOrderNotFound) {
		s.notifyManager(ctx, u.UserID, "Заявка не найдена.")
		return nil
	}
	if err != nil {
		return err
	}

	if !claimed {
		logger.Info("Заявка уже взята в работу", zap.String("status", string(order.Status)))
		s.notifyManager(ctx, u.UserID, fmt.Sprintf("Заявка %s уже обработана, статус: %s", orderID, statusLabel(string(order.Status))))
		return nil
	}

	logger.Info("Заявка взята в работу", zap.Int64("manager_id", u.UserID))

	// Убираем кнопку и показываем, кто взял заявку
	taken := fmt.Sprintf("%s\n\n🔄 Взял в работу: %s", u.MessageText, managerName(u))
	if err := s.messenger.EditMessageText(ctx, u.ChatID, u.MessageID, taken, "", nil); err != nil {
		logger.Warn("Не удалось обновить уведомление о заявке", zap.Error(err))
	}

	text := fmt.Sprintf("🔄 Ваша заявка %s взята в работу. Менеджер скоро свяжется с вами.", orderID)
	if err := s.reply(ctx, order.TelegramUserID, text, "", nil); err != nil {
		logger.Warn("Не удалось уведомить клиента", zap.Error(err), zap.Int64("client_id", order.TelegramUserID))
	}

	managerID := u.UserID
	if err := s.events.LogEvent(ctx, models.AnalyticsEvent{
		EventType: models.EventOrderTaken,
		UserID:    &managerID,
		OrderID:   &orderID,
	}); err != nil {
		logger.Warn("Не удалось записать событие аналитики", zap.Error(err))
	}
	return nil
}

func (s *Service) notifyManager(ctx context.Context, userID int64, text string) {
	if err := s.reply(ctx, userID, text, "", nil); err != nil {
		loggerFrom(ctx, s.logger).Warn("Не удалось ответить менеджеру", zap.Error(err))
	}
}

func managerName(u models.Update) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FullName != "" {
		return u.FullName
	}
	return fmt.Sprint(u.UserID)
}
