package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"landing-bot/internal/database"
	"landing-bot/internal/models"

	"go.uber.org/zap"
)

const maxPortfolioImages = 10

var portfolioExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// handleStart: приветствие и главное меню
func (s *Service) handleStart(ctx context.Context, u models.Update) error {
	logger := loggerFrom(ctx, s.logger)

	if _, err := s.users.EnsureUser(ctx, u.Profile()); err != nil {
		logger.Error("Ошибка при сохранении пользователя", zap.Error(err))
	}

	userID := u.UserID
	if err := s.events.LogEvent(ctx, models.AnalyticsEvent{EventType: models.EventStart, UserID: &userID}); err != nil {
		logger.Warn("Не удалось записать событие аналитики", zap.Error(err))
	}

	return s.reply(ctx, u.ChatID, welcomeMessage(s.studio.Name), models.ParseModeMarkdown, mainKeyboard())
}

// handleMenuButton обрабатывает кнопки главного меню и любой другой текст
func (s *Service) handleMenuButton(ctx context.Context, u models.Update) error {
	switch strings.TrimSpace(u.Text) {
	case btnPrice:
		return s.reply(ctx, u.ChatID, priceList, models.ParseModeMarkdown, nil)
	case btnPortfolio:
		return s.reply(ctx, u.ChatID, portfolioHint, "", nil)
	case btnContacts:
		return s.reply(ctx, u.ChatID, helpMessage(s.studio.Name), models.ParseModeMarkdown, nil)
	case btnFAQ:
		return s.reply(ctx, u.ChatID, faqMessage, models.ParseModeMarkdown, nil)
	case btnCabinet:
		return s.reply(ctx, u.ChatID, cabinetMessage, "", nil)
	}
	return s.reply(ctx, u.ChatID, msgFallback, "", mainKeyboard())
}

// handlePortfolio отправляет примеры работ из каталога портфолио.
// Ошибки отправки отдельных картинок не прерывают показ.
func (s *Service) handlePortfolio(ctx context.Context, u models.Update) error {
	if err := s.reply(ctx, u.ChatID, portfolioIntro, models.ParseModeMarkdown, nil); err != nil {
		return err
	}

	for _, path := range portfolioImages(s.studio.PortfolioDir) {
		if err := s.messenger.SendPhoto(ctx, u.ChatID, path, ""); err != nil {
			loggerFrom(ctx, s.logger).Warn("Не удалось отправить картинку портфолио",
				zap.Error(err),
				zap.String("path", path),
			)
		}
	}
	return nil
}

func portfolioImages(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !portfolioExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	sort.Strings(images)
	if len(images) > maxPortfolioImages {
		images = images[:maxPortfolioImages]
	}
	return images
}

// handleStatus показывает последнюю заявку пользователя
func (s *Service) handleStatus(ctx context.Context, u models.Update) error {
	order, err := s.orders.GetLastOrderForUser(ctx, u.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return s.reply(ctx, u.ChatID, noOrdersYet, "", mainKeyboard())
	}
	if err != nil {
		return err
	}

	text := fmt.Sprintf("📋 *Ваша последняя заявка:* %s\nСтатус: %s\nДата: %s",
		order.OrderID,
		statusLabel(string(order.Status)),
		order.CreatedAt.In(s.loc).Format("02.01.2006 15:04"),
	)
	return s.reply(ctx, u.ChatID, text, models.ParseModeMarkdown, mainKeyboard())
}
