package notify

import (
	"fmt"
	"landing-bot/internal/models"
	"landing-bot/internal/phone"
	"landing-bot/internal/utils"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TakeOrderPrefix: префикс callback-данных кнопки «Взять в работу».
const TakeOrderPrefix = "order_take:"

// OrderNotice: данные новой заявки для менеджеров.
type OrderNotice struct {
	OrderID      string
	FullName     string
	Username     string
	Phone        string
	BusinessType string
	Goal         string
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func (n OrderNotice) username() string {
	if n.Username == "" {
		return "—"
	}
	return "@" + n.Username
}

// NewOrderMessage собирает уведомление о новой заявке с кнопкой «Взять в работу».
func NewOrderMessage(n OrderNotice) Message {
	text := fmt.Sprintf(
		"🔔 *Новая заявка %s*\n\n"+
			"👤 Имя: %s\n"+
			"💬 Telegram: %s\n"+
			"📞 Телефон: %s\n"+
			"🏢 Сфера: %s\n"+
			"🎯 Цель: %s",
		n.OrderID,
		utils.EscapeMarkdown(orDash(n.FullName)),
		utils.EscapeMarkdown(n.username()),
		utils.EscapeMarkdown(orDash(phone.NormalizeE164(n.Phone))),
		utils.EscapeMarkdown(orDash(n.BusinessType)),
		utils.EscapeMarkdown(orDash(n.Goal)),
	)

	plain := fmt.Sprintf(
		"Новая заявка %s\n\nИмя: %s\nTelegram: %s\nТелефон: %s\nСфера: %s\nЦель: %s\n",
		n.OrderID,
		orDash(n.FullName),
		n.username(),
		orDash(n.Phone),
		orDash(n.BusinessType),
		orDash(n.Goal),
	)

	return Message{
		Subject:   "Новая заявка " + n.OrderID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
		Plain:     plain,
		Markup:    TakeOrderKeyboard(n.OrderID),
	}
}

// TakeOrderKeyboard: inline-кнопка, которой менеджер берет заявку.
func TakeOrderKeyboard(orderID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Взять в работу", TakeOrderPrefix+orderID),
		),
	)
}

// StaleOrderMessage: напоминание о заявке, которую долго не берут в работу.
func StaleOrderMessage(order models.Order) Message {
	text := fmt.Sprintf("⏰ Напоминание: заявка %s всё ещё не взята в работу.", order.OrderID)

	return Message{
		Subject: "Заявка " + order.OrderID + " ожидает обработки",
		Text:    text,
		Plain:   text,
	}
}
