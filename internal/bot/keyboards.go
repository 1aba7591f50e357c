package bot

import (
	"landing-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Кнопки главного меню
const (
	btnOrder     = "🎯 Бесплатный дизайн-макет"
	btnOrderOld  = "🎯 ЗАКАЗАТЬ САЙТ"
	btnPrice     = "💰 Цены и услуги"
	btnPortfolio = "📁 Портфолио"
	btnContacts  = "📞 Контакты"
	btnFAQ       = "❓ FAQ"
	btnCabinet   = "👤 Мой кабинет"

	btnSendContact = "📱 Отправить контакт"
	btnCancel      = "❌ Отмена"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnOrder)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPrice),
			tgbotapi.NewKeyboardButton(btnPortfolio),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnContacts),
			tgbotapi.NewKeyboardButton(btnFAQ),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCabinet)),
	)
	keyboard.ResizeKeyboard = true
	keyboard.InputFieldPlaceholder = "Выберите действие или введите команду"
	return keyboard
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(btnSendContact)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

// inlineKeyboard раскладывает варианты по две кнопки в ряд.
func inlineKeyboard(options []option) tgbotapi.InlineKeyboardMarkup {
	data := make(map[string]string, len(options))
	labels := make([]string, 0, len(options))
	for _, o := range options {
		labels = append(labels, o.Label)
		data[o.Label] = o.Data
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, chunk := range utils.ChunkStrings(labels, 2) {
		var row []tgbotapi.InlineKeyboardButton
		for _, label := range chunk {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data[label]))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func businessKeyboard() tgbotapi.InlineKeyboardMarkup { return inlineKeyboard(businessOptions) }

func goalKeyboard() tgbotapi.InlineKeyboardMarkup { return inlineKeyboard(goalOptions) }

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Отправить заявку", confirmSubmit)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnCancel, confirmCancel)),
	)
}
