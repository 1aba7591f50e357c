package notify

import (
	"context"
	"fmt"
)

// Message: одно уведомление в двух представлениях: Markdown для Telegram и обычный текст для почты.
type Message struct {
	Subject   string
	Text      string
	ParseMode string
	Plain     string
	Markup    interface{}
}

// Destination: отдельный адресат рассылки. Ошибка одного адресата не влияет на остальных.
type Destination interface {
	Name() string
	Kind() string
	Deliver(ctx context.Context, msg Message) error
}

// Result: итог доставки одному адресату.
type Result struct {
	Destination string
	Err         error
}

// ChatSender: часть Telegram-клиента, нужная для отправки по адресу из конфигурации.
type ChatSender interface {
	SendToChat(ctx context.Context, chat string, text, parseMode string, markup interface{}) error
}

// MailSender отправляет письмо одному получателю.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type TelegramDestination struct {
	chat   string
	sender ChatSender
}

func NewTelegramDestination(chat string, sender ChatSender) *TelegramDestination {
	return &TelegramDestination{chat: chat, sender: sender}
}

func (d *TelegramDestination) Name() string { return "telegram:" + d.chat }

func (d *TelegramDestination) Kind() string { return "telegram" }

func (d *TelegramDestination) Deliver(ctx context.Context, msg Message) error {
	if err := d.sender.SendToChat(ctx, d.chat, msg.Text, msg.ParseMode, msg.Markup); err != nil {
		return fmt.Errorf("telegram %s: %w", d.chat, err)
	}
	return nil
}

type EmailDestination struct {
	to     string
	mailer MailSender
}

func NewEmailDestination(to string, mailer MailSender) *EmailDestination {
	return &EmailDestination{to: to, mailer: mailer}
}

func (d *EmailDestination) Name() string { return "email:" + d.to }

func (d *EmailDestination) Kind() string { return "email" }

func (d *EmailDestination) Deliver(ctx context.Context, msg Message) error {
	body := msg.Plain
	if body == "" {
		body = msg.Text
	}
	return d.mailer.Send(ctx, d.to, msg.Subject, body)
}
