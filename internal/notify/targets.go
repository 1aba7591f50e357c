package notify

import (
	"context"
	"landing-bot/internal/config"
	"landing-bot/internal/models"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Kind int

const (
	// KindNewOrder: чат команды, канал заявок, менеджеры
	KindNewOrder Kind = iota
	// KindReminder: чат команды и менеджеры, без канала
	KindReminder
)

func (k Kind) String() string {
	switch k {
	case KindNewOrder:
		return "new_order"
	case KindReminder:
		return "reminder"
	default:
		return "unknown"
	}
}

// ManagerLister: реестр менеджеров в базе.
type ManagerLister interface {
	ListActiveManagers(ctx context.Context) ([]models.Manager, error)
}

// Targets собирает адресатов из конфигурации и, если включено, из реестра менеджеров.
type Targets struct {
	cfg      config.Notifications
	registry ManagerLister
	chat     ChatSender
	mailer   MailSender
	logger   *zap.Logger
}

// NewTargets: registry и mailer могут быть nil.
func NewTargets(cfg config.Notifications, registry ManagerLister, chat ChatSender, mailer MailSender, logger *zap.Logger) *Targets {
	return &Targets{
		cfg:      cfg,
		registry: registry,
		chat:     chat,
		mailer:   mailer,
		logger:   logger,
	}
}

// For возвращает адресатов для вида уведомления без повторов; пустые адреса пропускаются.
func (t *Targets) For(ctx context.Context, kind Kind) []Destination {
	seen := make(map[string]bool)
	var result []Destination

	addChat := func(chat string) {
		chat = strings.TrimSpace(chat)
		if chat == "" || chat == "0" || seen["tg:"+chat] {
			return
		}
		seen["tg:"+chat] = true
		result = append(result, NewTelegramDestination(chat, t.chat))
	}

	addChat(t.cfg.ManagerChatID)
	if kind == KindNewOrder {
		addChat(t.cfg.OrdersChannelID)
	}
	for _, id := range t.managerIDs(ctx) {
		addChat(strconv.FormatInt(id, 10))
	}

	if t.mailer != nil {
		for _, addr := range t.cfg.ManagerEmails {
			addr = strings.TrimSpace(addr)
			if addr == "" || seen["mail:"+addr] {
				continue
			}
			seen["mail:"+addr] = true
			result = append(result, NewEmailDestination(addr, t.mailer))
		}
	}

	return result
}

// IsManager сообщает, получает ли пользователь уведомления о заявках как менеджер.
func (t *Targets) IsManager(ctx context.Context, userID int64) bool {
	for _, id := range t.managerIDs(ctx) {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Targets) managerIDs(ctx context.Context) []int64 {
	ids := append([]int64(nil), t.cfg.ManagerIDs...)

	if !t.cfg.UseManagerRegistry || t.registry == nil {
		return ids
	}

	managers, err := t.registry.ListActiveManagers(ctx)
	if err != nil {
		// реестр недоступен: остаются статические адресаты
		t.logger.Warn("Не удалось получить реестр менеджеров", zap.Error(err))
		return ids
	}
	for _, m := range managers {
		ids = append(ids, m.TelegramID)
	}
	return ids
}
