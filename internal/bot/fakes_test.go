package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"landing-bot/internal/config"
	"landing-bot/internal/database"
	"landing-bot/internal/models"
	"landing-bot/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	clientID  = int64(100)
	adminID   = int64(1)
	managerID = int64(50)
)

type edit struct {
	chatID    int64
	messageID int
	text      string
}

type document struct {
	chatID int64
	name   string
	data   []byte
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []models.OutgoingMessage
	edits     []edit
	docs      []document
	photos    []string
	failChats map[int64]error
	panicText string
}

func (f *fakeMessenger) SendMessage(_ context.Context, msg models.OutgoingMessage) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicText != "" && msg.Text == f.panicText {
		panic("boom")
	}
	if err := f.failChats[msg.ChatID]; err != nil {
		return 0, err
	}
	f.nextID++
	f.sent = append(f.sent, msg)
	return f.nextID, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, chatID int64, messageID int, text, _ string, _ *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit{chatID: chatID, messageID: messageID, text: text})
	return nil
}

func (f *fakeMessenger) SendDocument(_ context.Context, chatID int64, name string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, document{chatID: chatID, name: name, data: data})
	return nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, _ int64, path, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, path)
	return nil
}

func (f *fakeMessenger) last() models.OutgoingMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return models.OutgoingMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeOrders struct {
	mu         sync.Mutex
	recent     int
	since      time.Time
	created    []models.NewOrder
	createErr  error
	orders     map[string]*models.Order
	exportRows []models.ExportRow
	updates    []models.StatusUpdate
}

func (f *fakeOrders) CreateOrder(_ context.Context, o models.NewOrder) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, o)
	id := fmt.Sprintf("#2025-%03d", len(f.created))
	f.orders[id] = &models.Order{
		OrderID:        id,
		TelegramUserID: o.TelegramUserID,
		BusinessType:   o.BusinessType,
		Goal:           o.Goal,
		Phone:          o.Phone,
		Status:         models.OrderStatusNew,
		CreatedAt:      time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	return id, nil
}

func (f *fakeOrders) CountOrdersSince(_ context.Context, _ int64, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	return f.recent, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID string, upd models.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return database.ErrOrderNotFound
	}
	o.Status = upd.Status
	if upd.ManagerID != nil {
		o.ManagerID = upd.ManagerID
	}
	f.updates = append(f.updates, upd)
	return nil
}

func (f *fakeOrders) ClaimOrder(_ context.Context, orderID string, managerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.Status != models.OrderStatusNew {
		return false, nil
	}
	o.Status = models.OrderStatusInProgress
	o.ManagerID = &managerID
	return true, nil
}

func (f *fakeOrders) GetLastOrderForUser(_ context.Context, userID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, o := range f.orders {
		if o.TelegramUserID == userID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, database.ErrNotFound
	}
	sort.Strings(ids)
	order := *f.orders[ids[len(ids)-1]]
	return &order, nil
}

func (f *fakeOrders) GetOrderByID(_ context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	order := *o
	return &order, nil
}

func (f *fakeOrders) GetOrdersForExport(context.Context, *time.Time) ([]models.ExportRow, error) {
	return f.exportRows, nil
}

type fakeUsers struct {
	mu       sync.Mutex
	ensured  []models.UserProfile
	phones   map[int64]string
	profiles map[int64]*models.User
	active   []int64
}

func (f *fakeUsers) EnsureUser(_ context.Context, p models.UserProfile) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, p)
	return int64(len(f.ensured)), nil
}

func (f *fakeUsers) UpdatePhone(_ context.Context, userID int64, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phones[userID] = phone
	return nil
}

func (f *fakeUsers) GetUserByTelegramID(_ context.Context, userID int64) (*models.User, error) {
	u, ok := f.profiles[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListActiveUserIDs(context.Context) ([]int64, error) {
	return f.active, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.AnalyticsEvent
}

func (f *fakeEvents) LogEvent(_ context.Context, ev models.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		out = append(out, ev.EventType)
	}
	return out
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notify.OrderNotice
}

func (f *fakeNotifier) NewOrder(_ context.Context, n notify.OrderNotice) []notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return nil
}

type fakeManagers struct {
	managers map[int64]models.Manager
}

func (f *fakeManagers) AddManager(_ context.Context, telegramID int64, name string) error {
	f.managers[telegramID] = models.Manager{TelegramID: telegramID, Name: name, IsActive: true}
	return nil
}

func (f *fakeManagers) DeactivateManager(_ context.Context, telegramID int64) error {
	if _, ok := f.managers[telegramID]; !ok {
		return database.ErrNotFound
	}
	delete(f.managers, telegramID)
	return nil
}

func (f *fakeManagers) ListActiveManagers(context.Context) ([]models.Manager, error) {
	var out []models.Manager
	for _, m := range f.managers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

type fakeStats struct {
	stats models.Stats
}

func (f fakeStats) GetStats(context.Context) (models.Stats, error) {
	return f.stats, nil
}

type fakeChecker map[int64]bool

func (f fakeChecker) IsManager(_ context.Context, userID int64) bool {
	return f[userID]
}

type testEnv struct {
	svc       *Service
	quiz      *Quiz
	messenger *fakeMessenger
	sessions  *MemorySessionStore
	orders    *fakeOrders
	users     *fakeUsers
	events    *fakeEvents
	notifier  *fakeNotifier
	managers  *fakeManagers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Telegram.AdminIDs = []int64{adminID}
	cfg.Studio.Name = "Тест Студия"
	cfg.Studio.PortfolioDir = t.TempDir()

	env := &testEnv{
		messenger: &fakeMessenger{},
		sessions:  NewMemorySessionStore(),
		orders:    &fakeOrders{orders: make(map[string]*models.Order)},
		users:     &fakeUsers{phones: make(map[int64]string), profiles: make(map[int64]*models.User)},
		events:    &fakeEvents{},
		notifier:  &fakeNotifier{},
		managers:  &fakeManagers{managers: make(map[int64]models.Manager)},
	}
	env.quiz = NewQuiz(env.messenger, env.sessions, env.orders, env.users, env.events, env.notifier, cfg.Quiz, nil, zap.NewNop())
	env.svc = NewService(&cfg, time.UTC, Deps{
		Messenger: env.messenger,
		Quiz:      env.quiz,
		Orders:    env.orders,
		Users:     env.users,
		Events:    env.events,
		Managers:  env.managers,
		Stats:     fakeStats{stats: models.Stats{UsersTotal: 10, OrdersTotal: 4, OrdersNew: 2, StartsToday: 3}},
		Checker:   fakeChecker{managerID: true},
		Logger:    zap.NewNop(),
	})
	return env
}

// handle прогоняет событие через сервис и падает на ошибке обработчика.
func (e *testEnv) handle(t *testing.T, u models.Update) {
	t.Helper()
	if err := e.svc.HandleUpdate(context.Background(), u); err != nil {
		t.Fatalf("HandleUpdate(%+v): %v", u, err)
	}
}

func (e *testEnv) session(t *testing.T, userID int64) *QuizSession {
	t.Helper()
	s, err := e.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("sessions.Get: %v", err)
	}
	return s
}

func text(userID int64, s string) models.Update {
	return models.Update{ChatID: userID, UserID: userID, Username: "ivan_petrov", FullName: "Иван Петров", Text: s}
}

func command(userID int64, name, args string) models.Update {
	u := text(userID, "/"+name)
	u.Command = name
	u.Args = args
	return u
}

func callback(userID int64, data string) models.Update {
	return models.Update{
		ChatID:       userID,
		UserID:       userID,
		Username:     "ivan_petrov",
		FullName:     "Иван Петров",
		CallbackID:   "cb-" + data,
		CallbackData: data,
		MessageID:    7,
	}
}

func contact(userID int64, number string) models.Update {
	u := text(userID, "")
	u.Contact = &models.Contact{PhoneNumber: number, UserID: userID}
	return u
}
