package database

import (
	"context"
	"errors"
	"fmt"
	"landing-bot/internal/config"
	"landing-bot/internal/models"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	SetMigrationLogger(goose.NopLogger())

	db, err := NewConnection(config.Database{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "bot.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newOrder(userID int64) models.NewOrder {
	return models.NewOrder{
		TelegramUserID: userID,
		BusinessType:   "Товары",
		Goal:           "Продажи",
		Budget:         "5000",
		Phone:          "+79991234567",
	}
}

func TestCreateOrderSequence(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()

	repo.now = fixedNow(baseTime)
	want := []string{"#2025-001", "#2025-002", "#2025-003"}
	for i, w := range want {
		id, err := repo.CreateOrder(ctx, newOrder(int64(100+i)))
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if id != w {
			t.Fatalf("order %d: got %s, want %s", i, id, w)
		}
	}

	// На следующие сутки счетчик начинается заново
	repo.now = fixedNow(baseTime.Add(24 * time.Hour))
	id, err := repo.CreateOrder(ctx, newOrder(100))
	if err != nil {
		t.Fatalf("CreateOrder next day: %v", err)
	}
	if id != "#2025-001" {
		t.Fatalf("next day order id = %s, want #2025-001", id)
	}

	// Номер, повторившийся в другой день, указывает на самую свежую заявку
	if err := repo.UpdateStatus(ctx, id, models.StatusUpdate{Status: models.OrderStatusDone}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	order, err := repo.GetOrderByID(ctx, id)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if order.Status != models.OrderStatusDone || !order.CreatedAt.Equal(baseTime.Add(24*time.Hour)) {
		t.Fatalf("latest order = %+v", order)
	}
	repo.now = fixedNow(baseTime.Add(24 * time.Hour))
	count, err := repo.CountOrdersByStatus(ctx, models.OrderStatusNew)
	if err != nil {
		t.Fatalf("CountOrdersByStatus: %v", err)
	}
	if count != 3 {
		t.Fatalf("new orders = %d, want 3", count)
	}
}

func TestCreateOrderConcurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	repo.now = fixedNow(baseTime)
	ctx := context.Background()

	const n = 30
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  []string
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			id, err := repo.CreateOrder(ctx, newOrder(userID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, id)
		}(int64(100 + i))
	}
	wg.Wait()

	if len(errs) != 0 {
		t.Fatalf("CreateOrder errors: %v", errs)
	}
	sort.Strings(ids)
	for i, id := range ids {
		if want := fmt.Sprintf("#2025-%03d", i+1); id != want {
			t.Fatalf("ids[%d] = %s, want %s (all: %v)", i, id, want, ids)
		}
	}
	if len(ids) != n {
		t.Fatalf("ids = %d, want %d", len(ids), n)
	}
}

func TestCreateOrderStoresFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	users := NewUserRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()
	repo.now = fixedNow(baseTime)

	if _, err := users.EnsureUser(ctx, models.UserProfile{UserID: 42, Username: "ivan", FullName: "Иван"}); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	id, err := repo.CreateOrder(ctx, newOrder(42))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	order, err := repo.GetOrderByID(ctx, id)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if order.Status != models.OrderStatusNew {
		t.Errorf("status = %s, want new", order.Status)
	}
	if order.BusinessType != "Товары" || order.Goal != "Продажи" || order.Phone != "+79991234567" {
		t.Errorf("unexpected order fields: %+v", order)
	}
	if order.TelegramUserID != 42 || order.FullName != "Иван" {
		t.Errorf("unexpected user fields: %+v", order)
	}
	if !order.CreatedAt.Equal(baseTime) {
		t.Errorf("created_at = %v, want %v", order.CreatedAt, baseTime)
	}

	last, err := repo.GetLastOrderForUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetLastOrderForUser: %v", err)
	}
	if last.OrderID != id {
		t.Errorf("last order = %s, want %s", last.OrderID, id)
	}

	if _, err := repo.GetLastOrderForUser(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLastOrderForUser for unknown user: got %v, want ErrNotFound", err)
	}
}

func TestCountOrdersSince(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()

	offsets := []time.Duration{-2 * time.Hour, -50 * time.Minute, -30 * time.Minute, -10 * time.Minute, -time.Minute}
	for _, off := range offsets {
		repo.now = fixedNow(baseTime.Add(off))
		if _, err := repo.CreateOrder(ctx, newOrder(1)); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	repo.now = fixedNow(baseTime)
	if _, err := repo.CreateOrder(ctx, newOrder(2)); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	count, err := repo.CountOrdersSince(ctx, 1, baseTime.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountOrdersSince: %v", err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
}

func TestGetStaleOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()

	repo.now = fixedNow(baseTime.Add(-61 * time.Minute))
	old, err := repo.CreateOrder(ctx, newOrder(1))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	repo.now = fixedNow(baseTime.Add(-59 * time.Minute))
	if _, err := repo.CreateOrder(ctx, newOrder(2)); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	repo.now = fixedNow(baseTime)
	stale, err := repo.GetStaleOrders(ctx, time.Hour)
	if err != nil {
		t.Fatalf("GetStaleOrders: %v", err)
	}
	if len(stale) != 1 || stale[0].OrderID != old {
		t.Fatalf("stale = %+v, want only %s", stale, old)
	}

	if err := repo.UpdateStatus(ctx, old, models.StatusUpdate{Status: models.OrderStatusDone}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	stale, err = repo.GetStaleOrders(ctx, time.Hour)
	if err != nil {
		t.Fatalf("GetStaleOrders: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("stale after done = %d, want 0", len(stale))
	}
}

func TestUpdateStatusAndClaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()
	repo.now = fixedNow(baseTime)

	id, err := repo.CreateOrder(ctx, newOrder(1))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	claimed, err := repo.ClaimOrder(ctx, id, 555)
	if err != nil || !claimed {
		t.Fatalf("first ClaimOrder = %v, %v; want true", claimed, err)
	}
	claimed, err = repo.ClaimOrder(ctx, id, 777)
	if err != nil || claimed {
		t.Fatalf("second ClaimOrder = %v, %v; want false", claimed, err)
	}

	order, err := repo.GetOrderByID(ctx, id)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if order.Status != models.OrderStatusInProgress || order.ManagerID == nil || *order.ManagerID != 555 {
		t.Fatalf("after claim: status=%s manager=%v", order.Status, order.ManagerID)
	}

	notes := "созвонились"
	if err := repo.UpdateStatus(ctx, id, models.StatusUpdate{Status: models.OrderStatusDone, Notes: &notes}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	order, _ = repo.GetOrderByID(ctx, id)
	if order.Status != models.OrderStatusDone || order.Notes == nil || *order.Notes != notes {
		t.Fatalf("after update: %+v", order)
	}
	if *order.ManagerID != 555 {
		t.Errorf("manager_id changed to %d", *order.ManagerID)
	}

	err = repo.UpdateStatus(ctx, "#2025-999", models.StatusUpdate{Status: models.OrderStatusDone})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("UpdateStatus unknown: got %v, want ErrOrderNotFound", err)
	}
}

func TestGetOrdersForExport(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()

	repo.now = fixedNow(baseTime.Add(-24 * time.Hour))
	if _, err := repo.CreateOrder(ctx, newOrder(1)); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	repo.now = fixedNow(baseTime.Add(-time.Hour))
	today, err := repo.CreateOrder(ctx, newOrder(2))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	repo.now = fixedNow(baseTime)
	rows, err := repo.GetOrdersForExport(ctx, nil)
	if err != nil {
		t.Fatalf("GetOrdersForExport: %v", err)
	}
	if len(rows) != 1 || rows[0].OrderID != today {
		t.Fatalf("rows = %+v, want only %s", rows, today)
	}

	since := baseTime.Add(-48 * time.Hour)
	rows, err = repo.GetOrdersForExport(ctx, &since)
	if err != nil {
		t.Fatalf("GetOrdersForExport since: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows since = %d, want 2", len(rows))
	}
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, zap.NewNop(), time.UTC)
	ctx := context.Background()

	first, err := users.EnsureUser(ctx, models.UserProfile{UserID: 10, Username: "anna", FullName: "Анна"})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	second, err := users.EnsureUser(ctx, models.UserProfile{UserID: 10})
	if err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	if first != second {
		t.Fatalf("EnsureUser returned %d then %d", first, second)
	}

	if err := users.UpdatePhone(ctx, 10, "+79990001122"); err != nil {
		t.Fatalf("UpdatePhone: %v", err)
	}
	user, err := users.GetUserByTelegramID(ctx, 10)
	if err != nil {
		t.Fatalf("GetUserByTelegramID: %v", err)
	}
	if user.Username != "anna" || user.Phone == nil || *user.Phone != "+79990001122" {
		t.Fatalf("user = %+v", user)
	}

	if _, err := users.GetUserByTelegramID(ctx, 11); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: got %v", err)
	}

	if _, err := users.EnsureUser(ctx, models.UserProfile{UserID: 20}); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	ids, err := users.ListActiveUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListActiveUserIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestManagerRepository(t *testing.T) {
	db := newTestDB(t)
	managers := NewManagerRepository(db, zap.NewNop())
	ctx := context.Background()

	if err := managers.AddManager(ctx, 1001, "Ольга"); err != nil {
		t.Fatalf("AddManager: %v", err)
	}
	if err := managers.AddManager(ctx, 1002, "Петр"); err != nil {
		t.Fatalf("AddManager: %v", err)
	}
	if err := managers.DeactivateManager(ctx, 1001); err != nil {
		t.Fatalf("DeactivateManager: %v", err)
	}

	active, err := managers.ListActiveManagers(ctx)
	if err != nil {
		t.Fatalf("ListActiveManagers: %v", err)
	}
	if len(active) != 1 || active[0].TelegramID != 1002 || !active[0].IsActive {
		t.Fatalf("active = %+v", active)
	}

	if err := managers.AddManager(ctx, 1001, ""); err != nil {
		t.Fatalf("AddManager reactivate: %v", err)
	}
	active, _ = managers.ListActiveManagers(ctx)
	if len(active) != 2 || active[0].Name != "Ольга" {
		t.Fatalf("after reactivate = %+v", active)
	}

	if err := managers.DeactivateManager(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeactivateManager unknown: got %v", err)
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db, zap.NewNop(), time.UTC)
	orders := NewOrderRepository(db, zap.NewNop(), time.UTC)
	events := NewAnalyticsRepository(db, zap.NewNop(), time.UTC)
	stats := NewStatsRepository(db, zap.NewNop(), time.UTC)

	orders.now = fixedNow(baseTime)
	events.now = fixedNow(baseTime)
	stats.now = fixedNow(baseTime)

	for _, id := range []int64{1, 2, 3} {
		if _, err := users.EnsureUser(ctx, models.UserProfile{UserID: id}); err != nil {
			t.Fatalf("EnsureUser: %v", err)
		}
	}
	first, _ := orders.CreateOrder(ctx, newOrder(1))
	if _, err := orders.CreateOrder(ctx, newOrder(2)); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := orders.UpdateStatus(ctx, first, models.StatusUpdate{Status: models.OrderStatusDone}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	uid := int64(1)
	if err := events.LogEvent(ctx, models.AnalyticsEvent{EventType: models.EventStart, UserID: &uid}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if err := events.LogEvent(ctx, models.AnalyticsEvent{EventType: models.EventStart, CreatedAt: baseTime.Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	got, err := stats.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := models.Stats{UsersTotal: 3, OrdersTotal: 2, OrdersNew: 1, StartsToday: 1}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
}
