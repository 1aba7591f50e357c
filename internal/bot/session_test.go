package bot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testSessionStore(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Get(ctx, 1)
	if err != nil || got != nil {
		t.Fatalf("Get on empty store = %+v, %v", got, err)
	}

	session := newQuizSession()
	session.Answers[answerBusinessType] = "Товары"
	session.Step = StepGoal
	if err := store.Save(ctx, 1, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = store.Get(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if got.Step != StepGoal || got.Answers[answerBusinessType] != "Товары" {
		t.Fatalf("session = %+v", got)
	}

	// изменения полученной копии не попадают в хранилище без Save
	got.Answers[answerGoal] = "Продажи"
	again, _ := store.Get(ctx, 1)
	if _, ok := again.Answers[answerGoal]; ok {
		t.Fatal("session mutated without Save")
	}

	if other, _ := store.Get(ctx, 2); other != nil {
		t.Fatal("session leaked to another user")
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.Get(ctx, 1); got != nil {
		t.Fatalf("session after Delete = %+v", got)
	}
	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	testSessionStore(t, NewMemorySessionStore())
}

func TestRedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	testSessionStore(t, NewRedisSessionStore(client, time.Hour))
}

func TestRedisSessionStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisSessionStore(client, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, 5, newQuizSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(sessionKey(5)); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if got, err := store.Get(ctx, 5); err != nil || got != nil {
		t.Fatalf("expired session = %+v, %v", got, err)
	}
}
