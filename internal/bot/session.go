package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Step: шаг квиза, на котором находится пользователь.
type Step string

const (
	StepBusinessType Step = "business_type"
	StepGoal         Step = "goal"
	StepContact      Step = "contact"
	StepConfirm      Step = "confirm"
)

// Ключи ответов в сессии
const (
	answerBusinessType      = "business_type"
	answerGoal              = "goal"
	answerPhone             = "phone"
	answerContactPreference = "contact_preference"
)

// QuizSession: состояние квиза одного пользователя.
type QuizSession struct {
	Step    Step              `json:"step"`
	Answers map[string]string `json:"answers"`
}

func newQuizSession() *QuizSession {
	return &QuizSession{Step: StepBusinessType, Answers: make(map[string]string)}
}

// SessionStore хранит сессии квиза. Get возвращает nil без ошибки, если сессии нет.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*QuizSession, error)
	Save(ctx context.Context, userID int64, session *QuizSession) error
	Delete(ctx context.Context, userID int64) error
}

// MemorySessionStore хранит сессии в памяти процесса; после перезапуска они теряются.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]QuizSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]QuizSession)}
}

func (s *MemorySessionStore) Get(_ context.Context, userID int64) (*QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return session.clone(), nil
}

func (s *MemorySessionStore) Save(_ context.Context, userID int64, session *QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = *session.clone()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

func (q *QuizSession) clone() *QuizSession {
	answers := make(map[string]string, len(q.Answers))
	for k, v := range q.Answers {
		answers[k] = v
	}
	return &QuizSession{Step: q.Step, Answers: answers}
}

const sessionKeyPrefix = "quiz:session:"

// RedisSessionStore хранит сессии в Redis в JSON с TTL, чтобы брошенные квизы не копились.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisSessionStore) Get(ctx context.Context, userID int64) (*QuizSession, error) {
	res, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session QuizSession
	if err := json.Unmarshal([]byte(res), &session); err != nil {
		return nil, fmt.Errorf("json unmarshal session: %w", err)
	}
	if session.Answers == nil {
		session.Answers = make(map[string]string)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, userID int64, session *QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("json marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
