package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps OAuth CSRF states. Each state can be consumed once.
type StateStore interface {
	Save(ctx context.Context, state, provider string, ttl time.Duration) error
	// Consume returns the provider the state was issued for and forgets the state.
	Consume(ctx context.Context, state string) (string, error)
}

type memoryState struct {
	provider  string
	expiresAt time.Time
}

// MemoryStateStore keeps states in process. Use RedisStateStore when running more than one instance.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]memoryState
	now    func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]memoryState),
		now:    time.Now,
	}
}

func (m *MemoryStateStore) Save(ctx context.Context, state, provider string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, v := range m.states {
		if now.After(v.expiresAt) {
			delete(m.states, k)
		}
	}
	m.states[state] = memoryState{provider: provider, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryStateStore) Consume(ctx context.Context, state string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.states[state]
	if !ok {
		return "", ErrInvalidState
	}
	delete(m.states, state)

	if m.now().After(entry.expiresAt) {
		return "", ErrInvalidState
	}
	return entry.provider, nil
}

const redisStatePrefix = "dashboard:oauth_state:"

type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (r *RedisStateStore) Save(ctx context.Context, state, provider string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, redisStatePrefix+state, provider, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "failed to store oauth state")
	}
	if !ok {
		return errors.New("oauth state collision")
	}
	return nil
}

func (r *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	provider, err := r.client.GetDel(ctx, redisStatePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidState
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read oauth state")
	}
	return provider, nil
}
