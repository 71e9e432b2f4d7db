package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenStore 服务端 session token 存储：签发即写入，注销即删除。
// Verify 阶段要求 token 仍然在库，使得 logout 在服务端立即生效。
type TokenStore interface {
	Save(ctx context.Context, token, username string, ttl time.Duration) error
	Valid(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

// MemoryStore 进程内实现：单进程部署的默认选择，进程结束即清空
//（与“会话随进程结束而失效”的语义一致）。
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> 过期时间
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]time.Time)}
}

func (m *MemoryStore) Save(_ context.Context, token, _ string, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryStore) Valid(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[token]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(m.tokens, token)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

// RedisStore Redis 实现：key 带 TTL，多实例部署时共享会话。
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(token string) string {
	return "session:" + token
}

func (r *RedisStore) Save(ctx context.Context, token, username string, ttl time.Duration) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	return r.rdb.Set(ctx, redisKey(token), username, ttl).Err()
}

func (r *RedisStore) Valid(ctx context.Context, token string) (bool, error) {
	if r == nil || r.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	_, err := r.rdb.Get(ctx, redisKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	return r.rdb.Del(ctx, redisKey(token)).Err()
}
