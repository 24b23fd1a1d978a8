// Package redis stores session carts in Redis and provides a Redis-backed
// session lock for deployments running more than one instance.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront/pkg/cart"
	"storefront/pkg/logger"
	"storefront/pkg/session"
)

// Backend keeps each cart as JSON under cart:<sid> and refreshes the TTL on every write.
type Backend struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Backend = (*Backend)(nil)

// New creates a Backend. A zero ttl keeps carts until they are cleared.
func New(client *redis.Client, ttl time.Duration) *Backend {
	return &Backend{client: client, ttl: ttl}
}

func (b *Backend) Get(ctx context.Context, sid string) (*cart.Cart, error) {
	data, err := b.client.Get(ctx, cartKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNoCart
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &c, nil
}

func (b *Backend) Put(ctx context.Context, sid string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := b.client.Set(ctx, cartKey(sid), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, sid string) error {
	if err := b.client.Del(ctx, cartKey(sid)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sid string) string {
	return fmt.Sprintf("cart:%s", sid)
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a session.Locker built on SET NX PX.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	log    *logger.Logger
}

var _ session.Locker = (*Locker)(nil)

// NewLocker creates a Locker whose locks expire after ttl if never released.
// Failed releases are logged to log, which may be nil.
func NewLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *Locker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Locker{client: client, ttl: ttl, retry: 25 * time.Millisecond, log: log}
}

// Lock polls until the lock for key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := lockKey(key)
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			break
		}
		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return func() {
		// Released on a fresh context so a cancelled request still frees the lock.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Int()
		switch {
		case err != nil:
			l.log.Warn(ctx, "redis unlock failed", "key", lockKey, "error", err)
		case n == 0:
			l.log.Warn(ctx, "redis lock expired before release", "key", lockKey, "ttl", l.ttl)
		}
	}, nil
}

func lockKey(key string) string {
	return fmt.Sprintf("cart-lock:%s", key)
}
