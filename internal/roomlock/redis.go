package roomlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"qufit/backend/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only if it still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a lease lock shared by every API instance using the same Redis.
// While held, the lease is extended every TTL/3. If a renewal finds the key gone
// or taken (Redis restart, a stall longer than TTL), exclusion is lost and only
// the database row lock still protects the mutation; this is logged at ERROR.
type Redis struct {
	Client        *redis.Client
	TTL           time.Duration
	RetryInterval time.Duration
	Prefix        string
	Logger        *slog.Logger
}

// NewRedis returns a Redis locker with the default lease settings.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client:        client,
		TTL:           config.RoomLockTTL,
		RetryInterval: config.RoomLockRetryInterval,
		Prefix:        config.RoomLockKeyPrefix,
		Logger:        slog.Default(),
	}
}

// Lock polls SET NX until the lease is acquired or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.Prefix + key
	token := uuid.New().String()

	ticker := time.NewTicker(r.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.Client.SetNX(ctx, redisKey, token, r.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire room lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go r.keepAlive(redisKey, key, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed

			// The request context may already be cancelled; release on our own deadline.
			releaseCtx, cancel := context.WithTimeout(context.Background(), r.TTL)
			defer cancel()
			err := releaseScript.Run(releaseCtx, r.Client, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				r.Logger.Warn("failed to release room lock", "room_id", key, "error", err)
			}
		})
	}, nil
}

// keepAlive extends the lease until stop is closed.
func (r *Redis) keepAlive(redisKey, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := r.TTL / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		held, err := renewScript.Run(ctx, r.Client, []string{redisKey}, token, r.TTL.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			r.Logger.Warn("failed to renew room lock", "room_id", key, "error", err)
		case held == 0:
			r.Logger.Error("room lock lease lost", "room_id", key)
			return
		}
	}
}
