package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

type Redis interface {
	Client() *redis.Client
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Host     string
	Port     uint16
	Password string
	DB       int
}

type rdb struct {
	client *redis.Client
}

func New(cfg *Config) (Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &rdb{client: client}, nil
}

func (r *rdb) Client() *redis.Client {
	return r.client
}

func (r *rdb) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *rdb) Close() error {
	return r.client.Close()
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease on a key shared by every process using the same redis.
type Lock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewLock(client redis.Cmdable, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire returns a release token, or ok=false when another holder owns the key.
func (l *Lock) Acquire(ctx context.Context) (token string, ok bool, err error) {
	token = uuid.NewString()

	ok, err = l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}

	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (l *Lock) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}

	return nil
}
