package store

import (
	"context"
	"fmt"
	"time"

	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis persists snapshots as JSON strings.
// Keys are namespaced as "{prefix}:session:{session_id}".
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Prefix string        // key prefix, default "companion"
	TTL    time.Duration // snapshot expiry, 0 = no expiry
}

// NewRedis creates a store over any go-redis client (Client, ClusterClient, Ring).
func NewRedis(client redis.Cmdable, config ...RedisConfig) *Redis {
	cfg := RedisConfig{Prefix: "companion"}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "companion"
	}
	return &Redis{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}
	return client, nil
}

func (r *Redis) key(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, sessionID)
}

func (r *Redis) Load(ctx context.Context, sessionID string) (*companion.Snapshot, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get snapshot")
	}
	return decodeSnapshot(data)
}

func (r *Redis) Save(ctx context.Context, sessionID string, snap *companion.Snapshot) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set snapshot")
	}
	return nil
}

// Delete removes a session snapshot.
func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "redis del snapshot")
	}
	return nil
}
