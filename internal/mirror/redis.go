package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aiomayo/portwatch/internal/inventory"
	"github.com/go-redis/redis/v8"
)

const DefaultKey = "portwatch:snapshot"

type Mode int

const (
	ModeSingle Mode = iota
	ModeSentinel
	ModeCluster
)

type Options struct {
	Addrs      []string
	MasterName string
	Password   string
	Mode       Mode
	Key        string
	TTL        time.Duration
}

// Redis stores the latest snapshot under a single key with a short TTL.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func New(ctx context.Context, opts Options) (*Redis, error) {
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redis addrs is required")
	}

	var client redis.UniversalClient
	switch opts.Mode {
	case ModeSentinel:
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			SentinelAddrs: opts.Addrs,
			MasterName:    opts.MasterName,
			Password:      opts.Password,
		})
	case ModeCluster:
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    opts.Addrs,
			Password: opts.Password,
		})
	case ModeSingle:
		client = redis.NewClient(&redis.Options{
			Addr:     opts.Addrs[0],
			Password: opts.Password,
		})
	default:
		return nil, fmt.Errorf("redis mode %d is not valid", opts.Mode)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(client, opts.Key, opts.TTL), nil
}

func NewWithClient(client redis.UniversalClient, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context) (*inventory.Snapshot, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inventory.DecodeSnapshot(b)
}

func (r *Redis) Save(ctx context.Context, s *inventory.Snapshot) error {
	b, err := inventory.EncodeSnapshot(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, b, r.ttl).Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "single":
		return ModeSingle, nil
	case "sentinel":
		return ModeSentinel, nil
	case "cluster":
		return ModeCluster, nil
	default:
		return ModeSingle, fmt.Errorf("invalid redis mode %q: must be one of: single, sentinel, cluster", s)
	}
}
