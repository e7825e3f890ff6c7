package treasury

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const curveKey = "optionlab:treasury:curve"

// Cache stores the latest yield curve. GetCurve returns (nil, nil) when
// nothing is cached or the entry has expired.
type Cache interface {
	GetCurve(ctx context.Context) (*Curve, error)
	SetCurve(ctx context.Context, curve *Curve, ttl time.Duration) error
	Close() error
}

// MemoryCache implements the Cache interface using in-memory storage
type MemoryCache struct {
	mu      sync.RWMutex
	curve   *Curve
	expires time.Time
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (m *MemoryCache) GetCurve(_ context.Context) (*Curve, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.curve == nil || !m.now().Before(m.expires) {
		return nil, nil
	}
	cp := *m.curve
	cp.Tenors = append([]Tenor(nil), m.curve.Tenors...)
	return &cp, nil
}

func (m *MemoryCache) SetCurve(_ context.Context, curve *Curve, ttl time.Duration) error {
	if curve == nil {
		return errors.New("curve is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *curve
	cp.Tenors = append([]Tenor(nil), curve.Tenors...)
	m.curve = &cp
	m.expires = m.now().Add(ttl)
	return nil
}

func (m *MemoryCache) Close() error { return nil }

// RedisCache implements the Cache interface using Redis
type RedisCache struct {
	client *redis.Client
	key    string
}

// RedisOption is a function that configures Redis cache options
type RedisOption func(*RedisCache)

// WithKey sets the key the curve is stored under
func WithKey(key string) RedisOption {
	return func(rc *RedisCache) {
		rc.key = key
	}
}

// NewRedisCache connects to addr, a URL of the form tcp://:password@host:port/db
func NewRedisCache(ctx context.Context, addr string, options ...RedisOption) (*RedisCache, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing redis url %q", addr)
	}
	var passwd string
	if u.User != nil {
		passwd, _ = u.User.Password()
	}
	db := 0
	if 1 < len(u.Path) {
		db, err = strconv.Atoi(u.Path[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "redis db in %q", addr)
		}
	}
	network := u.Scheme
	if network == "" || network == "redis" {
		network = "tcp"
	}

	client := redis.NewClient(&redis.Options{
		Network:  network,
		Addr:     u.Host,
		Password: passwd,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	cache := &RedisCache{client: client, key: curveKey}
	for _, option := range options {
		option(cache)
	}
	return cache, nil
}

func (rc *RedisCache) GetCurve(ctx context.Context) (*Curve, error) {
	data, err := rc.client.Get(ctx, rc.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get curve from Redis")
	}

	var curve Curve
	if err := json.Unmarshal(data, &curve); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal curve")
	}
	return &curve, nil
}

func (rc *RedisCache) SetCurve(ctx context.Context, curve *Curve, ttl time.Duration) error {
	if curve == nil {
		return errors.New("curve is nil")
	}
	data, err := json.Marshal(curve)
	if err != nil {
		return errors.Wrap(err, "failed to marshal curve")
	}
	return rc.client.Set(ctx, rc.key, data, ttl).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
