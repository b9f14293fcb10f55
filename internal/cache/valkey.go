package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
	SessionsTTL  time.Duration
}

type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
	sessionsTTL  time.Duration
}

// Identity is the cached result of a successful Basic Auth check.
// Role and HostID ride along so a cache hit resolves the admin scope
// without touching the database.
type Identity struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	HostID *int64 `json:"host_id,omitempty"`
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
		sessionsTTL:  cfg.SessionsTTL,
	}, nil
}

func authCacheKey(email, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordHash))
}

// GetIdentityByAuth looks up a previously verified credential pair.
func (v *ValkeyClient) GetIdentityByAuth(ctx context.Context, email, passwordHash string) (*Identity, error) {
	raw, err := v.client.HGet(ctx, v.usersHashKey, authCacheKey(email, passwordHash)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("identity not found in cache")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("invalid identity in cache: %w", err)
	}
	return &id, nil
}

// SetIdentityByAuth stores a verified credential pair. Best effort;
// auth falls back to the database when the cache is unavailable.
func (v *ValkeyClient) SetIdentityByAuth(ctx context.Context, email, passwordHash string, id Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return v.client.HSet(ctx, v.usersHashKey, authCacheKey(email, passwordHash), string(raw)).Err()
}

// GetSessions returns the cached raw JSON for a session list key, or
// "" on a miss.
func (v *ValkeyClient) GetSessions(ctx context.Context, key string) (string, error) {
	raw, err := v.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return raw, err
}

// SetSessions caches a session list response body for the configured
// TTL. Occupancy inside it goes stale for at most that long; the
// reservation path never reads it.
func (v *ValkeyClient) SetSessions(ctx context.Context, key, raw string) error {
	return v.client.Set(ctx, key, raw, v.sessionsTTL).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
