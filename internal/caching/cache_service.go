package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dinerhub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dinerhub:"

type CacheService interface {
	// Dish caching
	GetDish(ctx context.Context, dishID uuid.UUID) (*models.Dish, error)
	SetDish(ctx context.Context, dish *models.Dish, ttl time.Duration) error
	DeleteDish(ctx context.Context, dishID uuid.UUID) error

	// Dashboard caching
	GetStats(ctx context.Context) (*models.DashboardStats, error)
	SetStats(ctx context.Context, stats *models.DashboardStats, ttl time.Duration) error

	// Role permission sets
	GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]string, bool, error)
	SetRolePermissions(ctx context.Context, roleID uuid.UUID, names []string, ttl time.Duration) error
	DeleteRolePermissions(ctx context.Context, roleID uuid.UUID) error

	// Device sessions, one hash per user keyed by device id
	SetSession(ctx context.Context, userID string, session *models.Session, ttl time.Duration) error
	GetSession(ctx context.Context, userID, deviceID string) (*models.Session, error)
	ListSessions(ctx context.Context, userID string) ([]*models.Session, error)
	DeleteSession(ctx context.Context, userID, deviceID string) error
	DeleteAllSessions(ctx context.Context, userID string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error

	// Pub/sub for live events
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int, logger *slog.Logger) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", "addr", parsedAddr, "error", pingErr)
	} else {
		logger.Debug("redis connection established", "addr", parsedAddr)
	}

	return &redisCacheService{client: client}
}

// NewCacheServiceFromClient wraps an existing client.
func NewCacheServiceFromClient(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

func (r *redisCacheService) getJSON(ctx context.Context, k string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, k string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, k, data, ttl).Err()
}

func (r *redisCacheService) GetDish(ctx context.Context, dishID uuid.UUID) (*models.Dish, error) {
	var dish models.Dish
	found, err := r.getJSON(ctx, key("dish", dishID.String()), &dish)
	if err != nil || !found {
		return nil, err
	}
	return &dish, nil
}

func (r *redisCacheService) SetDish(ctx context.Context, dish *models.Dish, ttl time.Duration) error {
	return r.setJSON(ctx, key("dish", dish.ID.String()), dish, ttl)
}

func (r *redisCacheService) DeleteDish(ctx context.Context, dishID uuid.UUID) error {
	return r.client.Del(ctx, key("dish", dishID.String())).Err()
}

func (r *redisCacheService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	found, err := r.getJSON(ctx, key("stats"), &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetStats(ctx context.Context, stats *models.DashboardStats, ttl time.Duration) error {
	return r.setJSON(ctx, key("stats"), stats, ttl)
}

func (r *redisCacheService) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]string, bool, error) {
	var names []string
	found, err := r.getJSON(ctx, key("role_perms", roleID.String()), &names)
	return names, found, err
}

func (r *redisCacheService) SetRolePermissions(ctx context.Context, roleID uuid.UUID, names []string, ttl time.Duration) error {
	if names == nil {
		names = []string{}
	}
	return r.setJSON(ctx, key("role_perms", roleID.String()), names, ttl)
}

func (r *redisCacheService) DeleteRolePermissions(ctx context.Context, roleID uuid.UUID) error {
	return r.client.Del(ctx, key("role_perms", roleID.String())).Err()
}

func (r *redisCacheService) SetSession(ctx context.Context, userID string, session *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(sessionRecord{Session: *session, TokenHash: session.TokenHash})
	if err != nil {
		return err
	}
	k := key("sessions", userID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, k, session.DeviceID, data)
	pipe.Expire(ctx, k, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// sessionRecord persists the token hash that Session hides from JSON responses.
type sessionRecord struct {
	models.Session
	TokenHash string `json:"token_hash"`
}

func (r *redisCacheService) GetSession(ctx context.Context, userID, deviceID string) (*models.Session, error) {
	data, err := r.client.HGet(ctx, key("sessions", userID), deviceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeSession(data)
}

func (r *redisCacheService) ListSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	all, err := r.client.HGetAll(ctx, key("sessions", userID)).Result()
	if err != nil {
		return nil, err
	}
	sessions := make([]*models.Session, 0, len(all))
	for device, raw := range all {
		s, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", device, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func decodeSession(data []byte) (*models.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	s := rec.Session
	s.TokenHash = rec.TokenHash
	return &s, nil
}

func (r *redisCacheService) DeleteSession(ctx context.Context, userID, deviceID string) error {
	return r.client.HDel(ctx, key("sessions", userID), deviceID).Err()
}

func (r *redisCacheService) DeleteAllSessions(ctx context.Context, userID string) error {
	return r.client.Del(ctx, key("sessions", userID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, k string, limit int, window time.Duration) (bool, error) {
	cacheKey := key("ratelimit", k)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			return true, err
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, k string) error {
	return r.client.Del(ctx, key("ratelimit", k)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, k string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+k, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, k string) (string, error) {
	val, err := r.client.Get(ctx, keyPrefix+k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Incr(ctx context.Context, k string) (int64, error) {
	return r.client.Incr(ctx, keyPrefix+k).Result()
}

func (r *redisCacheService) Delete(ctx context.Context, k string) error {
	return r.client.Del(ctx, keyPrefix+k).Err()
}

func (r *redisCacheService) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.client.Publish(ctx, key("events", channel), payload).Err()
}

// Subscribe listens on the event channels for the given topics.
func (r *redisCacheService) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	full := make([]string, len(channels))
	for i, c := range channels {
		full[i] = key("events", c)
	}
	return r.client.Subscribe(ctx, full...)
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
