package caching

import (
	"context"
	"testing"
	"time"

	"dinerhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheServiceFromClient(client), mr
}

func TestDishCache_RoundTripAndExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	dish := &models.Dish{ID: uuid.New(), Name: "Pho", BasePrice: decimal.NewFromInt(55000), Active: true}

	miss, err := cache.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.SetDish(ctx, dish, time.Minute))
	got, err := cache.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pho", got.Name)
	assert.True(t, got.BasePrice.Equal(dish.BasePrice))

	mr.FastForward(2 * time.Minute)
	got, err = cache.GetDish(ctx, dish.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIsRateLimited(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limited, err := cache.IsRateLimited(ctx, "login:a@b.c", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, limited, "attempt %d", i+1)
	}
	limited, err := cache.IsRateLimited(ctx, "login:a@b.c", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)

	mr.FastForward(time.Minute + time.Second)
	limited, err = cache.IsRateLimited(ctx, "login:a@b.c", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestSessions_KeepTokenHash(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	userID := uuid.NewString()

	for _, device := range []string{"phone", "laptop"} {
		require.NoError(t, cache.SetSession(ctx, userID, &models.Session{
			UserID: userID, DeviceID: device, TokenHash: "hash-" + device, CreatedAt: time.Now(),
		}, time.Hour))
	}

	s, err := cache.GetSession(ctx, userID, "phone")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "hash-phone", s.TokenHash)

	all, err := cache.ListSessions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, cache.DeleteSession(ctx, userID, "phone"))
	s, err = cache.GetSession(ctx, userID, "phone")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, cache.DeleteAllSessions(ctx, userID))
	all, err = cache.ListSessions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRolePermissions_EmptySetIsAHit(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	roleID := uuid.New()

	_, found, err := cache.GetRolePermissions(ctx, roleID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetRolePermissions(ctx, roleID, nil, time.Minute))
	names, found, err := cache.GetRolePermissions(ctx, roleID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, names)
}

func TestPublishSubscribe(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := cache.Subscribe(ctx, "staff")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Publish(ctx, "staff", []byte(`{"type":"order_created"}`)))
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"order_created"}`, msg.Payload)
}

func TestStringsAndCounters(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	v, err := cache.GetString(ctx, "otp:x@y.z")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, cache.SetString(ctx, "otp:x@y.z", "123456", time.Minute))
	v, err = cache.GetString(ctx, "otp:x@y.z")
	require.NoError(t, err)
	assert.Equal(t, "123456", v)

	n, err := cache.Incr(ctx, "session_version:u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, cache.Delete(ctx, "otp:x@y.z"))
	v, err = cache.GetString(ctx, "otp:x@y.z")
	require.NoError(t, err)
	assert.Empty(t, v)
}
