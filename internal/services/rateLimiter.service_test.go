package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

func newRateLimiter(t *testing.T) (*RateLimiterService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{mr.Addr()}, DisableCache: true})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return NewRateLimiterService(client), mr
}

func TestRateLimiterService_Allow(t *testing.T) {
	limiter, _ := newRateLimiter(t)
	limit := RateLimit{Name: "test", Limit: 2, Window: time.Minute}
	fixed := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	require.NoError(t, limiter.Allow(context.Background(), limit, "+15551234567"))
	require.NoError(t, limiter.Allow(context.Background(), limit, "+15551234567"))
	err := limiter.Allow(context.Background(), limit, "+15551234567")
	assert.True(t, errors.Is(err, ErrRateLimited))

	assert.NoError(t, limiter.Allow(context.Background(), limit, "+15559999999"), "subjects are counted separately")

	fixed = fixed.Add(time.Minute)
	assert.NoError(t, limiter.Allow(context.Background(), limit, "+15551234567"), "new window resets the budget")
}

func TestRateLimiterService_AllowFranchise(t *testing.T) {
	limiter, mr := newRateLimiter(t)
	franchiseeID := uuid.New()
	limit := RateLimit{Name: "sms_send", Limit: 1, Window: time.Hour}

	require.NoError(t, limiter.AllowFranchise(context.Background(), limit, franchiseeID))
	assert.Error(t, limiter.AllowFranchise(context.Background(), limit, franchiseeID))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))
}

func TestRateLimiterService_FailsOpen(t *testing.T) {
	noCache := NewRateLimiterService(nil)
	for range 5 {
		assert.NoError(t, noCache.Allow(context.Background(), SMSSendLimit, "anyone"))
	}

	limiter, mr := newRateLimiter(t)
	mr.Close()
	assert.NoError(t, limiter.Allow(context.Background(), ReviewRequestLimit, "customer@example.com"))
}
