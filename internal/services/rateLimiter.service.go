package services

import (
	"context"
	"errors"
	"fmt"
	"palcontent/internal/database"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

const RATE_LIMIT_HASH = "rate_limit"

var ErrRateLimited = errors.New("rate limit exceeded")

type RateLimit struct {
	Name   string
	Limit  int64
	Window time.Duration
}

var (
	// Per franchise, for direct and test SMS sends.
	SMSSendLimit = RateLimit{Name: "sms_send", Limit: 30, Window: time.Minute}
	// Per destination, so one customer is not asked for a review twice in a day.
	ReviewRequestLimit = RateLimit{Name: "review_request", Limit: 2, Window: 24 * time.Hour}
	// Per client address on the public submit code lookup.
	SubmitCodeLimit = RateLimit{Name: "submit_code", Limit: 20, Window: time.Minute}
)

// RateLimiterService counts requests in fixed windows stored in valkey.
// Without a cache, or when the cache fails, requests are allowed.
type RateLimiterService struct {
	log   logger.Logger
	cache database.CacheClient
	now   func() time.Time
}

func NewRateLimiterService(cache database.CacheClient) *RateLimiterService {
	return &RateLimiterService{
		log:   logger.New("RateLimiterService"),
		cache: cache,
		now:   time.Now,
	}
}

func (r *RateLimiterService) windowKey(limit RateLimit, subject string) string {
	window := r.now().UTC().Truncate(limit.Window).Unix()
	return fmt.Sprintf("%s:%s:%d", limit.Name, subject, window)
}

// Allow records one request for the subject and reports ErrRateLimited once
// the window's budget is spent.
func (r *RateLimiterService) Allow(ctx context.Context, limit RateLimit, subject string) error {
	log := r.log.TraceFromContext(ctx).Function("Allow")

	if r.cache == nil {
		return nil
	}

	count, err := database.NewCacheBuilder(r.cache, r.windowKey(limit, subject)).
		WithContext(ctx).
		WithHash(RATE_LIMIT_HASH).
		WithTTL(limit.Window).
		Increment()
	if err != nil {
		log.Warn("rate limit check failed, allowing request", "limit", limit.Name, "error", err)
		return nil
	}

	if count > limit.Limit {
		return log.Err("rate limited", ErrRateLimited,
			"limit", limit.Name,
			"subject", subject,
			"count", count,
			"max", limit.Limit)
	}

	return nil
}

func (r *RateLimiterService) AllowFranchise(ctx context.Context, limit RateLimit, franchiseeID uuid.UUID) error {
	return r.Allow(ctx, limit, franchiseeID.String())
}
