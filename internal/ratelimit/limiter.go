package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Metadata is kept alongside each throttle record for abuse forensics. It
// is written on every attempt, allowed or not.
type Metadata struct {
	IPAddress string
	UserAgent string
}

// Result is the outcome of one throttle check.
type Result struct {
	Allowed bool
	// Count is the number of reports seen in the current window, this one
	// included.
	Count int64
	// RetryAfter is the remainder of the window; meaningful when throttled.
	RetryAfter time.Duration
}

// Limiter throttles report submissions per (device fingerprint, asset)
// pair. Records live in redis with a TTL equal to the window, so a pair
// with no activity for a full window is treated as never seen. The
// INCR-based check is a single atomic round trip: two concurrent first
// reports cannot both observe an absent record.
type Limiter struct {
	client *redis.Client
	window time.Duration
	max    int64
}

// NewLimiter builds a limiter with the given window and per-window cap.
func NewLimiter(client *redis.Client, window time.Duration, maxPerWindow int) *Limiter {
	if window <= 0 {
		window = 600 * time.Second
	}
	if maxPerWindow <= 0 {
		maxPerWindow = 1
	}
	return &Limiter{client: client, window: window, max: int64(maxPerWindow)}
}

// CheckAndRecord counts this submission against the pair's window and
// reports whether it is allowed. Every call refreshes the record TTL and
// the forensics metadata.
func (l *Limiter) CheckAndRecord(ctx context.Context, fingerprint, assetID string, now time.Time, meta Metadata) (Result, error) {
	key := recordKey(fingerprint, assetID)
	mKey := metadataKey(fingerprint, assetID)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	pipe.HSet(ctx, mKey,
		"ip_address", meta.IPAddress,
		"user_agent", meta.UserAgent,
		"last_report_at", now.UTC().Format(time.RFC3339),
	)
	pipe.Expire(ctx, mKey, l.window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}

	count := incr.Val()
	res := Result{
		Allowed: count <= l.max,
		Count:   count,
	}
	if !res.Allowed {
		res.RetryAfter = ttl.Val()
		if res.RetryAfter < 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

func recordKey(fingerprint, assetID string) string {
	return fmt.Sprintf("ratelimit:%s:%s", fingerprint, assetID)
}

func metadataKey(fingerprint, assetID string) string {
	return fmt.Sprintf("ratelimit:meta:%s:%s", fingerprint, assetID)
}
