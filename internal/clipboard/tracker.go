// Package clipboard tracks short-lived "copied" indicators per user.
package clipboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AllID marks the full text of a result as copied.
const AllID = "all"

// DefaultIndicatorTTL is how long a copy stays marked.
const DefaultIndicatorTTL = 2 * time.Second

const copiedKeyPattern = "copied:%s"

// Tracker records copy actions for a user's current result. Marks are kept
// in a sorted set scored by their expiry time in milliseconds.
type Tracker struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewTracker(redisClient *redis.Client) *Tracker {
	return &Tracker{
		redis: redisClient,
		ttl:   DefaultIndicatorTTL,
		now:   time.Now,
	}
}

// TTL returns how long a mark lasts.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

// MarkCopied marks id as copied for the tracker TTL.
func (t *Tracker) MarkCopied(ctx context.Context, userID, id string) error {
	key := fmt.Sprintf(copiedKeyPattern, userID)
	expiry := t.now().Add(t.ttl).UnixMilli()

	_, err := t.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(expiry), Member: id})
		pipe.Expire(ctx, key, t.ttl+time.Second)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark copied: %w", err)
	}
	return nil
}

// Copied returns the ids whose mark has not expired yet.
func (t *Tracker) Copied(ctx context.Context, userID string) (map[string]bool, error) {
	key := fmt.Sprintf(copiedKeyPattern, userID)
	from := strconv.FormatInt(t.now().UnixMilli()+1, 10)

	ids, err := t.redis.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: from, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read copied marks: %w", err)
	}

	copied := make(map[string]bool, len(ids))
	for _, id := range ids {
		copied[id] = true
	}
	return copied, nil
}

// Reset drops every mark of the user.
func (t *Tracker) Reset(ctx context.Context, userID string) error {
	return t.redis.Del(ctx, fmt.Sprintf(copiedKeyPattern, userID)).Err()
}
