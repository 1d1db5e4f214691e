package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	contentKeyPrefix = "metrics:content"
	requestKeyPrefix = "metrics:requests"

	// Buckets outlive the day they count so yesterday stays inspectable.
	bucketTTL = 48 * time.Hour
)

// MetricRepo tracks per-day counters in Redis. Content buckets feed the
// page quota calculation; request buckets are plain endpoint tallies.
type MetricRepo struct {
	rdb *redis.Client
}

func NewMetricRepo(rdb *redis.Client) *MetricRepo {
	return &MetricRepo{rdb: rdb}
}

func dayBucket(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

func contentKey(contentType string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s", contentKeyPrefix, contentType, dayBucket(now))
}

// BumpContent counts one piece of content created today.
func (r *MetricRepo) BumpContent(ctx context.Context, contentType string, now time.Time) error {
	key := contentKey(contentType, now)
	if err := r.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return r.rdb.Expire(ctx, key, bucketTTL).Err()
}

// ContentCount reads today's bucket for one content type. A missing bucket
// counts as zero.
func (r *MetricRepo) ContentCount(ctx context.Context, contentType string, now time.Time) (int64, error) {
	count, err := r.rdb.Get(ctx, contentKey(contentType, now)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// MarkRequest tallies one hit on an endpoint for today.
func (r *MetricRepo) MarkRequest(ctx context.Context, endpoint string, now time.Time) error {
	key := fmt.Sprintf("%s:%s:%s", requestKeyPrefix, endpoint, dayBucket(now))
	if err := r.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return r.rdb.Expire(ctx, key, bucketTTL).Err()
}
