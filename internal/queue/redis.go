package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/awesome-academy/booking-tour/config"
	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/redis/go-redis/v9"
)

// EmailQueue is the durable notification queue: a Redis list holds jobs ready
// for delivery, and a sorted set keyed <queue>:delayed parks retries until
// their release time. The queue key is injected so tests and deployments can
// use isolated namespaces.
type EmailQueue struct {
	client     *redis.Client
	queueKey   string
	delayedKey string
}

func NewEmailQueue(cfg config.RedisConfig, queueKey string) *EmailQueue {
	return &EmailQueue{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		queueKey:   queueKey,
		delayedKey: queueKey + ":delayed",
	}
}

func (q *EmailQueue) Enqueue(ctx context.Context, job domain.EmailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.queueKey, payload).Err()
}

// Pop blocks for up to timeout waiting for a job. Returns nil when the queue
// stayed empty.
func (q *EmailQueue) Pop(ctx context.Context, timeout time.Duration) (*domain.EmailJob, error) {
	res, err := q.client.BRPop(ctx, timeout, q.queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}

	var job domain.EmailJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// EnqueueDelayed parks the job until releaseAt, scored by epoch millis.
func (q *EmailQueue) EnqueueDelayed(ctx context.Context, job domain.EmailJob, releaseAt time.Time) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, q.delayedKey, redis.Z{
		Score:  float64(releaseAt.UnixMilli()),
		Member: payload,
	}).Err()
}

// MoveDue replays delayed entries whose release time has passed back onto the
// main queue. A member is pushed only when this worker won the ZRem, so
// competing workers never duplicate a job here.
func (q *EmailQueue) MoveDue(ctx context.Context, now time.Time) (int, error) {
	members, err := q.client.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min: "0",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range members {
		removed, err := q.client.ZRem(ctx, q.delayedKey, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.queueKey, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
