package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrQueueEmpty = errors.New("sms queue empty")

// SMSJob is one outbound text message waiting for delivery.
type SMSJob struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SMSQueue is a FIFO on a Redis list: LPUSH to enqueue, BRPOP to consume.
type SMSQueue struct {
	client *redis.Client
	key    string
}

func NewSMSQueue(client *redis.Client, key string) *SMSQueue {
	return &SMSQueue{client: client, key: key}
}

func (q *SMSQueue) Push(ctx context.Context, job SMSJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal sms job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push sms job: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next job and returns ErrQueueEmpty when
// none arrives.
func (q *SMSQueue) Pop(ctx context.Context, timeout time.Duration) (*SMSJob, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, fmt.Errorf("pop sms job: %w", err)
	}

	// res is [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("pop sms job: unexpected reply length %d", len(res))
	}

	var job SMSJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode sms job: %w", err)
	}
	return &job, nil
}

func (q *SMSQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
