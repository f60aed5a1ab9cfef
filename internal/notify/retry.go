package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Pending is a notification waiting for another delivery attempt.
type Pending struct {
	Notification Notification `json:"notification"`
	Attempts     int          `json:"attempts"`
}

// RetryQueue persists notifications between delivery attempts.
type RetryQueue interface {
	Schedule(ctx context.Context, p Pending, at time.Time) error
	// Due pops every entry scheduled at or before now.
	Due(ctx context.Context, now time.Time) ([]Pending, error)
}

const retryKey = "notify:retry"

// RedisRetryQueue keeps pending notifications in a sorted set scored by
// next-attempt time, so entries survive restarts.
type RedisRetryQueue struct {
	client *goredis.Client
}

func NewRedisRetryQueue(client *goredis.Client) *RedisRetryQueue {
	return &RedisRetryQueue{client: client}
}

func (q *RedisRetryQueue) Schedule(ctx context.Context, p Pending, at time.Time) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending notification: %w", err)
	}
	err = q.client.ZAdd(ctx, retryKey, goredis.Z{
		Score:  float64(at.Unix()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("schedule notification retry: %w", err)
	}
	return nil
}

func (q *RedisRetryQueue) Due(ctx context.Context, now time.Time) ([]Pending, error) {
	max := strconv.FormatInt(now.Unix(), 10)
	members, err := q.client.ZRangeByScore(ctx, retryKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	out := make([]Pending, 0, len(members))
	for _, member := range members {
		var p Pending
		if err := json.Unmarshal([]byte(member), &p); err != nil {
			// Drop undecodable entries; redelivering them forever helps no one.
			_ = q.client.ZRem(ctx, retryKey, member)
			continue
		}
		if err := q.client.ZRem(ctx, retryKey, member).Err(); err != nil {
			return nil, fmt.Errorf("pop due notification: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// MemoryRetryQueue is the in-process equivalent used in tests and when redis
// is not configured.
type MemoryRetryQueue struct {
	mu      sync.Mutex
	entries []scheduled
}

type scheduled struct {
	pending Pending
	at      time.Time
}

func NewMemoryRetryQueue() *MemoryRetryQueue {
	return &MemoryRetryQueue{}
}

func (q *MemoryRetryQueue) Schedule(_ context.Context, p Pending, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, scheduled{pending: p, at: at})
	return nil
}

func (q *MemoryRetryQueue) Due(_ context.Context, now time.Time) ([]Pending, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []Pending
	var rest []scheduled
	for _, e := range q.entries {
		if !e.at.After(now) {
			due = append(due, e.pending)
		} else {
			rest = append(rest, e)
		}
	}
	q.entries = rest
	return due, nil
}

// Len reports queued entries; exported for tests.
func (q *MemoryRetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
