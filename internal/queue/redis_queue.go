package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Message is one delivery of a job id
type Message struct {
	JobID   string
	Attempt int
}

// Handler processes a message. A returned error schedules a retry.
type Handler func(ctx context.Context, msg Message) error

// GiveUpFunc is called once a message has failed MaxRetries times
type GiveUpFunc func(ctx context.Context, msg Message, err error)

// RedisJobQueue moves job ids through a Redis stream with a consumer group.
// Unacknowledged messages of crashed consumers are reclaimed after ClaimIdle.
type RedisJobQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	readCount    int64
	once         sync.Once
}

// Config configures NewRedisJobQueue. Zero values fall back to defaults.
type Config struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	RetryDelay time.Duration
	MaxLen     int64
	ReadCount  int64
}

func NewRedisJobQueue(cfg Config) (*RedisJobQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("queue stream required")
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "workers"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = uuid.NewString()
	}
	q := &RedisJobQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		maxRetries:   orInt(cfg.MaxRetries, 3),
		block:        orDuration(cfg.Block, 5*time.Second),
		claimIdle:    orDuration(cfg.ClaimIdle, 30*time.Minute),
		retryDelay:   orDuration(cfg.RetryDelay, 2*time.Second),
		maxLen:       cfg.MaxLen,
		readCount:    cfg.ReadCount,
	}
	if q.maxLen <= 0 {
		q.maxLen = 10000
	}
	if q.readCount <= 0 {
		q.readCount = 10
	}
	return q, nil
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// Ping checks the Redis connection
func (q *RedisJobQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close releases the Redis client
func (q *RedisJobQueue) Close() error {
	return q.client.Close()
}

// Enqueue appends a job id to the stream
func (q *RedisJobQueue) Enqueue(ctx context.Context, jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return errors.New("job id required")
	}
	return q.add(ctx, q.client, Message{JobID: jobID, Attempt: 1})
}

func (q *RedisJobQueue) add(ctx context.Context, c redis.Cmdable, msg Message) error {
	return c.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"job_id":  msg.JobID,
			"attempt": strconv.Itoa(msg.Attempt),
		},
	}).Err()
}

// Run consumes the stream with concurrency consumers until ctx is cancelled
func (q *RedisJobQueue) Run(ctx context.Context, concurrency int, handler Handler, giveUp GiveUpFunc) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.consumeLoop(ctx, consumer, handler, giveUp)
		}()
	}
	wg.Wait()
}

func (q *RedisJobQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			log.Printf("[QUEUE] create group %s on %s: %v", q.group, q.stream, err)
		}
	})
}

func (q *RedisJobQueue) consumeLoop(ctx context.Context, consumer string, handler Handler, giveUp GiveUpFunc) {
	for {
		if ctx.Err() != nil {
			return
		}

		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler, giveUp)
			}
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    q.readCount,
			Block:    q.block,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Printf("[QUEUE] read %s: %v", q.stream, err)
				q.sleep(ctx, q.retryDelay)
			}
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler, giveUp)
			}
		}
	}
}

func (q *RedisJobQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    q.readCount,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return res, err
}

func decodeMessage(msg redis.XMessage) Message {
	m := Message{Attempt: 1}
	m.JobID, _ = msg.Values["job_id"].(string)
	if v, ok := msg.Values["attempt"].(string); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.Attempt = n
		}
	}
	return m
}

func (q *RedisJobQueue) handleMessage(ctx context.Context, raw redis.XMessage, handler Handler, giveUp GiveUpFunc) {
	msg := decodeMessage(raw)
	if msg.JobID == "" {
		q.ackAndDel(ctx, raw.ID)
		return
	}
	err := handler(ctx, msg)
	if err == nil {
		q.ackAndDel(ctx, raw.ID)
		return
	}
	if msg.Attempt >= q.maxRetries {
		if giveUp != nil {
			giveUp(ctx, msg, err)
		}
		q.ackAndDel(ctx, raw.ID)
		return
	}
	log.Printf("[QUEUE] job %s attempt %d failed: %v", msg.JobID, msg.Attempt, err)
	if !q.sleep(ctx, q.retryDelay) {
		return
	}
	if err := q.requeueAndAck(ctx, raw.ID, Message{JobID: msg.JobID, Attempt: msg.Attempt + 1}); err != nil {
		log.Printf("[QUEUE] requeue job %s: %v", msg.JobID, err)
	}
}

// sleep waits d and reports false when ctx ended first
func (q *RedisJobQueue) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// ackAndDel finishes a message even when ctx was cancelled while the handler ran
func (q *RedisJobQueue) ackAndDel(ctx context.Context, msgID string) {
	ctx = context.WithoutCancel(ctx)
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

func (q *RedisJobQueue) requeueAndAck(ctx context.Context, msgID string, next Message) error {
	pipe := q.client.TxPipeline()
	if err := q.add(ctx, pipe, next); err != nil {
		return err
	}
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}
