package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T, maxRetries int) *RedisJobQueue {
	t.Helper()
	srv := miniredis.RunT(t)
	q, err := NewRedisJobQueue(Config{
		Addr:       srv.Addr(),
		Stream:     "test:model-jobs",
		Group:      "test-group",
		Consumer:   "consumer",
		MaxRetries: maxRetries,
		Block:      20 * time.Millisecond,
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func runUntil(t *testing.T, q *RedisJobQueue, done <-chan struct{}, handler Handler, giveUp GiveUpFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		q.Run(ctx, 1, handler, giveUp)
		close(finished)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for queue")
	}
	cancel()
	<-finished
}

func TestNewRedisJobQueueValidation(t *testing.T) {
	if _, err := NewRedisJobQueue(Config{Stream: "s"}); err == nil {
		t.Fatalf("expected error without addr")
	}
	if _, err := NewRedisJobQueue(Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error without stream")
	}
}

func TestRedisJobQueueDeliversAndAcks(t *testing.T) {
	q := newTestQueue(t, 3)
	ctx := context.Background()
	if err := q.Enqueue(ctx, "job-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	done := make(chan struct{})
	var got Message
	runUntil(t, q, done, func(ctx context.Context, msg Message) error {
		got = msg
		close(done)
		return nil
	}, nil)

	if got.JobID != "job-1" || got.Attempt != 1 {
		t.Fatalf("unexpected message: %+v", got)
	}
	n, err := q.client.XLen(ctx, q.stream).Result()
	if err != nil {
		t.Fatalf("xlen: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected acked message to be deleted, stream len=%d", n)
	}
}

func TestRedisJobQueueRetriesThenSucceeds(t *testing.T) {
	q := newTestQueue(t, 3)
	if err := q.Enqueue(context.Background(), "job-2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	done := make(chan struct{})
	var attempts []int
	runUntil(t, q, done, func(ctx context.Context, msg Message) error {
		attempts = append(attempts, msg.Attempt)
		if msg.Attempt < 2 {
			return errors.New("upstream busy")
		}
		close(done)
		return nil
	}, nil)

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("unexpected attempts: %v", attempts)
	}
}

func TestRedisJobQueueGivesUp(t *testing.T) {
	q := newTestQueue(t, 2)
	if err := q.Enqueue(context.Background(), "job-3"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	done := make(chan struct{})
	var once sync.Once
	var gaveUp Message
	var lastErr error
	runUntil(t, q, done, func(ctx context.Context, msg Message) error {
		return errors.New("broken image")
	}, func(ctx context.Context, msg Message, err error) {
		gaveUp, lastErr = msg, err
		once.Do(func() { close(done) })
	})

	if gaveUp.JobID != "job-3" || gaveUp.Attempt != 2 || lastErr == nil {
		t.Fatalf("unexpected give up: %+v %v", gaveUp, lastErr)
	}
}

func TestRedisJobQueueRequeueKeepsPendingOnFailure(t *testing.T) {
	q := newTestQueue(t, 3)
	ctx := context.Background()
	q.ensureGroup(ctx)
	if err := q.Enqueue(ctx, "job-4"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: "c1",
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    -1,
	}).Result()
	if err != nil || len(streams) != 1 || len(streams[0].Messages) != 1 {
		t.Fatalf("read: %v %+v", err, streams)
	}
	msgID := streams[0].Messages[0].ID

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.requeueAndAck(canceled, msgID, Message{JobID: "job-4", Attempt: 2}); err == nil {
		t.Fatalf("expected requeue to fail on canceled context")
	}
	pending, err := q.client.XPending(ctx, q.stream, q.group).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 1 {
		t.Fatalf("expected message to stay pending, got %d", pending.Count)
	}
}
