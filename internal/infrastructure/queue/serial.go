package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/api/metrics"
)

const defaultBuffer = 64

// ErrClosed is returned by Do after Close has been called.
var ErrClosed = errors.New("write queue closed")

type task struct {
	fn       func() error
	result   chan error
	enqueued time.Time
}

// SerialQueue runs submitted tasks one at a time in submission order on a
// single goroutine. It is the only path through which the file store mutates
// its files.
type SerialQueue struct {
	tasks  chan task
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	log    zerolog.Logger
}

// NewSerialQueue starts the worker goroutine. If buffer <= 0, defaultBuffer
// is used.
func NewSerialQueue(buffer int, log zerolog.Logger) *SerialQueue {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	q := &SerialQueue{
		tasks: make(chan task, buffer),
		done:  make(chan struct{}),
		log:   log,
	}
	go q.run()
	return q
}

// Do submits fn and waits for it to finish. ctx only bounds the wait for a
// free slot; once accepted, the task always runs to completion and Do returns
// its result, so a caller never observes a half-applied mutation.
func (q *SerialQueue) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, result: make(chan error, 1), enqueued: time.Now()}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	select {
	case q.tasks <- t:
		metrics.WriteQueueDepth.Inc()
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}

	return <-t.result
}

// Close stops accepting tasks and waits until every accepted task has run.
func (q *SerialQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	<-q.done
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for t := range q.tasks {
		metrics.WriteQueueDepth.Dec()
		err := q.execute(t.fn)

		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.WriteTaskDuration.WithLabelValues(result).Observe(time.Since(t.enqueued).Seconds())
		t.result <- err
	}
}

// execute isolates a panicking task so the queue keeps serving later ones.
func (q *SerialQueue) execute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Msg("write task panicked")
			err = fmt.Errorf("write task panicked: %v", r)
		}
	}()
	return fn()
}
