// Package worker runs background tasks on a fixed set of goroutines with a
// bounded queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("worker queue is full")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("worker pool is closed")
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

type job struct {
	task Task
	done chan error
}

// Pool executes tasks with bounded concurrency and backpressure.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan job
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines sharing a queue of queueSize slots.
func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(chan job, queueSize),
		logger: logger,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.done <- p.execute(j.task)
		close(j.done)
	}
}

func (p *Pool) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.logger.Error("background task panicked", zap.Any("panic", r))
		}
	}()
	return task(p.ctx)
}

// Submit queues task without blocking. The returned channel receives the
// task's result once and is then closed.
func (p *Pool) Submit(task Task) (<-chan error, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	done := make(chan error, 1)
	select {
	case p.jobs <- job{task: task, done: done}:
		return done, nil
	default:
		return nil, ErrQueueFull
	}
}

// Close stops accepting tasks and waits for queued ones to finish. If ctx
// expires first, running tasks see their context cancelled.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-finished
		return ctx.Err()
	}
}
