package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"crowdfund_backend/internals/configs"
)

var ErrQueueFull = errors.New("gateway event queue is full")

// Dispatcher hands a recorded event to whatever applies it. A dispatch that
// is lost (full queue, crash) leaves the event received; Replay picks it up.
type Dispatcher interface {
	Dispatch(ctx context.Context, id uuid.UUID) error
	Start(ctx context.Context)
	Stop()
}

type processor interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// NewDispatcherFromConfig picks the queue named by WEBHOOK_QUEUE.
func NewDispatcherFromConfig(p processor) Dispatcher {
	switch configs.WebhookQueue {
	case "redis":
		client := NewRedisClient(configs.RedisAddr, configs.RedisPassword, configs.RedisDB)
		return NewRedisDispatcher(client, DefaultRedisKey, p, configs.WebhookWorkers)
	case "inline":
		return &InlineDispatcher{Events: p}
	default:
		return NewMemoryDispatcher(p, configs.WebhookWorkers, 256)
	}
}

/* ===================== Inline ===================== */

// InlineDispatcher applies the event before Dispatch returns.
type InlineDispatcher struct {
	Events processor
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, id uuid.UUID) error {
	return d.Events.Process(context.WithoutCancel(ctx), id)
}

func (d *InlineDispatcher) Start(context.Context) {}
func (d *InlineDispatcher) Stop()                 {}

/* ===================== In-process pool ===================== */

type MemoryDispatcher struct {
	events  processor
	workers int
	queue   chan uuid.UUID

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewMemoryDispatcher(p processor, workers, buffer int) *MemoryDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryDispatcher{events: p, workers: workers, queue: make(chan uuid.UUID, buffer)}
}

func (d *MemoryDispatcher) Dispatch(_ context.Context, id uuid.UUID) error {
	select {
	case d.queue <- id:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *MemoryDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-d.queue:
					// once picked up, an event runs to completion
					if err := d.events.Process(context.WithoutCancel(ctx), id); err != nil {
						log.Printf("[WARN] gateway event %s: %v", id, err)
					}
				}
			}
		}()
	}
	log.Printf("[INFO] gateway event workers started (memory, %d)", d.workers)
}

func (d *MemoryDispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
}
