package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "crowdfund:gateway_events"

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisDispatcher queues event ids on a Redis list so any replica can apply them.
type RedisDispatcher struct {
	client  *redis.Client
	key     string
	events  processor
	workers int
	// PollTimeout bounds each BRPOP so workers notice shutdown.
	PollTimeout time.Duration

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewRedisDispatcher(client *redis.Client, key string, p processor, workers int) *RedisDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisDispatcher{
		client:      client,
		key:         key,
		events:      p,
		workers:     workers,
		PollTimeout: 2 * time.Second,
	}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, id uuid.UUID) error {
	return d.client.LPush(ctx, d.key, id.String()).Err()
}

func (d *RedisDispatcher) Start(ctx context.Context) {
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
			d.consume(ctx)
		}()
	}
	log.Printf("[INFO] gateway event workers started (redis %s, %d)", d.key, d.workers)
}

func (d *RedisDispatcher) consume(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := d.client.BRPop(ctx, d.PollTimeout, d.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Printf("[ERROR] redis BRPOP %s: %v", d.key, err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		id, err := uuid.Parse(res[1])
		if err != nil {
			log.Printf("[WARN] dropping malformed queue entry %q", res[1])
			continue
		}
		if err := d.events.Process(context.WithoutCancel(ctx), id); err != nil {
			log.Printf("[WARN] gateway event %s: %v", id, err)
		}
	}
}

func (d *RedisDispatcher) Stop() {
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
