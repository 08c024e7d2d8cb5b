package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	seen chan uuid.UUID
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{seen: make(chan uuid.UUID, 16)}
}

func (p *recordingProcessor) Process(_ context.Context, id uuid.UUID) error {
	p.seen <- id
	return nil
}

func collect(t *testing.T, p *recordingProcessor, n int) []uuid.UUID {
	t.Helper()
	var out []uuid.UUID
	deadline := time.After(3 * time.Second)
	for len(out) < n {
		select {
		case id := <-p.seen:
			out = append(out, id)
		case <-deadline:
			t.Fatalf("got %d of %d processed ids", len(out), n)
		}
	}
	return out
}

func TestInlineDispatcher_ProcessesBeforeReturning(t *testing.T) {
	p := newRecordingProcessor()
	d := &InlineDispatcher{Events: p}

	id := uuid.New()
	require.NoError(t, d.Dispatch(context.Background(), id))

	select {
	case got := <-p.seen:
		assert.Equal(t, id, got)
	default:
		t.Fatal("inline dispatch did not process the event")
	}
}

func TestMemoryDispatcher_WorkersDrainQueue(t *testing.T) {
	p := newRecordingProcessor()
	d := NewMemoryDispatcher(p, 2, 8)
	d.Start(context.Background())
	defer d.Stop()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, d.Dispatch(context.Background(), id))
	}

	assert.ElementsMatch(t, ids, collect(t, p, len(ids)))
}

func TestMemoryDispatcher_FullQueue(t *testing.T) {
	d := NewMemoryDispatcher(newRecordingProcessor(), 1, 1)

	require.NoError(t, d.Dispatch(context.Background(), uuid.New()))
	assert.ErrorIs(t, d.Dispatch(context.Background(), uuid.New()), ErrQueueFull)
}

func TestMemoryDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewMemoryDispatcher(newRecordingProcessor(), 1, 1)
	d.Stop()
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}

func TestRedisDispatcher_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	p := newRecordingProcessor()
	d := NewRedisDispatcher(client, "test:events", p, 2)
	d.PollTimeout = time.Second
	d.Start(context.Background())
	defer d.Stop()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, d.Dispatch(context.Background(), id))
	}

	assert.ElementsMatch(t, ids, collect(t, p, len(ids)))
}

func TestRedisDispatcher_SkipsMalformedEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	_, err := mr.Lpush("test:events", "not-a-uuid")
	require.NoError(t, err)

	p := newRecordingProcessor()
	d := NewRedisDispatcher(client, "test:events", p, 1)
	d.PollTimeout = time.Second
	d.Start(context.Background())
	defer d.Stop()

	id := uuid.New()
	require.NoError(t, d.Dispatch(context.Background(), id))
	assert.Equal(t, []uuid.UUID{id}, collect(t, p, 1))
}
