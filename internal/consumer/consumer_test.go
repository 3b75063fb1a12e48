package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/events"
)

type chanReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error {
	r.closed = true
	return nil
}

type tagRecorder struct {
	client.NopCache
	mu   sync.Mutex
	tags [][]string
}

func (r *tagRecorder) Invalidate(_ context.Context, tags ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tags)
	return nil
}

func (r *tagRecorder) seen() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.tags...)
}

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestConsumer_InvalidatesTagsPerEvent(t *testing.T) {
	w := &captureWriter{}
	pub := events.NewPublisher(w)
	ctx := context.Background()
	require.NoError(t, pub.PublishOrder(ctx, "ship", &entity.Order{ID: 1}))
	require.NoError(t, pub.PublishOrder(ctx, "cancel", &entity.Order{ID: 2}))
	require.NoError(t, pub.PublishOrder(ctx, events.KindCreated, &entity.Order{ID: 3}))

	reader := &chanReader{msgs: make(chan kafka.Message, len(w.msgs)+1)}
	for _, m := range w.msgs {
		reader.msgs <- m
	}
	reader.msgs <- kafka.Message{Key: []byte("order-ship-4"), Value: []byte("{broken")}

	cache := &tagRecorder{}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		NewConsumer(reader, cache).Run(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(cache.seen()) == 3 && len(reader.msgs) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.True(t, reader.closed)
	assert.Equal(t, [][]string{
		{client.TagOrders},
		{client.TagOrders, client.TagInventory, client.TagProducts},
		{client.TagOrders, client.TagInventory, client.TagProducts, client.TagCart},
	}, cache.seen())
}
