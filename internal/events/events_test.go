package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/models"
)

type fakeProducer struct {
	mu       sync.Mutex
	records  []*kgo.Record
	fail     error
	flushed  bool
	closed   bool
	ctxAlive bool
	// buffered caps the records held; 0 means no cap
	buffered int
}

// TryProduce mirrors kgo: a full buffer fails the record at once.
func (f *fakeProducer) TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	if f.buffered > 0 && len(f.records) >= f.buffered {
		f.mu.Unlock()
		promise(r, kgo.ErrMaxBuffered)
		return
	}
	f.records = append(f.records, r)
	f.ctxAlive = ctx.Err() == nil
	fail := f.fail
	f.mu.Unlock()
	promise(r, fail)
}

func (f *fakeProducer) Flush(context.Context) error {
	f.flushed = true
	return nil
}

func (f *fakeProducer) Close() {
	f.closed = true
}

func TestKafkaPublisherPublish(t *testing.T) {
	fake := &fakeProducer{}
	p := NewKafkaPublisherWithClient(fake, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	product := models.Product{ID: "p1", Name: "Miswak", Category: "personal care", Price: 50}
	p.Publish(ctx, models.NewShopperEvent(models.EventCartAdded, "session-1", product, at))

	require.Len(t, fake.records, 1)
	r := fake.records[0]
	assert.Equal(t, "session-1", string(r.Key))
	assert.True(t, fake.ctxAlive, "record context must not inherit request cancellation")

	var got models.ShopperEvent
	require.NoError(t, json.Unmarshal(r.Value, &got))
	assert.Equal(t, models.EventCartAdded, got.Type)
	assert.Equal(t, "p1", got.ProductID)
	assert.Equal(t, "Miswak", got.ProductName)
	assert.Equal(t, 50.0, got.Price)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestKafkaPublisherSwallowsFailures(t *testing.T) {
	fake := &fakeProducer{fail: errors.New("broker down")}
	p := NewKafkaPublisherWithClient(fake, zap.NewNop())

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), models.ShopperEvent{Type: models.EventProductViewed})
	})
}

func TestKafkaPublisherFullBufferDropsEvent(t *testing.T) {
	fake := &fakeProducer{buffered: 1}
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewKafkaPublisherWithClient(fake, zap.New(core))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			p.Publish(ctx, models.ShopperEvent{Type: models.EventProductViewed, SessionID: "s1"})
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("Publish blocked on a full buffer")
	}

	assert.Len(t, fake.records, 1)
	assert.Equal(t, 2, logs.FilterMessage("event dropped, producer buffer is full").Len())
}

func TestKafkaPublisherClose(t *testing.T) {
	fake := &fakeProducer{}
	p := NewKafkaPublisherWithClient(fake, zap.NewNop())

	p.Close(context.Background())

	assert.True(t, fake.flushed)
	assert.True(t, fake.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), models.ShopperEvent{})
		p.Close(context.Background())
	})
}
