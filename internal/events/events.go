// Package events publishes shopper activity for analytics.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"storefront/internal/models"
)

// Publisher sends shopper events. Publishing never fails the shopper's
// request; delivery problems are only logged.
type Publisher interface {
	Publish(ctx context.Context, e models.ShopperEvent)
	Close(ctx context.Context)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.ShopperEvent) {}

func (NopPublisher) Close(context.Context) {}

// ProducerClient is the part of [kgo.Client] the publisher uses.
type ProducerClient interface {
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher produces one JSON record per event, keyed by session id so
// a session's events stay ordered within a partition.
type KafkaPublisher struct {
	cl  ProducerClient
	log *zap.Logger
}

// deliveryTimeout bounds how long a record may sit in the buffer while
// brokers are unreachable.
const deliveryTimeout = 30 * time.Second

func NewKafkaPublisher(seedBrokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	const op = "events.NewKafkaPublisher"

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(seedBrokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewKafkaPublisherWithClient(cl, log), nil
}

func NewKafkaPublisherWithClient(cl ProducerClient, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{cl: cl, log: log.Named("events")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e models.ShopperEvent) {
	value, err := json.Marshal(e)
	if err != nil {
		p.log.Error("failed to encode event", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}

	r := &kgo.Record{Key: []byte(e.SessionID), Value: value}
	// the record outlives the request that produced it; a full buffer drops
	// the event instead of blocking the request
	p.cl.TryProduce(context.WithoutCancel(ctx), r, func(r *kgo.Record, err error) {
		switch {
		case errors.Is(err, kgo.ErrMaxBuffered):
			p.log.Warn("event dropped, producer buffer is full", zap.String("type", string(e.Type)))
		case err != nil:
			p.log.Warn("failed to produce event", zap.String("type", string(e.Type)), zap.Error(err))
		}
	})
}

// Close flushes buffered events and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) {
	p.log.Info("closing publisher...")
	if err := p.cl.Flush(ctx); err != nil {
		p.log.Error("failed to flush events", zap.Error(err))
	}
	p.cl.Close()
	p.log.Info("publisher is closed")
}
