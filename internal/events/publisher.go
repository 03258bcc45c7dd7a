package events

import (
	"context"
	"errors"
	"time"

	"taskmaster/pkg/circuitbreaker"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/trace"

	"go.uber.org/zap"
)

// Sender is the broker side of publishing; *mq.Publisher satisfies it.
type Sender interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BrokerPublisher wraps each payload in an Envelope and sends it through a
// circuit breaker, so a dead broker costs one fast ErrOpen per event.
type BrokerPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

func NewBrokerPublisher(sender Sender, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *BrokerPublisher {
	return &BrokerPublisher{
		sender:  sender,
		breaker: breaker,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *BrokerPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	env, err := NewEnvelope(routingKey, trace.FromContext(ctx), p.now(), payload)
	if err != nil {
		metrics.IncrementEventPublished(routingKey, "failed")
		return err
	}

	err = p.breaker.Execute(func() error {
		return p.sender.Publish(ctx, routingKey, env)
	})
	switch {
	case err == nil:
		metrics.IncrementEventPublished(routingKey, "success")
		return nil
	case errors.Is(err, circuitbreaker.ErrOpen):
		metrics.IncrementEventPublished(routingKey, "dropped")
		p.logger.Debug("Event dropped, breaker open", zap.String("routing_key", routingKey))
	default:
		metrics.IncrementEventPublished(routingKey, "failed")
		p.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.String("breaker_state", p.breaker.State().String()),
			zap.Error(err),
		)
	}
	return err
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
