package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"resume-match-go/internal/config"
)

const channelPoolSize = 5

// RabbitMQ carries async analysis tasks and completion events. A small
// channel pool keeps publishers from serializing on one channel.
type RabbitMQ struct {
	conn   *amqp.Connection
	cfg    *config.RabbitMQConfig
	logger zerolog.Logger

	mu       sync.Mutex
	channels []*amqp.Channel
}

// NewRabbitMQ connects and declares the analyze queue and events exchange.
func NewRabbitMQ(cfg *config.RabbitMQConfig, logger zerolog.Logger) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rabbitmq config is nil")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	r := &RabbitMQ{conn: conn, cfg: cfg, logger: logger}
	if err := r.declareTopology(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Str("queue", cfg.AnalyzeQueue).Str("exchange", cfg.EventsExchange).Msg("rabbitmq connected")
	return r, nil
}

func (r *RabbitMQ) declareTopology() error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(r.cfg.AnalyzeQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", r.cfg.AnalyzeQueue, err)
	}
	if err := ch.ExchangeDeclare(r.cfg.EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.cfg.EventsExchange, err)
	}
	return nil
}

func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	r.mu.Lock()
	if n := len(r.channels); n > 0 {
		ch := r.channels[n-1]
		r.channels = r.channels[:n-1]
		r.mu.Unlock()
		if !ch.IsClosed() {
			return ch, nil
		}
	} else {
		r.mu.Unlock()
	}
	return r.conn.Channel()
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.channels) >= channelPoolSize {
		ch.Close()
		return
	}
	r.channels = append(r.channels, ch)
}

// Close drains the channel pool and closes the connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	for _, ch := range r.channels {
		ch.Close()
	}
	r.channels = nil
	r.mu.Unlock()
	return r.conn.Close()
}

// PublishAnalyzeTask enqueues one async analysis request.
func (r *RabbitMQ) PublishAnalyzeTask(ctx context.Context, task AnalyzeTask) error {
	return r.publishJSON(ctx, "", r.cfg.AnalyzeQueue, task)
}

// PublishCompletionEvent announces a finished analysis on the events
// exchange.
func (r *RabbitMQ) PublishCompletionEvent(ctx context.Context, event AnalysisCompletedEvent) error {
	return r.publishJSON(ctx, r.cfg.EventsExchange, r.cfg.CompletedRoutingKey, event)
}

func (r *RabbitMQ) publishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	ch, err := r.getChannel()
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	defer r.putChannel(ch)

	err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}
	return nil
}

// ConsumeOutcome tells the consumer loop what to do with a delivery.
type ConsumeOutcome int

const (
	// OutcomeAck acknowledges the message.
	OutcomeAck ConsumeOutcome = iota
	// OutcomeDrop rejects without requeue, for poison input that can never
	// succeed.
	OutcomeDrop
	// OutcomeRequeue rejects with requeue, for transient infrastructure
	// failures.
	OutcomeRequeue
)

// ConsumeAnalyzeTasks runs handler for every delivery on the analyze queue
// until ctx is cancelled. The handler's outcome drives ack/nack.
func (r *RabbitMQ) ConsumeAnalyzeTasks(ctx context.Context, handler func(ctx context.Context, body []byte) ConsumeOutcome) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}

	prefetch := r.cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(r.cfg.AnalyzeQueue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("start consumer: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					r.logger.Warn().Msg("analyze task delivery channel closed")
					return
				}
				switch handler(ctx, delivery.Body) {
				case OutcomeAck:
					if err := delivery.Ack(false); err != nil {
						r.logger.Error().Err(err).Msg("ack failed")
					}
				case OutcomeDrop:
					if err := delivery.Nack(false, false); err != nil {
						r.logger.Error().Err(err).Msg("nack (drop) failed")
					}
				case OutcomeRequeue:
					if err := delivery.Nack(false, true); err != nil {
						r.logger.Error().Err(err).Msg("nack (requeue) failed")
					}
				}
			}
		}
	}()
	return nil
}
