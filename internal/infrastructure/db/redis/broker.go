package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ibadah/tracker/internal/api/metrics"
	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

const (
	DefaultChannel = "ibadah:notifications"
	outboxSize     = 256
)

// Broker relays live notifications through a Redis channel so every process
// pushes to its own connected admins. Durable records are not its concern.
type Broker struct {
	client  *redis.Client
	channel string
	outbox  chan domain.Notification
	log     zerolog.Logger
}

// NewBroker creates a Broker for channel. An empty channel uses DefaultChannel.
func NewBroker(client *redis.Client, channel string, log zerolog.Logger) *Broker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broker{
		client:  client,
		channel: channel,
		outbox:  make(chan domain.Notification, outboxSize),
		log:     log.With().Str("component", "redis_broker").Logger(),
	}
}

// Publish queues n for the bridge without blocking. When the outbox is full
// the push is dropped; the durable log still has it.
func (b *Broker) Publish(_ context.Context, n domain.Notification) error {
	select {
	case b.outbox <- n:
	default:
		metrics.PushesTotal.WithLabelValues("dropped").Inc()
		b.log.Warn().Str("admin", n.AdminUsername).Msg("bridge outbox full, push dropped")
	}
	return nil
}

// Run forwards queued notifications to Redis and delivers everything received
// on the channel to local. It returns when ctx is cancelled or either side
// fails.
func (b *Broker) Run(ctx context.Context, local ports.NotificationPublisher) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return sub.Close()
	})
	g.Go(func() error { return b.forward(gctx) })
	g.Go(func() error { return b.receive(gctx, sub.Channel(), local) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func (b *Broker) forward(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-b.outbox:
			payload, err := encodeNotification(n)
			if err != nil {
				b.log.Error().Err(err).Msg("encode notification")
				continue
			}
			if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.log.Error().Err(err).Str("admin", n.AdminUsername).Msg("bridge publish failed")
			}
		}
	}
}

func (b *Broker) receive(ctx context.Context, msgs <-chan *redis.Message, local ports.NotificationPublisher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			n, err := decodeNotification(msg.Payload)
			if err != nil {
				b.log.Warn().Err(err).Msg("discarding malformed bridge message")
				continue
			}
			if err := local.Publish(ctx, n); err != nil {
				b.log.Error().Err(err).Str("admin", n.AdminUsername).Msg("local delivery failed")
			}
		}
	}
}

func encodeNotification(n domain.Notification) ([]byte, error) {
	return json.Marshal(n)
}

func decodeNotification(payload string) (domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return domain.Notification{}, err
	}
	if n.AdminUsername == "" {
		return domain.Notification{}, errors.New("notification without recipient")
	}
	return n, nil
}
