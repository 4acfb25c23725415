// Package events queues notifications and fans them out to real-time
// connections from a single dispatch worker. Delivery is at-most-once.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/metrics"
	"github.com/mcoot/mpcoord/internal/model"
)

// Deliverer hands one event to every eligible live connection. It must not
// block on connection I/O and reports how many connections accepted or refused the frame.
type Deliverer interface {
	Deliver(evt model.Event) (delivered, failed int)
}

// Config holds configuration for the event bus
type Config struct {
	// QueueSize bounds the number of pending events
	QueueSize int
	// DispatchInterval is the worker period
	DispatchInterval time.Duration
}

// DefaultConfig returns default bus configuration
func DefaultConfig() Config {
	return Config{
		QueueSize:        1024,
		DispatchInterval: 100 * time.Millisecond,
	}
}

// Bus is a bounded queue drained by one worker.
// When the queue is full, Publish drops the new event and returns model.ErrQueueFull.
type Bus struct {
	queue     chan model.Event
	deliverer Deliverer
	interval  time.Duration
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Bus delivering to d
func New(d Deliverer, clk clock.Clock, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Bus {
	defaults := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.DispatchInterval <= 0 {
		cfg.DispatchInterval = defaults.DispatchInterval
	}
	return &Bus{
		queue:     make(chan model.Event, cfg.QueueSize),
		deliverer: d,
		interval:  cfg.DispatchInterval,
		clock:     clk,
		metrics:   m,
		logger:    logger.With(slog.String("component", "events")),
	}
}

// Publish enqueues an event without blocking
func (b *Bus) Publish(evt model.Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = b.clock.Now()
	}
	if len(evt.Targets) > 0 {
		evt.Targets = append([]string(nil), evt.Targets...)
	}

	select {
	case b.queue <- evt:
		b.metrics.EventsPublished.Inc()
		return nil
	default:
		b.metrics.EventsDropped.Inc()
		b.logger.Warn("event dropped - queue full",
			slog.String("event_type", string(evt.Type)),
			slog.String("from_player", evt.FromPlayer),
			slog.Int("queue_size", cap(b.queue)))
		return model.ErrQueueFull
	}
}

// Run dispatches pending events every interval until ctx is cancelled.
// Events still queued at shutdown are discarded.
func (b *Bus) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info("event dispatcher started", slog.Duration("interval", b.interval))
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("event dispatcher stopped", slog.Int("discarded", len(b.queue)))
			return
		case <-ticker.C:
			b.Dispatch()
		}
	}
}

// Dispatch delivers every event queued at the time of the call and returns
// how many were dispatched. Events published meanwhile wait for the next tick.
func (b *Bus) Dispatch() int {
	pending := len(b.queue)
	for i := 0; i < pending; i++ {
		select {
		case evt := <-b.queue:
			b.dispatchOne(evt)
		default:
			return i
		}
	}
	return pending
}

// Pending returns the number of queued events
func (b *Bus) Pending() int {
	return len(b.queue)
}

func (b *Bus) dispatchOne(evt model.Event) {
	delivered, failed := b.deliverer.Deliver(evt)
	b.metrics.EventsDelivered.Add(float64(delivered))
	if failed > 0 {
		b.metrics.DeliveryFailures.Add(float64(failed))
		b.logger.Warn("event partially delivered",
			slog.String("event_type", string(evt.Type)),
			slog.Int("delivered", delivered),
			slog.Int("failed", failed))
	}
}
