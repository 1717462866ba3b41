package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

const (
	defaultBuffer = 256
	drainTimeout  = 2 * time.Second
)

// ErrQueueFull is returned by Publish when the buffer has no room left.
var ErrQueueFull = errors.New("session event queue full")

// Dispatcher decouples session transitions from the event sink. Events are
// buffered and forwarded in order by a single worker, so a slow broker never
// blocks a login or logout.
type Dispatcher struct {
	events chan ports.SessionEvent
	sink   ports.SessionEventPublisher
	log    zerolog.Logger
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher in front of sink. If buffer <= 0,
// defaultBuffer is used.
func NewDispatcher(sink ports.SessionEventPublisher, buffer int, log zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Dispatcher{
		events: make(chan ports.SessionEvent, buffer),
		sink:   sink,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Start launches the worker. It stops when ctx is cancelled, after flushing
// what is already buffered.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Done is closed once the worker has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Publish enqueues an event without blocking.
func (d *Dispatcher) Publish(_ context.Context, event ports.SessionEvent) error {
	select {
	case d.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case event := <-d.events:
			d.forward(ctx, event)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-d.events:
			d.forward(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) forward(ctx context.Context, event ports.SessionEvent) {
	if err := d.sink.Publish(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("event", string(event.Type)).
			Int64("identity_id", event.IdentityID).
			Msg("session event delivery failed")
	}
}
