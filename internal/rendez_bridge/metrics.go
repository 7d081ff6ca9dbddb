package rendez_bridge

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"sutext.github.io/cable/internal/rendez"
)

// counter wraps an Int64Counter the way cmd/cable's milliDuration wraps a
// Float64Histogram: build once, fall back to a no-op on registration
// error instead of propagating it to every call site.
type counter struct {
	metric.Int64Counter
}

func newCounter(meter metric.Meter, name, description string) counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
		return counter{noop.Int64Counter{}}
	}
	return counter{c}
}

func (c counter) inc(ctx context.Context, labels ...attribute.KeyValue) {
	c.Add(ctx, 1, metric.WithAttributeSet(attribute.NewSet(labels...)))
}

// InstrumentedChannel wraps a *rendez.Channel[T] with send/receive/close
// counters recorded through an OpenTelemetry meter, for services that want
// visibility into channel pressure without rendez itself depending on
// otel on its hot path.
type InstrumentedChannel[T any] struct {
	*rendez.Channel[T]

	ctx      context.Context
	name     string
	sent     counter
	received counter
	closed   counter
	rejected counter
}

// Instrument wraps ch, recording metrics tagged with name under meter.
func Instrument[T any](ctx context.Context, meter metric.Meter, name string, ch *rendez.Channel[T]) *InstrumentedChannel[T] {
	return &InstrumentedChannel[T]{
		Channel:  ch,
		ctx:      ctx,
		name:     name,
		sent:     newCounter(meter, "rendez_channel_sends_total", "values accepted by Send"),
		received: newCounter(meter, "rendez_channel_receives_total", "values returned by Receive"),
		closed:   newCounter(meter, "rendez_channel_closes_total", "Close calls that transitioned the channel"),
		rejected: newCounter(meter, "rendez_channel_rejected_total", "Send calls that failed because the channel was closed"),
	}
}

func (c *InstrumentedChannel[T]) label() attribute.KeyValue {
	return attribute.String("channel", c.name)
}

// Send overrides Channel.Send to record a sends/rejects counter alongside
// the embedded implementation.
func (c *InstrumentedChannel[T]) Send(v T) error {
	err := c.Channel.Send(v)
	if err != nil {
		c.rejected.inc(c.ctx, c.label())
	} else {
		c.sent.inc(c.ctx, c.label())
	}
	return err
}

// Receive overrides Channel.Receive to record a receives counter.
func (c *InstrumentedChannel[T]) Receive() (T, error) {
	v, err := c.Channel.Receive()
	if err == nil {
		c.received.inc(c.ctx, c.label())
	}
	return v, err
}

// Close overrides Channel.Close to record whether this call was the one
// that actually transitioned the channel (Close is otherwise idempotent).
func (c *InstrumentedChannel[T]) Close() {
	wasClosed := c.Channel.IsClosed()
	c.Channel.Close()
	if !wasClosed {
		c.closed.inc(c.ctx, c.label())
	}
}
