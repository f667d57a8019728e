// Package debounce holds a value that only settles once its input has stopped changing
// for a quiet period.
//
// Each Holder runs a single event loop. Inputs, timer expiry and teardown are all handled
// on that loop, so at most one timer is ever armed and a retired timer can never commit.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/Gleipnir-Technology/settle/metrics"
	"github.com/Gleipnir-Technology/settle/subscription"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/metric"
)

// DefaultDelay is used when an observation omits its delay.
const DefaultDelay = 500 * time.Millisecond

type input[T any] struct {
	delay time.Duration
	reply chan T
	value T
}

// Holder is a debounced value. Create one with New.
type Holder[T any] struct {
	buffer  int
	clock   clockwork.Clock
	delay   time.Duration
	equal   func(a, b T) bool
	logger  zerolog.Logger
	measure metric.MeasurementOption
	name    string

	closer  sync.Once
	closing chan struct{}
	done    chan struct{}
	inputs  chan input[T]
	subs    *subscription.Manager[T]

	mu      sync.RWMutex
	armed   bool
	pending T
	settled T
}

// New creates a holder whose settled value starts as initial. The holder is torn down when
// ctx is cancelled or Close is called. Every observation re-arms the timer.
func New[T any](ctx context.Context, initial T, opts ...Option) *Holder[T] {
	return NewWithEqual(ctx, initial, nil, opts...)
}

// NewComparable is New with == as the equality used to ignore repeated observations.
func NewComparable[T comparable](ctx context.Context, initial T, opts ...Option) *Holder[T] {
	return NewWithEqual(ctx, initial, func(a, b T) bool { return a == b }, opts...)
}

// NewWithEqual is New, except that an observation is a no-op when both its value and its
// delay match the previous observation according to equal. A nil equal behaves like New.
func NewWithEqual[T any](ctx context.Context, initial T, equal func(a, b T) bool, opts ...Option) *Holder[T] {
	o := applyOptions(opts)
	h := &Holder[T]{
		buffer:  o.buffer,
		clock:   o.clock,
		delay:   o.delay,
		equal:   equal,
		logger:  log.Ctx(ctx).With().Str("holder", o.name).Logger(),
		measure: metrics.HolderAttributes(o.name),
		name:    o.name,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		inputs:  make(chan input[T]),
		subs:    subscription.NewManager[T](),
		pending: initial,
		settled: initial,
	}
	go h.run(ctx, initial)
	return h
}

// Close tears the holder down and waits for its loop to exit. Any armed timer is cancelled
// and every subscription is closed. Safe to call more than once.
func (h *Holder[T]) Close() {
	h.closer.Do(func() {
		close(h.closing)
	})
	<-h.done
}

// Done is closed once the holder has been torn down.
func (h *Holder[T]) Done() <-chan struct{} {
	return h.done
}

// Observe records v using the holder's default delay.
func (h *Holder[T]) Observe(v T) T {
	return h.ObserveDelay(v, 0)
}

// ObserveDelay records v as pending, retires any armed timer and arms a new one for d. It
// returns the settled value, which is not yet v unless v had already settled.
//
// A zero d means the default delay. A negative d commits v right after the call returns.
// Once the holder is torn down ObserveDelay does nothing but return the settled value.
func (h *Holder[T]) ObserveDelay(v T, d time.Duration) T {
	in := input[T]{
		delay: d,
		reply: make(chan T, 1),
		value: v,
	}
	select {
	case h.inputs <- in:
		return <-in.reply
	case <-h.done:
		return h.Value()
	}
}

// Pending returns the latest observed value and whether it is still waiting to settle.
func (h *Holder[T]) Pending() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pending, h.armed
}

// Subscribe returns a subscription that receives every committed value.
func (h *Holder[T]) Subscribe() *subscription.Subscription[T] {
	return h.subs.SubscribeBuffered(h.buffer)
}

// Value returns the settled value.
func (h *Holder[T]) Value() T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settled
}

func (h *Holder[T]) resolveDelay(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return h.delay
	case d < 0:
		h.logger.Debug().Dur("delay", d).Msg("negative delay clamped to zero")
		return 0
	}
	return d
}

func (h *Holder[T]) run(ctx context.Context, initial T) {
	defer close(h.done)

	var (
		timer       clockwork.Timer
		timerC      <-chan time.Time
		windowStart time.Time
		lastValue   = initial
		lastDelay   = h.delay
	)
	// Retires the armed timer, if any. Reports whether one was armed.
	disarm := func() bool {
		if timer == nil {
			return false
		}
		timer.Stop()
		timer = nil
		timerC = nil
		return true
	}

	for {
		select {
		case <-ctx.Done():
			h.teardown(disarm())
			return
		case <-h.closing:
			h.teardown(disarm())
			return
		case in := <-h.inputs:
			d := h.resolveDelay(in.delay)
			if h.equal != nil && d == lastDelay && h.equal(in.value, lastValue) {
				in.reply <- h.Value()
				continue
			}
			lastValue, lastDelay = in.value, d
			metrics.Debounce.Inputs.Add(ctx, 1, h.measure)

			if disarm() {
				metrics.Debounce.Cancellations.Add(ctx, 1, h.measure)
				h.logger.Debug().Msg("pending commit cancelled")
			} else {
				windowStart = h.clock.Now()
			}
			h.mu.Lock()
			h.pending = in.value
			h.armed = true
			current := h.settled
			h.mu.Unlock()

			if d == 0 {
				in.reply <- current
				h.commit(ctx, in.value, windowStart)
				continue
			}
			timer = h.clock.NewTimer(d)
			timerC = timer.Chan()
			h.logger.Debug().Dur("delay", d).Msg("commit armed")
			in.reply <- current
		case <-timerC:
			timer = nil
			timerC = nil
			h.commit(ctx, lastValue, windowStart)
		}
	}
}

func (h *Holder[T]) commit(ctx context.Context, v T, windowStart time.Time) {
	h.mu.Lock()
	h.settled = v
	h.armed = false
	h.mu.Unlock()

	metrics.Debounce.Commits.Add(ctx, 1, h.measure)
	metrics.Debounce.SettleTime.Record(ctx, h.clock.Since(windowStart).Seconds(), h.measure)
	h.logger.Debug().Msg("value settled")
	h.subs.Publish(v)
}

func (h *Holder[T]) teardown(wasArmed bool) {
	h.mu.Lock()
	h.armed = false
	h.mu.Unlock()

	if wasArmed {
		// ctx may already be cancelled here.
		metrics.Debounce.Teardowns.Add(context.Background(), 1, h.measure)
		h.logger.Debug().Msg("pending commit discarded on teardown")
	}
	h.subs.Close()
	h.logger.Debug().Msg("holder torn down")
}
