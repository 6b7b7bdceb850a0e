package sched

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// LFClockHz is the frequency of the low-frequency clock feeding the RTC.
	LFClockHz = 32768
	// MaxPrescaler is the largest RTC prescaler (12 bits).
	MaxPrescaler = 1<<12 - 1
	// DefaultPrescaler gives a 16 Hz tick, a 62.5 ms period.
	DefaultPrescaler = 2047
)

// ErrPrescaler is returned by NewRTC for a prescaler that does not fit the
// counter.
var ErrPrescaler = errors.New("sched: prescaler out of range")

// Timer is a periodic event source.
//
// Each period the timer raises an event. The event stays pending until the
// handler acknowledges it; a period that elapses while an event is still
// pending is merged into it and counted as an overrun, the way a hardware
// event flag behaves.
type Timer struct {
	period time.Duration
	events chan struct{}

	pending  atomic.Bool
	overruns atomic.Uint64
	fired    atomic.Uint64

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTimer returns a disabled timer firing every period.
func NewTimer(period time.Duration) *Timer {
	return &Timer{
		period: period,
		events: make(chan struct{}, 1),
	}
}

// NewRTC returns a disabled timer that ticks like a real-time counter driven
// by the 32.768 kHz clock divided by prescaler+1.
func NewRTC(prescaler uint32) (*Timer, error) {
	if prescaler > MaxPrescaler {
		return nil, ErrPrescaler
	}
	return NewTimer(RTCPeriod(prescaler)), nil
}

// RTCPeriod returns the tick period for an RTC prescaler.
func RTCPeriod(prescaler uint32) time.Duration {
	return time.Duration(prescaler+1) * time.Second / LFClockHz
}

// Period returns the timer period.
func (t *Timer) Period() time.Duration {
	return t.period
}

// Events returns the channel the timer signals on.
func (t *Timer) Events() <-chan struct{} {
	return t.events
}

// Enable starts the timer. Enabling a running timer does nothing.
func (t *Timer) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)
}

// Disable stops the timer and waits for its goroutine to exit. A pending
// event stays pending.
func (t *Timer) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
}

func (t *Timer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Pend()
		case <-stop:
			return
		}
	}
}

// Pend raises an event as if the period had elapsed.
func (t *Timer) Pend() {
	t.fired.Add(1)
	if t.pending.Swap(true) {
		t.overruns.Add(1)
		return
	}
	select {
	case t.events <- struct{}{}:
	default:
	}
}

// Acknowledge clears the pending event so the next period can raise a new
// one. Handlers call it first thing.
func (t *Timer) Acknowledge() {
	t.pending.Store(false)
}

// Pending reports whether an event is waiting to be acknowledged.
func (t *Timer) Pending() bool {
	return t.pending.Load()
}

// Overruns returns how many events were merged into an unacknowledged one.
func (t *Timer) Overruns() uint64 {
	return t.overruns.Load()
}

// Fired returns how many events have been raised, overruns included.
func (t *Timer) Fired() uint64 {
	return t.fired.Load()
}
