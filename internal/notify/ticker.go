package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker is the session's only background worker. It raises the tick signal
// every resolution (one second in production) and the refresh signal every
// interval, and owns nothing else; it talks to the session purely by
// signaling. Stop terminates the loop and waits for it, so no signal is ever
// raised after Stop returns.
type Ticker struct {
	tick       *Signal
	refresh    *Signal
	interval   time.Duration
	resolution time.Duration

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	started atomic.Bool
}

// NewTicker returns an unstarted ticker. interval is the refresh period and
// must be at least one resolution.
func NewTicker(tick, refresh *Signal, interval time.Duration) *Ticker {
	return NewTickerResolution(tick, refresh, interval, time.Second)
}

// NewTickerResolution is NewTicker with an explicit tick period.
func NewTickerResolution(tick, refresh *Signal, interval, resolution time.Duration) *Ticker {
	return &Ticker{
		tick:       tick,
		refresh:    refresh,
		interval:   interval,
		resolution: resolution,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start launches the ticker loop.
func (t *Ticker) Start() {
	if t.started.CompareAndSwap(false, true) {
		go t.run()
	}
}

// Stop terminates the loop and joins it. Safe to call more than once, and on
// a ticker that was never started.
func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.done) })
	if t.started.Load() {
		<-t.stopped
	}
}

func (t *Ticker) run() {
	defer close(t.stopped)

	tk := time.NewTicker(t.resolution)
	defer tk.Stop()

	// The refresh period is counted in whole ticks, mirroring the tick
	// cadence rather than wall-clock drift.
	var elapsed time.Duration
	for {
		select {
		case <-t.done:
			return
		case <-tk.C:
			t.tick.Raise()
			elapsed += t.resolution
			if elapsed >= t.interval {
				t.refresh.Raise()
				elapsed = 0
			}
		}
	}
}
