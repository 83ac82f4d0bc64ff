package logger

import (
	"sync"
	"time"
)

// DefaultPeriod is the sampling period: 800 Hz.
const DefaultPeriod = 1250 * time.Microsecond

// Timer drives the sample tick handler.
type Timer interface {
	Start()
	Stop()
}

// SampleTimer calls a tick function on its own goroutine at a fixed period.
type SampleTimer struct {
	period time.Duration
	tick   func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSampleTimer creates a stopped timer.
func NewSampleTimer(period time.Duration, tick func()) *SampleTimer {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &SampleTimer{period: period, tick: tick}
}

// Start begins ticking. Starting a running timer does nothing.
func (t *SampleTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)
}

// Stop halts ticking and returns once the tick goroutine has exited, so no
// tick runs after Stop returns.
func (t *SampleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
}

func (t *SampleTimer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}
