package logger

import (
	"log"
	"sync"
	"time"

	"github.com/sweeney/ev-logger/internal/metrics"
)

// DefaultDebounceMs is the minimum interval between accepted edges.
const DefaultDebounceMs = 250

// Control is the start/stop state machine driven by button edges.
type Control struct {
	mu       sync.Mutex
	session  *Session
	timer    Timer
	metrics  *metrics.Metrics
	interval uint32

	accepted bool   // an edge has been accepted before
	last     uint32 // tick of the last accepted edge
}

// NewControl creates a Control in the Stopped state. m may be nil.
func NewControl(s *Session, t Timer, intervalMs uint32, m *metrics.Metrics) *Control {
	return &Control{session: s, timer: t, metrics: m, interval: intervalMs}
}

// Edge handles a button edge at monotonic millisecond tick now and reports
// whether it caused a transition. Edges closer than the debounce interval to
// the last accepted edge are ignored.
func (c *Control) Edge(now uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Unsigned subtraction handles tick wraparound.
	if c.accepted && now-c.last < c.interval {
		c.countEdge("debounced")
		return false
	}
	c.accepted = true
	c.last = now
	c.countEdge("accepted")
	c.set(!c.session.Running())
	return true
}

// Stop forces the Stopped state without debouncing. Used on shutdown.
func (c *Control) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Running() {
		c.set(false)
	}
}

func (c *Control) set(running bool) {
	if running {
		c.session.running.Store(true)
		c.timer.Start()
		log.Printf("control: logging started")
	} else {
		// The tick goroutine has exited before running is cleared.
		c.timer.Stop()
		c.session.running.Store(false)
		log.Printf("control: logging stopped")
	}
	if c.metrics != nil {
		v := 0.0
		if running {
			v = 1
		}
		c.metrics.Running.Set(v)
	}
}

func (c *Control) countEdge(result string) {
	if c.metrics != nil {
		c.metrics.ButtonEdges.WithLabelValues(result).Inc()
	}
}

// Millis returns a monotonic millisecond counter that starts at start and
// wraps at 2^32.
func Millis(start time.Time) func() uint32 {
	return func() uint32 {
		return uint32(time.Since(start) / time.Millisecond)
	}
}
