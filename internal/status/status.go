// Package status provides the status reporter for the display and a
// thread-safe status tracker for HTTP, websocket and MQTT consumers.
package status

import (
	"sync"
	"time"
)

// Reading is one refresh worth of logger state, gathered by the storage
// writer on the supervisory loop.
type Reading struct {
	Running  bool
	FileOpen bool

	Buffered   int // bytes in the ring buffer
	BufferSize int // ring buffer capacity
	Overflow   bool

	FileName string
	FileSize int64

	StorageTotal uint64 // bytes; 0 when unknown
	StorageFree  uint64

	Sessions      int
	BlocksWritten uint64
	WriteFailures uint64
}

// BufferPercent returns ring occupancy as a percentage of capacity.
func (r Reading) BufferPercent() int {
	if r.BufferSize <= 0 {
		return 0
	}
	return 100 * r.Buffered / r.BufferSize
}

// StorageUsedPercent returns the used share of the volume.
func (r Reading) StorageUsedPercent() int {
	if r.StorageTotal == 0 {
		return 0
	}
	return int(100 - (100*r.StorageFree)/r.StorageTotal)
}

// StorageFreePercent returns the free share of the volume.
func (r Reading) StorageFreePercent() int {
	if r.StorageTotal == 0 {
		return 0
	}
	return int((100 * r.StorageFree) / r.StorageTotal)
}

// Config contains daemon configuration for display.
type Config struct {
	PeriodUs    int64
	DebounceMs  int64
	HeartbeatMs int64
	BufferSize  int
	BlockSize   int
	FileName    string
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	Reading       Reading
	Message       string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the latest reading.
func (t *Tracker) Update(r Reading) {
	t.mu.Lock()
	t.snap.Reading = r
	t.mu.Unlock()
}

// SetMessage stores the last status message shown to the operator.
func (t *Tracker) SetMessage(msg string) {
	t.mu.Lock()
	t.snap.Message = msg
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
