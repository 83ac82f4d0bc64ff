package logger

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/ev-logger/internal/status"
)

// fakeReporter records every report and reading.
type fakeReporter struct {
	mu       sync.Mutex
	reports  []string
	readings []status.Reading
}

func (f *fakeReporter) Report(msg string) {
	f.mu.Lock()
	f.reports = append(f.reports, msg)
	f.mu.Unlock()
}

func (f *fakeReporter) Refresh(r status.Reading) {
	f.mu.Lock()
	f.readings = append(f.readings, r)
	f.mu.Unlock()
}

func (f *fakeReporter) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reports...)
}

// fakeTimer counts Start/Stop calls and records the running flag seen by each.
type fakeTimer struct {
	session *Session

	starts, stops  int
	runningAtStart []bool
	runningAtStop  []bool
	active         bool
}

func (f *fakeTimer) Start() {
	f.starts++
	f.active = true
	if f.session != nil {
		f.runningAtStart = append(f.runningAtStart, f.session.Running())
	}
}

func (f *fakeTimer) Stop() {
	f.stops++
	f.active = false
	if f.session != nil {
		f.runningAtStop = append(f.runningAtStop, f.session.Running())
	}
}

// fakeObserver records session notifications.
type fakeObserver struct {
	opened []SessionInfo
	closed []SessionInfo
}

func (f *fakeObserver) SessionOpened(info SessionInfo) { f.opened = append(f.opened, info) }
func (f *fakeObserver) SessionClosed(info SessionInfo) { f.closed = append(f.closed, info) }

// sleepRecorder replaces the writer's sleep and records requested delays.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}
