package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/ev-logger/internal/gpio"
	"github.com/sweeney/ev-logger/internal/metrics"
	"github.com/sweeney/ev-logger/internal/ringbuf"
	"github.com/sweeney/ev-logger/internal/storage"
)

type writerHarness struct {
	w       *Writer
	vol     *storage.FakeVolume
	ring    *ringbuf.Ring
	session *Session
	rep     *fakeReporter
	sleeps  *sleepRecorder
	metrics *metrics.Metrics
}

func newWriterHarness(t *testing.T, capacity int) *writerHarness {
	t.Helper()
	h := &writerHarness{
		vol:     storage.NewFakeVolume(),
		ring:    newTestRing(t, capacity),
		session: &Session{},
		rep:     &fakeReporter{},
		sleeps:  &sleepRecorder{},
		metrics: metrics.New(nil),
	}
	w, err := NewWriter(DefaultConfig(), h.vol, h.ring, h.session, h.rep)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.sleep = h.sleeps.sleep
	w.SetMetrics(h.metrics)
	h.w = w
	return h
}

// startSession mounts the volume and opens the data file.
func (h *writerHarness) startSession(t *testing.T) *storage.FakeFile {
	t.Helper()
	ctx := context.Background()
	if err := h.w.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	h.session.running.Store(true)
	if err := h.w.Step(ctx); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !h.session.FileOpen() {
		t.Fatal("file should be open")
	}
	return h.vol.LastFile()
}

func fill(t *testing.T, r *ringbuf.Ring, n int, start byte) []byte {
	t.Helper()
	p := make([]byte, n)
	for i := range p {
		p[i] = start + byte(i)
	}
	if err := r.Write(p); err != nil {
		t.Fatalf("ring Write(%d): %v", n, err)
	}
	return p
}

func TestNewWriterRejectsBlockSize(t *testing.T) {
	ring := newTestRing(t, 512)
	for _, bs := range []int{0, -1, 512, 1024} {
		cfg := DefaultConfig()
		cfg.BlockSize = bs
		if _, err := NewWriter(cfg, storage.NewFakeVolume(), ring, &Session{}, &fakeReporter{}); !errors.Is(err, ErrBlockSize) {
			t.Errorf("block size %d: got %v, want ErrBlockSize", bs, err)
		}
	}
}

// Mount fails three times then succeeds.
func TestMountRetriesWithReports(t *testing.T) {
	h := newWriterHarness(t, 1024)
	h.vol.MountErrs = []error{errors.New("EIO"), errors.New("EIO"), errors.New("EIO")}

	if err := h.w.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if h.vol.MountCalls != 4 {
		t.Errorf("mount calls: got %d, want 4", h.vol.MountCalls)
	}
	msgs := h.rep.messages()
	if len(msgs) != 3 {
		t.Fatalf("reports: got %q, want 3", msgs)
	}
	for _, m := range msgs {
		if m != "Mount fail: EIO" {
			t.Errorf("report: got %q", m)
		}
	}
	if len(h.sleeps.delays) != 3 || h.sleeps.delays[0] != 100*time.Millisecond {
		t.Errorf("delays: got %v", h.sleeps.delays)
	}
	if got := testutil.ToFloat64(h.metrics.Retries.WithLabelValues("mount")); got != 3 {
		t.Errorf("mount retries metric: got %v", got)
	}
}

func TestMountWaitsForCard(t *testing.T) {
	h := newWriterHarness(t, 1024)
	h.vol.DetectAfter = 2

	if err := h.w.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	want := []string{"Insert SD Card", "Insert SD Card", ""}
	if got := h.rep.messages(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("reports: got %q, want %q", got, want)
	}
	if h.sleeps.delays[0] != 250*time.Millisecond {
		t.Errorf("detect delay: got %v", h.sleeps.delays[0])
	}
}

func TestMountNoPromptWhenPresent(t *testing.T) {
	h := newWriterHarness(t, 1024)
	if err := h.w.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if msgs := h.rep.messages(); len(msgs) != 0 {
		t.Errorf("reports: got %q, want none", msgs)
	}
}

func TestMountCancelled(t *testing.T) {
	h := newWriterHarness(t, 1024)
	for i := 0; i < 10; i++ {
		h.vol.MountErrs = append(h.vol.MountErrs, errors.New("EIO"))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.w.Mount(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Mount: got %v, want context.Canceled", err)
	}
	if h.vol.MountCalls != 1 {
		t.Errorf("mount calls: got %d, want 1", h.vol.MountCalls)
	}
}

func TestOpenRetriesThenResetsRing(t *testing.T) {
	h := newWriterHarness(t, 1024)
	h.vol.OpenErrs = []error{errors.New("EACCES"), errors.New("EACCES")}
	if err := h.w.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	// Stale data and overflow from before the session.
	fill(t, h.ring, 1000, 0)
	h.ring.Write(make([]byte, 100))

	h.session.running.Store(true)
	if err := h.w.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if h.vol.OpenCalls != 3 {
		t.Errorf("open calls: got %d, want 3", h.vol.OpenCalls)
	}
	want := []string{"Open fail: EACCES", "Open fail: EACCES", ""}
	if got := h.rep.messages(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("reports: got %q, want %q", got, want)
	}
	for _, d := range h.sleeps.delays {
		if d != 500*time.Millisecond {
			t.Errorf("open delay: got %v", d)
		}
	}
	if h.ring.Used() != 0 || h.ring.Overflow() {
		t.Errorf("ring not reset: used=%d overflow=%v", h.ring.Used(), h.ring.Overflow())
	}
	if !h.session.FileOpen() {
		t.Error("fileOpen should be set")
	}
	if h.vol.LastFile().Name != "data.log" {
		t.Errorf("file name: got %q", h.vol.LastFile().Name)
	}
}

// Occupancy crossing one block produces exactly one block write.
func TestDrainOneBlock(t *testing.T) {
	h := newWriterHarness(t, 1024)
	f := h.startSession(t)
	ctx := context.Background()

	data := fill(t, h.ring, 512, 0)
	h.w.Step(ctx)
	if len(f.Writes) != 0 {
		t.Fatalf("occupancy of exactly one block should not drain, writes=%v", f.Writes)
	}

	data = append(data, fill(t, h.ring, 8, 0x80)...)
	h.w.Step(ctx)
	if len(f.Writes) != 1 || f.Writes[0] != 512 {
		t.Fatalf("writes: got %v, want [512]", f.Writes)
	}
	if h.ring.Used() != 8 {
		t.Errorf("Used: got %d, want 8", h.ring.Used())
	}
	if !bytes.Equal(f.Bytes(), data[:512]) {
		t.Error("written block does not match buffered bytes")
	}
	if got := testutil.ToFloat64(h.metrics.BlocksWritten); got != 1 {
		t.Errorf("blocks metric: got %v", got)
	}
	if got := testutil.ToFloat64(h.metrics.BytesWritten); got != 512 {
		t.Errorf("bytes metric: got %v", got)
	}
}

func TestDrainWriteFailureDropsBlock(t *testing.T) {
	h := newWriterHarness(t, 1024)
	f := h.startSession(t)
	f.WriteErrs = []error{errors.New("EIO")}

	fill(t, h.ring, 600, 0)
	h.w.Step(context.Background())

	if h.ring.Used() != 88 {
		t.Errorf("Used: got %d, want 88", h.ring.Used())
	}
	if f.Data.Len() != 0 {
		t.Errorf("file should be empty, got %d bytes", f.Data.Len())
	}
	msgs := h.rep.messages()
	if msgs[len(msgs)-1] != "write fail: EIO" {
		t.Errorf("last report: got %q", msgs[len(msgs)-1])
	}
	if got := testutil.ToFloat64(h.metrics.WriteFailures); got != 1 {
		t.Errorf("write failures metric: got %v", got)
	}
	if rd := h.w.Refresh(); rd.WriteFailures != 1 {
		t.Errorf("reading write failures: got %d", rd.WriteFailures)
	}
}

// Stopping with 200 bytes buffered flushes them, syncs, then closes.
func TestCloseFlushesRemainder(t *testing.T) {
	h := newWriterHarness(t, 1024)
	f := h.startSession(t)

	data := fill(t, h.ring, 200, 7)
	h.session.running.Store(false)
	if err := h.w.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if len(f.Writes) != 1 || f.Writes[0] != 200 {
		t.Errorf("writes: got %v, want [200]", f.Writes)
	}
	if got := strings.Join(f.Calls, ","); got != "write,sync,close" {
		t.Errorf("calls: got %s, want write,sync,close", got)
	}
	if !bytes.Equal(f.Bytes(), data) {
		t.Error("flushed bytes differ")
	}
	if h.session.FileOpen() {
		t.Error("fileOpen should be cleared after close")
	}
	if !f.Closed {
		t.Error("file should be closed")
	}
}

func TestCloseDrainsInBlocks(t *testing.T) {
	h := newWriterHarness(t, 2048)
	f := h.startSession(t)

	fill(t, h.ring, 1200, 0)
	h.session.running.Store(false)
	h.w.Step(context.Background())

	want := []int{512, 512, 176}
	if len(f.Writes) != len(want) {
		t.Fatalf("writes: got %v, want %v", f.Writes, want)
	}
	for i := range want {
		if f.Writes[i] != want[i] {
			t.Errorf("write %d: got %d, want %d", i, f.Writes[i], want[i])
		}
	}
}

func TestCloseRetriesUntilSuccess(t *testing.T) {
	h := newWriterHarness(t, 1024)
	f := h.startSession(t)
	f.SyncErr = errors.New("ENOSPC")
	f.CloseErrs = []error{errors.New("EBUSY"), errors.New("EBUSY")}

	var openDuringRetry []bool
	h.w.sleep = func(ctx context.Context, d time.Duration) error {
		if d != 100*time.Millisecond {
			t.Errorf("close delay: got %v", d)
		}
		openDuringRetry = append(openDuringRetry, h.session.FileOpen())
		return nil
	}

	h.session.running.Store(false)
	if err := h.w.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if len(openDuringRetry) != 2 {
		t.Fatalf("close retries: got %d, want 2", len(openDuringRetry))
	}
	for i, open := range openDuringRetry {
		if !open {
			t.Errorf("retry %d: fileOpen cleared before close succeeded", i)
		}
	}
	if h.session.FileOpen() {
		t.Error("fileOpen should be cleared")
	}
	want := []string{"", "sync fail: ENOSPC", "close fail: EBUSY", "close fail: EBUSY"}
	if got := h.rep.messages(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("reports: got %q, want %q", got, want)
	}
	if got := strings.Join(f.Calls, ","); got != "sync,close,close,close" {
		t.Errorf("calls: got %s", got)
	}
}

func TestStepIdleDoesNothing(t *testing.T) {
	h := newWriterHarness(t, 1024)
	if err := h.w.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	h.w.Step(context.Background())
	if h.vol.OpenCalls != 0 {
		t.Errorf("open calls: got %d, want 0", h.vol.OpenCalls)
	}
}

func TestObserversAndSessionStats(t *testing.T) {
	h := newWriterHarness(t, 1024)
	obs := &fakeObserver{}
	h.w.AddObserver(obs)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.w.now = func() time.Time { return clock }

	h.startSession(t)
	if len(obs.opened) != 1 || obs.opened[0].ID != 1 {
		t.Fatalf("opened: got %+v", obs.opened)
	}

	fill(t, h.ring, 600, 0)
	h.w.Step(context.Background())
	clock = clock.Add(time.Minute)
	h.session.running.Store(false)
	h.w.Step(context.Background())

	if len(obs.closed) != 1 {
		t.Fatalf("closed: got %d notifications", len(obs.closed))
	}
	info := obs.closed[0]
	if info.Bytes != 600 || info.Blocks != 2 {
		t.Errorf("stats: got bytes=%d blocks=%d, want 600/2", info.Bytes, info.Blocks)
	}
	if info.Duration() != time.Minute {
		t.Errorf("duration: got %v", info.Duration())
	}
	if info.FileName != "data.log" {
		t.Errorf("file name: got %q", info.FileName)
	}

	// A second session gets the next ID.
	h.session.running.Store(true)
	h.w.Step(context.Background())
	if len(obs.opened) != 2 || obs.opened[1].ID != 2 {
		t.Errorf("second session: got %+v", obs.opened)
	}
}

func TestWriteTogglesLED(t *testing.T) {
	h := newWriterHarness(t, 1024)
	led := &gpio.FakeLED{}
	h.w.SetLED(led)
	h.startSession(t)

	fill(t, h.ring, 600, 0)
	h.w.Step(context.Background())

	if len(led.States) != 2 || !led.States[0] || led.States[1] {
		t.Errorf("LED states: got %v, want [true false]", led.States)
	}
}

func TestRefreshReading(t *testing.T) {
	h := newWriterHarness(t, 1024)
	h.startSession(t)
	fill(t, h.ring, 600, 0)
	h.w.Step(context.Background())
	fill(t, h.ring, 100, 0)

	rd := h.w.Refresh()
	if !rd.Running || !rd.FileOpen {
		t.Errorf("flags: got running=%v open=%v", rd.Running, rd.FileOpen)
	}
	if rd.Buffered != 188 || rd.BufferSize != 1024 {
		t.Errorf("buffer: got %d/%d, want 188/1024", rd.Buffered, rd.BufferSize)
	}
	if rd.FileSize != 512 {
		t.Errorf("file size: got %d, want 512", rd.FileSize)
	}
	if rd.StorageTotal != 2_000_000_000 || rd.StorageFree != 1_000_000_000 {
		t.Errorf("storage: got %d/%d", rd.StorageFree, rd.StorageTotal)
	}
	if rd.Sessions != 1 || rd.BlocksWritten != 1 {
		t.Errorf("counts: got sessions=%d blocks=%d", rd.Sessions, rd.BlocksWritten)
	}
	if len(h.rep.readings) != 1 {
		t.Errorf("reporter readings: got %d, want 1", len(h.rep.readings))
	}
	if got := testutil.ToFloat64(h.metrics.BufferUsed); got != 188 {
		t.Errorf("buffer gauge: got %v", got)
	}

	// File size is kept after the session closes.
	h.session.running.Store(false)
	h.w.Step(context.Background())
	if rd := h.w.Refresh(); rd.FileSize != 700 || rd.FileOpen {
		t.Errorf("after close: size=%d open=%v", rd.FileSize, rd.FileOpen)
	}
}

func TestRefreshFreeSpaceError(t *testing.T) {
	h := newWriterHarness(t, 1024)
	h.w.Mount(context.Background())
	h.vol.FreeErr = errors.New("EIO")

	if rd := h.w.Refresh(); rd.StorageTotal != 0 {
		t.Errorf("storage total: got %d, want 0 on error", rd.StorageTotal)
	}
}

func TestUnmount(t *testing.T) {
	h := newWriterHarness(t, 1024)
	h.startSession(t)

	if err := h.w.Unmount(); err == nil {
		t.Error("Unmount with an open file should fail")
	}
	h.session.running.Store(false)
	h.w.Step(context.Background())
	if err := h.w.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if !h.vol.Unmounted {
		t.Error("volume should be unmounted")
	}
	if err := h.w.Unmount(); err != nil {
		t.Errorf("second Unmount: %v", err)
	}
}
