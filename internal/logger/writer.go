package logger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/ev-logger/internal/gpio"
	"github.com/sweeney/ev-logger/internal/metrics"
	"github.com/sweeney/ev-logger/internal/ringbuf"
	"github.com/sweeney/ev-logger/internal/status"
	"github.com/sweeney/ev-logger/internal/storage"
)

// ErrBlockSize is returned by NewWriter when a block would not fit in the ring.
var ErrBlockSize = errors.New("logger: block size must be positive and smaller than the ring capacity")

// Reporter receives operator messages and status readings.
type Reporter interface {
	Report(msg string)
	Refresh(r status.Reading)
}

// Config holds storage writer settings.
type Config struct {
	FileName  string
	BlockSize int

	DetectRetry time.Duration
	MountRetry  time.Duration
	OpenRetry   time.Duration
	CloseRetry  time.Duration
}

// DefaultConfig returns the standard writer settings.
func DefaultConfig() Config {
	return Config{
		FileName:    "data.log",
		BlockSize:   512,
		DetectRetry: 250 * time.Millisecond,
		MountRetry:  100 * time.Millisecond,
		OpenRetry:   500 * time.Millisecond,
		CloseRetry:  100 * time.Millisecond,
	}
}

// Writer moves samples from the ring buffer to the data file. It owns the
// file handle and the fileOpen flag. All methods must be called from the
// supervisory loop.
type Writer struct {
	cfg     Config
	vol     storage.Volume
	ring    *ringbuf.Ring
	session *Session
	rep     Reporter

	led       gpio.LED
	metrics   *metrics.Metrics
	observers []SessionObserver

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mounted  bool
	file     storage.File
	scratch  []byte
	info     SessionInfo
	lastSize int64
	freeErr  string

	sessions int
	blocks   uint64
	failures uint64
}

// NewWriter creates a Writer.
func NewWriter(cfg Config, vol storage.Volume, ring *ringbuf.Ring, s *Session, rep Reporter) (*Writer, error) {
	if cfg.BlockSize <= 0 || cfg.BlockSize >= ring.Cap() {
		return nil, fmt.Errorf("block size %d, ring capacity %d: %w", cfg.BlockSize, ring.Cap(), ErrBlockSize)
	}
	return &Writer{
		cfg:     cfg,
		vol:     vol,
		ring:    ring,
		session: s,
		rep:     rep,
		sleep:   sleepCtx,
		now:     time.Now,
		scratch: make([]byte, cfg.BlockSize),
	}, nil
}

// SetLED sets the activity LED lit during block writes.
func (w *Writer) SetLED(led gpio.LED) {
	w.led = led
}

// SetMetrics attaches Prometheus collectors.
func (w *Writer) SetMetrics(m *metrics.Metrics) {
	w.metrics = m
}

// AddObserver registers a session observer. It is called on the supervisory
// loop; see ObserverQueue for observers that may block.
func (w *Writer) AddObserver(o SessionObserver) {
	w.observers = append(w.observers, o)
}

// Mount waits for the medium and mounts it, retrying until it succeeds or
// ctx is cancelled.
func (w *Writer) Mount(ctx context.Context) error {
	prompted := false
	for !w.vol.Detect() {
		w.rep.Report("Insert SD Card")
		prompted = true
		if err := w.sleep(ctx, w.cfg.DetectRetry); err != nil {
			return err
		}
	}
	if prompted {
		w.rep.Report("")
	}

	for {
		err := w.vol.Mount()
		if err == nil {
			break
		}
		w.rep.Report(fmt.Sprintf("Mount fail: %v", err))
		w.retried("mount")
		if err := w.sleep(ctx, w.cfg.MountRetry); err != nil {
			return err
		}
	}
	w.mounted = true
	log.Printf("writer: volume mounted")
	return nil
}

// Unmount releases the volume. The file must already be closed.
func (w *Writer) Unmount() error {
	if w.file != nil {
		return errors.New("unmount: data file still open")
	}
	if !w.mounted {
		return nil
	}
	if err := w.vol.Unmount(); err != nil {
		return fmt.Errorf("unmount volume: %w", err)
	}
	w.mounted = false
	log.Printf("writer: volume unmounted")
	return nil
}

// Step performs one pass of the writer: open the file when logging starts,
// drain at most one block while running, or flush and close when logging
// stops. It only returns an error when ctx is cancelled during a retry.
func (w *Writer) Step(ctx context.Context) error {
	running := w.session.Running()
	open := w.session.FileOpen()

	switch {
	case running && !open:
		return w.open(ctx)
	case running && open:
		if w.ring.Used() > w.cfg.BlockSize {
			n, _ := w.ring.Read(w.scratch)
			w.write(w.scratch[:n])
		}
	case !running && open:
		return w.close(ctx)
	}
	return nil
}

func (w *Writer) open(ctx context.Context) error {
	var f storage.File
	for {
		var err error
		f, err = w.vol.Open(w.cfg.FileName)
		if err == nil {
			break
		}
		w.retried("open")
		if err := w.sleep(ctx, w.cfg.OpenRetry); err != nil {
			return err
		}
		w.rep.Report(fmt.Sprintf("Open fail: %v", err))
	}

	// The producer only writes while fileOpen is set, so the ring is idle here.
	w.ring.Reset()
	w.file = f
	w.sessions++
	w.info = SessionInfo{
		ID:       w.sessions,
		FileName: w.cfg.FileName,
		Started:  w.now(),
	}
	w.session.fileOpen.Store(true)
	w.rep.Report("")

	if w.metrics != nil {
		w.metrics.Sessions.Inc()
	}
	log.Printf("writer: session %d opened %s", w.info.ID, w.cfg.FileName)
	for _, o := range w.observers {
		o.SessionOpened(w.info)
	}
	return nil
}

func (w *Writer) write(p []byte) {
	if len(p) == 0 {
		return
	}
	w.setLED(true)
	start := time.Now()
	n, err := w.file.Write(p)
	elapsed := time.Since(start)
	w.setLED(false)

	if err != nil {
		w.failures++
		w.info.WriteFailures++
		if w.metrics != nil {
			w.metrics.WriteFailures.Inc()
		}
		w.rep.Report(fmt.Sprintf("write fail: %v", err))
		return
	}

	w.blocks++
	w.info.Blocks++
	w.info.Bytes += uint64(n)
	if w.metrics != nil {
		w.metrics.BlocksWritten.Inc()
		w.metrics.BytesWritten.Add(float64(n))
		w.metrics.BlockWriteDur.Observe(elapsed.Seconds())
	}
}

func (w *Writer) close(ctx context.Context) error {
	// The sample timer is stopped before running clears, so nothing refills
	// the ring while it is flushed.
	for {
		n, _ := w.ring.Read(w.scratch)
		if n == 0 {
			break
		}
		w.write(w.scratch[:n])
	}
	w.info.Overflow = w.ring.Overflow()

	if err := w.file.Sync(); err != nil {
		w.rep.Report(fmt.Sprintf("sync fail: %v", err))
	}
	if size, err := w.file.Size(); err == nil {
		w.lastSize = size
	}

	for {
		err := w.file.Close()
		if err == nil {
			break
		}
		w.rep.Report(fmt.Sprintf("close fail: %v", err))
		w.retried("close")
		if err := w.sleep(ctx, w.cfg.CloseRetry); err != nil {
			return err
		}
	}

	w.file = nil
	w.session.fileOpen.Store(false)
	w.info.Ended = w.now()

	log.Printf("writer: session %d closed, %d bytes in %d blocks", w.info.ID, w.info.Bytes, w.info.Blocks)
	for _, o := range w.observers {
		o.SessionClosed(w.info)
	}
	return nil
}

// Refresh gathers the current state and pushes it to the reporter.
func (w *Writer) Refresh() status.Reading {
	rd := status.Reading{
		Running:       w.session.Running(),
		FileOpen:      w.session.FileOpen(),
		Buffered:      w.ring.Used(),
		BufferSize:    w.ring.Cap(),
		Overflow:      w.ring.Overflow(),
		FileName:      w.cfg.FileName,
		FileSize:      w.lastSize,
		Sessions:      w.sessions,
		BlocksWritten: w.blocks,
		WriteFailures: w.failures,
	}
	if w.file != nil {
		if size, err := w.file.Size(); err == nil {
			rd.FileSize = size
			w.lastSize = size
		}
	}
	if w.mounted {
		total, free, err := w.vol.FreeSpace()
		switch {
		case err != nil:
			if msg := err.Error(); msg != w.freeErr {
				log.Printf("writer: free space: %v", err)
				w.freeErr = msg
			}
		default:
			w.freeErr = ""
			rd.StorageTotal = total
			rd.StorageFree = free
		}
	}

	if w.metrics != nil {
		w.metrics.BufferUsed.Set(float64(rd.Buffered))
		w.metrics.BufferPercent.Set(float64(rd.BufferPercent()))
		w.metrics.StorageFree.Set(float64(rd.StorageFree))
	}
	w.rep.Refresh(rd)
	return rd
}

func (w *Writer) setLED(on bool) {
	if w.led == nil {
		return
	}
	if err := w.led.Set(on); err != nil {
		log.Printf("writer: led: %v", err)
	}
}

func (w *Writer) retried(op string) {
	if w.metrics != nil {
		w.metrics.Retries.WithLabelValues(op).Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
