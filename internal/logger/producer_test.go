package logger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/ev-logger/internal/metrics"
	"github.com/sweeney/ev-logger/internal/ringbuf"
	"github.com/sweeney/ev-logger/internal/sample"
	"github.com/sweeney/ev-logger/internal/sensor"
)

func newTestRing(t *testing.T, capacity int) *ringbuf.Ring {
	t.Helper()
	r, err := ringbuf.New(capacity)
	if err != nil {
		t.Fatalf("ringbuf.New: %v", err)
	}
	return r
}

func TestProducerSkipsWhileFileClosed(t *testing.T) {
	s := &Session{}
	ring := newTestRing(t, 64)
	adc := &sensor.FakeADC{}
	accel := &sensor.FakeAccelerometer{}
	p := NewProducer(s, ring, adc, accel, 4, nil)

	for i := 0; i < 10; i++ {
		p.Tick()
	}
	if ring.Used() != 0 {
		t.Errorf("Used: got %d, want 0 while file closed", ring.Used())
	}
	if got := adc.Triggers.Load(); got != 10 {
		t.Errorf("ADC triggers: got %d, want 10", got)
	}
	if got := accel.Steps.Load(); got != 2 {
		t.Errorf("accel steps: got %d, want 2", got)
	}
}

func TestProducerWritesLatestValues(t *testing.T) {
	s := &Session{}
	s.fileOpen.Store(true)
	ring := newTestRing(t, 64)
	adc := &sensor.FakeADC{}
	adc.Value.Store(0x0abc)
	accel := &sensor.FakeAccelerometer{}
	accel.X.Store(-1)
	accel.Y.Store(2)
	accel.Z.Store(300)
	p := NewProducer(s, ring, adc, accel, 0, nil)

	p.Tick()

	buf := make([]byte, sample.Size)
	if n, _ := ring.Read(buf); n != sample.Size {
		t.Fatalf("Read: got %d bytes, want %d", n, sample.Size)
	}
	got, err := sample.Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := sample.Sample{ADC: 0x0abc, AccelX: -1, AccelY: 2, AccelZ: 300}
	if got != want {
		t.Errorf("sample: got %+v, want %+v", got, want)
	}
}

func TestProducerCountsDrops(t *testing.T) {
	s := &Session{}
	s.fileOpen.Store(true)
	ring := newTestRing(t, 32) // room for 3 samples
	m := metrics.New(nil)
	p := NewProducer(s, ring, &sensor.FakeADC{}, &sensor.FakeAccelerometer{}, 0, m)

	for i := 0; i < 5; i++ {
		p.Tick()
	}
	if got := testutil.ToFloat64(m.SamplesTotal); got != 3 {
		t.Errorf("samples: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.SamplesDropped); got != 2 {
		t.Errorf("dropped: got %v, want 2", got)
	}
	if !ring.Overflow() {
		t.Error("ring should report overflow")
	}
	if ring.Used() != 3*sample.Size {
		t.Errorf("Used: got %d, want %d", ring.Used(), 3*sample.Size)
	}
}

func TestProducerDefaultAccelDivider(t *testing.T) {
	accel := &sensor.FakeAccelerometer{}
	p := NewProducer(&Session{}, newTestRing(t, 16), &sensor.FakeADC{}, accel, 0, nil)

	for i := 0; i < 2*DefaultAccelDivider-1; i++ {
		p.Tick()
	}
	if got := accel.Steps.Load(); got != 1 {
		t.Errorf("accel steps: got %d, want 1", got)
	}
}
