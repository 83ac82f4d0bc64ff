// Command ev-logger samples an analog channel and an accelerometer and logs
// the samples to removable storage, started and stopped by two buttons.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/ev-logger/internal/catalog"
	"github.com/sweeney/ev-logger/internal/display"
	"github.com/sweeney/ev-logger/internal/gpio"
	"github.com/sweeney/ev-logger/internal/logger"
	"github.com/sweeney/ev-logger/internal/metrics"
	"github.com/sweeney/ev-logger/internal/mqtt"
	"github.com/sweeney/ev-logger/internal/ringbuf"
	"github.com/sweeney/ev-logger/internal/sensor"
	"github.com/sweeney/ev-logger/internal/status"
	"github.com/sweeney/ev-logger/internal/storage"
	"github.com/sweeney/ev-logger/internal/web"
)

type config struct {
	period     time.Duration
	debounce   time.Duration
	bufferSize int
	blockSize  int
	fileName   string

	device     string
	mountPoint string
	fsType     string

	pinToggle int
	pinStop   int
	pinLED    int
	adcPath   string
	i2cDev    string
	accelDiv  int

	broker      string
	heartbeat   time.Duration
	httpAddr    string
	serialPort  string
	serialBaud  int
	catalogPath string

	poll    time.Duration
	refresh time.Duration
}

func main() {
	var cfg config
	flag.DurationVar(&cfg.period, "period", logger.DefaultPeriod, "Sampling period")
	flag.DurationVar(&cfg.debounce, "debounce", logger.DefaultDebounceMs*time.Millisecond, "Button debounce interval")
	flag.IntVar(&cfg.bufferSize, "buffer", 16384, "Ring buffer capacity in bytes (power of two)")
	flag.IntVar(&cfg.blockSize, "block", 512, "Storage write block size in bytes")
	flag.StringVar(&cfg.fileName, "file", "data.log", "Data file name on the volume")
	flag.StringVar(&cfg.device, "device", "/dev/mmcblk1p1", "Block device of the removable medium (empty if mounted externally)")
	flag.StringVar(&cfg.mountPoint, "mount", "/mnt/evlog", "Mount point of the removable medium")
	flag.StringVar(&cfg.fsType, "fstype", "vfat", "Filesystem type of the removable medium")
	flag.IntVar(&cfg.pinToggle, "pin-toggle", gpio.DefaultPinToggle, "BCM pin number of the start/stop button (S1)")
	flag.IntVar(&cfg.pinStop, "pin-stop", gpio.DefaultPinStop, "BCM pin number of the second button (S2)")
	flag.IntVar(&cfg.pinLED, "pin-led", gpio.DefaultPinLED, "BCM pin number of the write activity LED (-1 to disable)")
	flag.StringVar(&cfg.adcPath, "adc", sensor.DefaultIIOPath, "IIO sysfs raw value file of the analog channel")
	flag.StringVar(&cfg.i2cDev, "i2c", "/dev/i2c-1", "I2C bus device of the accelerometer")
	flag.IntVar(&cfg.accelDiv, "accel-div", logger.DefaultAccelDivider, "Sample ticks per accelerometer step")
	flag.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.serialPort, "serial", "", "Serial port for the status console (empty for stdout)")
	flag.IntVar(&cfg.serialBaud, "serial-baud", 115200, "Serial console baud rate")
	flag.StringVar(&cfg.catalogPath, "catalog", "/var/lib/ev-logger/catalog.db", "Session catalog database (empty to disable)")
	flag.DurationVar(&cfg.poll, "poll", 5*time.Millisecond, "Storage writer poll interval")
	flag.DurationVar(&cfg.refresh, "refresh", 333*time.Millisecond, "Status refresh interval")

	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	// Workers and retry loops end on the first signal; runLoop sees it too.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Display
	var disp display.Display
	if cfg.serialPort != "" {
		sc, err := display.OpenSerial(cfg.serialPort, cfg.serialBaud)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer sc.Close()
		disp = sc
	} else {
		term, err := display.NewTerminal(os.Stdout)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer term.Close()
		lw, err := term.LogWriter(status.RowMessage + 2)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		log.SetOutput(lw)
		defer log.SetOutput(os.Stderr)
		disp = term
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PeriodUs:    cfg.period.Microseconds(),
		DebounceMs:  cfg.debounce.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		BufferSize:  cfg.bufferSize,
		BlockSize:   cfg.blockSize,
		FileName:    cfg.fileName,
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
	})
	reporter := status.NewReporter(disp, tracker)
	reporter.Start()

	ring, err := ringbuf.New(cfg.bufferSize)
	if err != nil {
		return fmt.Errorf("init ring buffer: %w", err)
	}
	session := &logger.Session{}

	// Sensors
	adc := sensor.NewIIOADC(cfg.adcPath)
	go adc.Run(ctx)

	bus, err := sensor.OpenI2C(cfg.i2cDev)
	if err != nil {
		return fmt.Errorf("init accelerometer: %w", err)
	}
	defer bus.Close()
	accel := sensor.NewADXL345(bus)
	go accel.Run(ctx)

	producer := logger.NewProducer(session, ring, adc, accel, cfg.accelDiv, m)
	timer := logger.NewSampleTimer(cfg.period, producer.Tick)
	control := logger.NewControl(session, timer, uint32(cfg.debounce.Milliseconds()), m)

	// Storage
	wcfg := logger.DefaultConfig()
	wcfg.FileName = cfg.fileName
	wcfg.BlockSize = cfg.blockSize
	vol := storage.NewLinuxVolume(cfg.device, cfg.mountPoint, cfg.fsType)
	writer, err := logger.NewWriter(wcfg, vol, ring, session, reporter)
	if err != nil {
		return fmt.Errorf("init writer: %w", err)
	}
	writer.SetMetrics(m)

	if cfg.pinLED >= 0 {
		led, err := gpio.NewRealLED(cfg.pinLED)
		if err != nil {
			log.Printf("activity led disabled: %v", err)
		} else {
			defer led.Close()
			writer.SetLED(led)
		}
	}

	var observers []logger.SessionObserver
	if cfg.catalogPath != "" {
		cat, err := catalog.Open(cfg.catalogPath)
		if err != nil {
			return fmt.Errorf("init catalog: %w", err)
		}
		defer cat.Close()
		observers = append(observers, cat)
	}

	// MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		observers = append(observers, mqtt.NewSessionNotifier(p))
	}

	// Catalog and broker I/O run off the supervisory loop. The queue is
	// closed before the catalog and the publisher.
	var events *logger.ObserverQueue
	if len(observers) > 0 {
		events = logger.NewObserverQueue(logger.DefaultObserverQueue, observers...)
		defer events.Close()
		writer.AddObserver(events)
	}

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	if err := writer.Mount(ctx); err != nil {
		log.Printf("mount abandoned: %v", err)
		return nil
	}

	// Buttons
	millis := logger.Millis(time.Now())
	buttons := gpio.NewRealButtons(cfg.pinToggle, cfg.pinStop)
	if err := buttons.Watch(func(b gpio.Button) {
		log.Printf("button %s", b)
		control.Edge(millis())
	}); err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	d := &daemon{
		writer:     writer,
		control:    control,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		events:     events,
		tracker:    tracker,
		now:        time.Now,
	}
	d.publishSystem("STARTUP", "")

	log.Printf("started: period=%v debounce=%v buffer=%d block=%d broker=%s heartbeat=%v",
		cfg.period, cfg.debounce, cfg.bufferSize, cfg.blockSize, cfg.broker, cfg.heartbeat)

	pollTicker := time.NewTicker(cfg.poll)
	defer pollTicker.Stop()
	refreshTicker := time.NewTicker(cfg.refresh)
	defer refreshTicker.Stop()
	var heartbeat <-chan time.Time
	if cfg.heartbeat > 0 {
		hb := time.NewTicker(cfg.heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return d.runLoop(ctx, pollTicker.C, refreshTicker.C, heartbeat, sigCh)
}

// daemon is the supervisory loop state.
type daemon struct {
	writer     *logger.Writer
	control    *logger.Control
	publisher  mqtt.Publisher // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus
	events     *logger.ObserverQueue // nil when there are no session observers
	tracker    *status.Tracker
	now        func() time.Time
}

func (d *daemon) runLoop(ctx context.Context, poll, refresh, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			d.shutdown(signalName(s))
			return nil

		case <-poll:
			if err := d.writer.Step(ctx); err != nil {
				log.Printf("writer: %v", err)
			}

		case <-refresh:
			d.writer.Refresh()
			d.updateMQTT()

		case <-heartbeat:
			d.writer.Refresh()
			d.publishSystem("HEARTBEAT", "")
		}
	}
}

// shutdown stops a running session, closes its file and releases the volume
// before announcing the shutdown.
func (d *daemon) shutdown(reason string) {
	d.control.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.writer.Step(ctx); err != nil {
		log.Printf("close data file: %v", err)
	}
	d.writer.Refresh()
	if err := d.writer.Unmount(); err != nil {
		log.Printf("unmount: %v", err)
	}
	if d.events != nil {
		d.events.Close()
	}

	d.publishSystem("SHUTDOWN", reason)
}

func (d *daemon) publishSystem(event, reason string) {
	if d.publisher == nil {
		return
	}
	d.updateMQTT()
	snap := d.tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  d.now(),
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := d.publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	} else {
		log.Printf("published %s event", event)
	}
}

func (d *daemon) updateMQTT() {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
