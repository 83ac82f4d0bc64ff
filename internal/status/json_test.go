package status

import (
	"encoding/json"
	"testing"
	"time"
)

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Reading: Reading{
			Running:       true,
			FileOpen:      true,
			Buffered:      512,
			BufferSize:    1024,
			FileName:      "data.log",
			FileSize:      4096,
			StorageTotal:  2000,
			StorageFree:   500,
			Sessions:      3,
			BlocksWritten: 8,
		},
		Message:       "",
		StartTime:     start,
		Now:           start.Add(65 * time.Second),
		MQTTConnected: true,
		Config:        Config{PeriodUs: 1250, DebounceMs: 250, BufferSize: 1024, BlockSize: 512, Broker: "tcp://b:1883"},
	}
}

func TestFormatJSON(t *testing.T) {
	var out StatusJSON
	if err := json.Unmarshal(FormatJSON(testSnapshot()), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := out.Status

	if s.Event != "" || s.Reason != "" {
		t.Errorf("web JSON should have no event/reason, got %q/%q", s.Event, s.Reason)
	}
	if s.Logging != "ON" {
		t.Errorf("logging: got %q, want ON", s.Logging)
	}
	if s.UptimeSeconds != 65 {
		t.Errorf("uptime_seconds: got %d, want 65", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("start_time: got %q", s.StartTime)
	}
	if s.Buffer.Percent != 50 {
		t.Errorf("buffer.percent: got %d, want 50", s.Buffer.Percent)
	}
	if s.Storage.UsedPercent != 75 {
		t.Errorf("storage.used_percent: got %d, want 75", s.Storage.UsedPercent)
	}
	if s.File.Name != "data.log" || s.File.SizeBytes != 4096 {
		t.Errorf("file: got %+v", s.File)
	}
	if s.Counts.Sessions != 3 || s.Counts.BlocksWritten != 8 {
		t.Errorf("counts: got %+v", s.Counts)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt: got %+v", s.MQTT)
	}
	if s.Config.BlockSize != 512 {
		t.Errorf("config.block_size: got %d", s.Config.BlockSize)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := testSnapshot()
	snap.Reading.Running = false

	var out StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q", out.Status.Event)
	}
	if out.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q", out.Status.Reason)
	}
	if out.Status.Logging != "OFF" {
		t.Errorf("logging: got %q", out.Status.Logging)
	}
}
