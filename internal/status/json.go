package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Logging       string      `json:"logging"`
	FileOpen      bool        `json:"file_open"`
	Message       string      `json:"message,omitempty"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Buffer        BufferJSON  `json:"buffer"`
	File          FileJSON    `json:"file"`
	Storage       StorageJSON `json:"storage"`
	Counts        CountsJSON  `json:"counts"`
	Config        ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// BufferJSON reports ring buffer state.
type BufferJSON struct {
	UsedBytes int  `json:"used_bytes"`
	Capacity  int  `json:"capacity"`
	Percent   int  `json:"percent"`
	Overflow  bool `json:"overflow"`
}

// FileJSON reports the data file.
type FileJSON struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// StorageJSON reports volume capacity.
type StorageJSON struct {
	TotalBytes  uint64 `json:"total_bytes"`
	FreeBytes   uint64 `json:"free_bytes"`
	UsedPercent int    `json:"used_percent"`
}

// CountsJSON is the JSON representation of session counters.
type CountsJSON struct {
	Sessions      int    `json:"sessions"`
	BlocksWritten uint64 `json:"blocks_written"`
	WriteFailures uint64 `json:"write_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PeriodUs    int64  `json:"period_us"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	BufferSize  int    `json:"buffer_size"`
	BlockSize   int    `json:"block_size"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	rd := snap.Reading
	logging := "OFF"
	if rd.Running {
		logging = "ON"
	}

	return StatusInner{
		Logging:       logging,
		FileOpen:      rd.FileOpen,
		Message:       snap.Message,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Buffer: BufferJSON{
			UsedBytes: rd.Buffered,
			Capacity:  rd.BufferSize,
			Percent:   rd.BufferPercent(),
			Overflow:  rd.Overflow,
		},
		File: FileJSON{
			Name:      rd.FileName,
			SizeBytes: rd.FileSize,
		},
		Storage: StorageJSON{
			TotalBytes:  rd.StorageTotal,
			FreeBytes:   rd.StorageFree,
			UsedPercent: rd.StorageUsedPercent(),
		},
		Counts: CountsJSON{
			Sessions:      rd.Sessions,
			BlocksWritten: rd.BlocksWritten,
			WriteFailures: rd.WriteFailures,
		},
		Config: ConfigJSON{
			PeriodUs:    snap.Config.PeriodUs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			BufferSize:  snap.Config.BufferSize,
			BlockSize:   snap.Config.BlockSize,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
