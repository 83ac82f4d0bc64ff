// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ev-logger/internal/logger"
)

// TopicSession is the MQTT topic for logging session events.
const TopicSession = "ev/logger/session"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "ev/logger/system"

// Session event types.
const (
	EventLoggingStarted = "LOGGING_STARTED"
	EventLoggingStopped = "LOGGING_STOPPED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishSession sends a session start/stop event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishSession(event SessionEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SessionEvent is a logging session starting or stopping.
type SessionEvent struct {
	Timestamp time.Time
	Type      string // EventLoggingStarted or EventLoggingStopped
	Info      logger.SessionInfo
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for session events.
type Payload struct {
	Session SessionPayload `json:"session"`
}

// SessionPayload contains the session event details.
type SessionPayload struct {
	Timestamp       string  `json:"timestamp"`
	Event           string  `json:"event"`
	ID              int     `json:"id"`
	File            string  `json:"file"`
	StartedAt       string  `json:"started_at"`
	EndedAt         string  `json:"ended_at,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Bytes           uint64  `json:"bytes"`
	Blocks          uint64  `json:"blocks"`
	WriteFailures   uint64  `json:"write_failures"`
	Overflow        bool    `json:"overflow"`
}

// FormatPayload creates the JSON payload for a session event.
func FormatPayload(event SessionEvent) ([]byte, error) {
	info := event.Info
	p := SessionPayload{
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339),
		Event:         event.Type,
		ID:            info.ID,
		File:          info.FileName,
		StartedAt:     info.Started.UTC().Format(time.RFC3339),
		Bytes:         info.Bytes,
		Blocks:        info.Blocks,
		WriteFailures: info.WriteFailures,
		Overflow:      info.Overflow,
	}
	if !info.Ended.IsZero() {
		p.EndedAt = info.Ended.UTC().Format(time.RFC3339)
		p.DurationSeconds = info.Duration().Seconds()
	}
	return json.Marshal(Payload{Session: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
