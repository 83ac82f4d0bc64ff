package mqtt

import (
	"log"
	"time"

	"github.com/sweeney/ev-logger/internal/logger"
)

// SessionNotifier publishes logger session boundaries.
type SessionNotifier struct {
	pub Publisher
	now func() time.Time
}

// NewSessionNotifier creates a SessionNotifier publishing through pub.
func NewSessionNotifier(pub Publisher) *SessionNotifier {
	return &SessionNotifier{pub: pub, now: time.Now}
}

// SessionOpened publishes LOGGING_STARTED.
func (n *SessionNotifier) SessionOpened(info logger.SessionInfo) {
	n.publish(EventLoggingStarted, info)
}

// SessionClosed publishes LOGGING_STOPPED.
func (n *SessionNotifier) SessionClosed(info logger.SessionInfo) {
	n.publish(EventLoggingStopped, info)
}

func (n *SessionNotifier) publish(typ string, info logger.SessionInfo) {
	err := n.pub.PublishSession(SessionEvent{Timestamp: n.now(), Type: typ, Info: info})
	if err != nil {
		log.Printf("mqtt: publish %s: %v", typ, err)
	}
}
