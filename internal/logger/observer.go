package logger

import (
	"log"
	"sync"
	"time"
)

// DefaultObserverQueue is the number of session events an ObserverQueue
// holds before dropping.
const DefaultObserverQueue = 32

// SessionInfo describes one logging session, from file open to file close.
type SessionInfo struct {
	ID            int
	FileName      string
	Started       time.Time
	Ended         time.Time // zero while open
	Bytes         uint64
	Blocks        uint64
	WriteFailures uint64
	Overflow      bool // samples were dropped during the session
}

// Duration returns the session length, or zero while it is open.
func (s SessionInfo) Duration() time.Duration {
	if s.Ended.IsZero() {
		return 0
	}
	return s.Ended.Sub(s.Started)
}

// SessionObserver is notified on the supervisory loop when a session's file
// is opened and after it has been closed. Implementations must not block;
// observers that do I/O are registered through an ObserverQueue.
type SessionObserver interface {
	SessionOpened(info SessionInfo)
	SessionClosed(info SessionInfo)
}

type sessionEvent struct {
	opened bool
	info   SessionInfo
}

// ObserverQueue is a SessionObserver that hands events to its observers on
// a separate goroutine. When the queue is full new events are dropped.
type ObserverQueue struct {
	observers []SessionObserver
	events    chan sessionEvent
	done      chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewObserverQueue starts a queue of the given depth delivering to observers
// in order.
func NewObserverQueue(depth int, observers ...SessionObserver) *ObserverQueue {
	q := &ObserverQueue{
		observers: observers,
		events:    make(chan sessionEvent, depth),
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

// SessionOpened queues an open event.
func (q *ObserverQueue) SessionOpened(info SessionInfo) {
	q.enqueue(sessionEvent{opened: true, info: info})
}

// SessionClosed queues a close event.
func (q *ObserverQueue) SessionClosed(info SessionInfo) {
	q.enqueue(sessionEvent{info: info})
}

func (q *ObserverQueue) enqueue(ev sessionEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		log.Printf("logger: observer queue closed, dropping session %d event", ev.info.ID)
		return
	}
	select {
	case q.events <- ev:
	default:
		log.Printf("logger: observer queue full, dropping session %d event", ev.info.ID)
	}
}

// Close stops accepting events and waits until the queued ones have been
// delivered. It is safe to call more than once.
func (q *ObserverQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *ObserverQueue) run() {
	defer close(q.done)
	for ev := range q.events {
		for _, o := range q.observers {
			if ev.opened {
				o.SessionOpened(ev.info)
			} else {
				o.SessionClosed(ev.info)
			}
		}
	}
}
