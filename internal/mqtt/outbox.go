package mqtt

import "log"

// message is a serialized MQTT publish held for later delivery.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues messages published while the broker is unreachable, oldest
// first. When full the oldest message is discarded.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs    []message
	limit   int
	dropped int // since the last take
}

func newOutbox(limit int) *outbox {
	return &outbox{msgs: make([]message, 0, limit), limit: limit}
}

func (o *outbox) add(m message) {
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
		}
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		o.dropped++
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox, returning the queued messages and how many were
// discarded to make room for them.
func (o *outbox) take() ([]message, int) {
	if len(o.msgs) == 0 {
		d := o.dropped
		o.dropped = 0
		return nil, d
	}
	msgs := make([]message, len(o.msgs))
	copy(msgs, o.msgs)
	d := o.dropped
	o.msgs = o.msgs[:0]
	o.dropped = 0
	return msgs, d
}

func (o *outbox) len() int {
	return len(o.msgs)
}
