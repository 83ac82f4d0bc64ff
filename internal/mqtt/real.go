package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// outboxLimit is the number of messages kept while disconnected.
const outboxLimit = 100

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	out *outbox
}

// NewRealPublisher creates a publisher for the given broker. The broker holds
// a retained OFFLINE will for the logger.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{out: newOutbox(outboxLimit)}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("ev-logger").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// The client keeps retrying; publishes queue until it connects.
		log.Printf("mqtt: broker %s not reachable yet, retrying in background", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(client paho.Client) *RealPublisher {
	return &RealPublisher{client: client, out: newOutbox(outboxLimit)}
}

// PublishSession sends a session event to the MQTT broker.
func (p *RealPublisher) PublishSession(event SessionEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1: session boundaries should not be lost.
	if err := p.publish(message{topic: TopicSession, payload: payload, qos: 1}); err != nil {
		return fmt.Errorf("publish session: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	m := message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}
	if err := p.publish(m); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// publish sends m, or queues it while no connection is open. paho marks the
// connection open before calling onConnect, and onConnect drains the outbox
// under mu, so checking and queueing under mu never strands a message.
func (p *RealPublisher) publish(m message) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.out.add(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("timeout")
	}
	return token.Error()
}

// onConnect replays messages queued while disconnected.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.out.take()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d queued messages (%d dropped)", len(msgs), dropped)
	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			log.Printf("mqtt: replay to %s failed: %v", m.topic, token.Error())
		}
	}
}

// IsConnected reports whether the client currently has a broker connection.
// paho's own IsConnected also reports true while it is still retrying.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
