package notify

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/WataNekko/home-server-utils/internal/control"
	"github.com/WataNekko/home-server-utils/internal/logger"
)

// queueCapacity bounds the replay queue. At the default 15s sampling
// interval this holds hours of events across a broker outage.
const queueCapacity = 256

// publishTimeout bounds how long a publish may block the control loop.
const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable, messages are held in a bounded replay queue and flushed on
// reconnect, so a flaky network never stalls the control loop.
type RealPublisher struct {
	client paho.Client
	log    *logger.Logger

	mu    sync.Mutex
	queue *replayQueue
}

// NewRealPublisher creates a publisher for the given broker. The initial
// connection happens in the background and is retried until it succeeds;
// the fan must be controlled with or without a broker.
func NewRealPublisher(broker string, log *logger.Logger) *RealPublisher {
	p := &RealPublisher{
		log:   log,
		queue: newReplayQueue(queueCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("fancontrold").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("broker connection lost", "err", err)
		})

	p.client = paho.NewClient(opts)
	// ConnectRetry keeps trying in the background; until then messages
	// land in the replay queue.
	p.client.Connect()

	return p
}

// onConnect flushes the replay queue. Paho invokes it on its own goroutine
// on every (re)connect.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	queued := p.queue.drain()
	p.mu.Unlock()

	p.log.Infow("broker connected", "replaying", len(queued))
	for _, msg := range queued {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(publishTimeout) {
			p.log.Errorw("replay timeout", "topic", msg.topic)
			continue
		}
		if err := token.Error(); err != nil {
			p.log.Errorw("replay failed", "topic", msg.topic, "err", err)
		}
	}
}

// Publish sends a control event to the MQTT broker.
func (p *RealPublisher) Publish(event control.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1 (at-least-once) for overheat alerts, QoS 0 for routine events.
	var qos byte
	if event.Type == control.EventOverheat {
		qos = 1
	}
	return p.publish(topicFor(event.Type), qos, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events.
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// publish delivers one message, queueing it instead when the broker is away.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		dropped := p.queue.push(queuedMsg{topic: topic, qos: qos, retained: retained, payload: payload})
		queued := p.queue.len()
		p.mu.Unlock()

		if dropped {
			p.log.Warnw("replay queue full, dropped oldest message", "queued", queued)
		} else {
			p.log.Debugw("broker offline, queued message", "topic", topic, "queued", queued)
		}
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	queued := p.queue.len()
	p.mu.Unlock()
	if queued > 0 {
		p.log.Warnw("closing with undelivered messages", "queued", queued)
	}

	p.client.Disconnect(1000) // milliseconds to finish in-flight work
	return nil
}
