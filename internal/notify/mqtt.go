package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTTNotifier publishes notifications to an MQTT broker.
type MQTTNotifier struct {
	broker   string
	topic    string
	clientID string
	creds    Credentials
	now      func() time.Time
	// newClient builds the paho client; tests substitute a stub.
	newClient func(*paho.ClientOptions) paho.Client

	mu     sync.Mutex
	client paho.Client
}

// NewMQTTNotifier creates a notifier for broker. Nothing connects until Authenticate.
func NewMQTTNotifier(broker, topic, clientID string, creds Credentials) *MQTTNotifier {
	if broker == "" {
		broker = DefaultBroker
	}
	if topic == "" {
		topic = DefaultTopic
	}
	if clientID == "" {
		clientID = DefaultClientID
	}
	return &MQTTNotifier{broker: broker, topic: topic, clientID: clientID, creds: creds, now: time.Now, newClient: paho.NewClient}
}

// Authenticate connects with the configured credentials. A live connection
// is reused, as is a client paho is already reconnecting; any other previous
// client is disconnected before a new one is built.
func (m *MQTTNotifier) Authenticate(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		if m.client.IsConnectionOpen() {
			return m.client, nil
		}
		// IsConnected is true while auto-reconnect is retrying. Publishes made
		// in that state are queued by paho and sent once the link is back.
		if m.client.IsConnected() {
			return m.client, nil
		}
		m.client.Disconnect(0)
		m.client = nil
	}

	opts := paho.NewClientOptions().
		AddBroker(m.broker).
		SetClientID(m.clientID).
		SetUsername(m.creds.Username).
		SetPassword(m.creds.Password).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := m.newClient(opts)
	token := client.Connect()
	if err := waitToken(ctx, token, connectTimeout); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to broker %s: %w", m.broker, err)
	}
	log.Printf("mqtt: connected to %s as %s", m.broker, m.clientID)
	m.client = client
	return client, nil
}

// Post publishes text to the notification topic with QoS 1, not retained.
func (m *MQTTNotifier) Post(ctx context.Context, s Session, text string) (Receipt, error) {
	client, ok := s.(paho.Client)
	if !ok || client == nil {
		return Receipt{}, ErrWrongSession
	}

	r := Receipt{ID: newID(), Destination: m.topic, Timestamp: m.now()}
	payload, err := FormatPayload(r.ID, r.Timestamp, text)
	if err != nil {
		return Receipt{}, fmt.Errorf("format payload: %w", err)
	}

	// QoS 1 (at-least-once): a notification is sent at most a few times a day.
	token := client.Publish(m.topic, 1, false, payload)
	if err := waitToken(ctx, token, publishTimeout); err != nil {
		return Receipt{}, fmt.Errorf("publish: %w", err)
	}
	return r, nil
}

// Close disconnects from the broker.
func (m *MQTTNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Disconnect(1000) // 1 second timeout
		m.client = nil
	}
	return nil
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timeout after %v", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
