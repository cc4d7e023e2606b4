package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

func TestMQTTNotifierDefaults(t *testing.T) {
	m := NewMQTTNotifier("", "", "", Credentials{})
	if m.broker != DefaultBroker || m.topic != DefaultTopic || m.clientID != DefaultClientID {
		t.Errorf("defaults: got %s %s %s", m.broker, m.topic, m.clientID)
	}
}

func TestMQTTNotifierRejectsForeignSession(t *testing.T) {
	m := NewMQTTNotifier("tcp://127.0.0.1:1883", "t", "c", Credentials{})
	if _, err := m.Post(context.Background(), "not a client", "x"); !errors.Is(err, ErrWrongSession) {
		t.Errorf("expected ErrWrongSession, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close without connection: %v", err)
	}
}

func TestMQTTNotifierAuthenticateUnreachable(t *testing.T) {
	m := NewMQTTNotifier("tcp://127.0.0.1:1", "t", "c", Credentials{Username: "u", Password: "p"})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := m.Authenticate(ctx); err == nil {
		t.Error("expected connection error")
	}
}

// doneToken is a paho.Token that has already completed.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// stubClient records the connection calls made by MQTTNotifier.
type stubClient struct {
	paho.Client
	open         bool
	connected    bool
	disconnected int
}

func (c *stubClient) IsConnectionOpen() bool { return c.open }
func (c *stubClient) IsConnected() bool      { return c.connected }
func (c *stubClient) Connect() paho.Token {
	c.open, c.connected = true, true
	return doneToken{}
}
func (c *stubClient) Disconnect(uint) {
	c.open, c.connected = false, false
	c.disconnected++
}

func TestMQTTNotifierReplacesDeadClient(t *testing.T) {
	m := NewMQTTNotifier("tcp://broker:1883", "t", "c", Credentials{})
	old := &stubClient{}
	m.client = old

	var built []*stubClient
	m.newClient = func(*paho.ClientOptions) paho.Client {
		c := &stubClient{}
		built = append(built, c)
		return c
	}

	s, err := m.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if old.disconnected != 1 {
		t.Errorf("old client disconnected %d times, want 1", old.disconnected)
	}
	if len(built) != 1 || s != paho.Client(built[0]) {
		t.Fatalf("expected one new client to be returned, built %d", len(built))
	}

	// A second call reuses the open connection.
	if s2, err := m.Authenticate(context.Background()); err != nil || s2 != s {
		t.Errorf("reauthenticate: got %v, %v", s2, err)
	}
	if len(built) != 1 {
		t.Errorf("clients built: got %d, want 1", len(built))
	}
}

func TestMQTTNotifierReusesReconnectingClient(t *testing.T) {
	m := NewMQTTNotifier("tcp://broker:1883", "t", "c", Credentials{})
	reconnecting := &stubClient{connected: true}
	m.client = reconnecting
	m.newClient = func(*paho.ClientOptions) paho.Client {
		t.Fatal("a new client must not be built while paho is reconnecting")
		return nil
	}

	s, err := m.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if s != paho.Client(reconnecting) {
		t.Error("expected the reconnecting client to be reused")
	}
	if reconnecting.disconnected != 0 {
		t.Errorf("reconnecting client disconnected %d times", reconnecting.disconnected)
	}
}

func TestKafkaNotifierAuthenticate(t *testing.T) {
	k, err := NewKafkaNotifier([]string{"k1:9092", "k2:9092"}, "", Credentials{Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("NewKafkaNotifier: %v", err)
	}
	if k.topic != DefaultKafkaTopic {
		t.Errorf("topic: got %q", k.topic)
	}

	sess, err := k.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	w, ok := sess.(*kafka.Writer)
	if !ok {
		t.Fatalf("session: got %T", sess)
	}
	if w.Topic != DefaultKafkaTopic {
		t.Errorf("writer topic: got %q", w.Topic)
	}
	tr, ok := w.Transport.(*kafka.Transport)
	if !ok {
		t.Fatalf("transport: got %T", w.Transport)
	}
	if mech, ok := tr.SASL.(plain.Mechanism); !ok || mech.Username != "u" {
		t.Errorf("sasl: got %#v", tr.SASL)
	}

	again, _ := k.Authenticate(context.Background())
	if again != sess {
		t.Error("expected the writer to be reused")
	}
	if err := k.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestKafkaNotifierAnonymous(t *testing.T) {
	k, err := NewKafkaNotifier([]string{"k1:9092"}, "t", Credentials{})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := k.Authenticate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if w := sess.(*kafka.Writer); w.Transport != nil {
		t.Errorf("expected default transport, got %T", w.Transport)
	}
	if _, err := k.Post(context.Background(), "nope", "x"); !errors.Is(err, ErrWrongSession) {
		t.Errorf("expected ErrWrongSession, got %v", err)
	}
	k.Close()
}
