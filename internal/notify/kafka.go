package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	log "github.com/sirupsen/logrus"
)

// KafkaNotifier writes notifications to a Kafka topic.
type KafkaNotifier struct {
	brokers []string
	topic   string
	creds   Credentials
	now     func() time.Time

	mu     sync.Mutex
	writer *kafka.Writer
}

// NewKafkaNotifier creates a notifier for the given brokers. SASL/PLAIN is used
// when creds are set.
func NewKafkaNotifier(brokers []string, topic string, creds Credentials) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &KafkaNotifier{brokers: brokers, topic: topic, creds: creds, now: time.Now}, nil
}

// Authenticate builds the writer once and returns it as the session.
func (k *KafkaNotifier) Authenticate(ctx context.Context) (Session, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		return k.writer, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(k.brokers...),
		Topic:        k.topic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	if !k.creds.IsZero() {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: k.creds.Username, Password: k.creds.Password},
		}
	}
	log.Printf("kafka: writing to %s on %v", k.topic, k.brokers)
	k.writer = w
	return w, nil
}

// Post writes one message keyed by the receipt id.
func (k *KafkaNotifier) Post(ctx context.Context, s Session, text string) (Receipt, error) {
	w, ok := s.(*kafka.Writer)
	if !ok || w == nil {
		return Receipt{}, ErrWrongSession
	}

	r := Receipt{ID: newID(), Destination: k.topic, Timestamp: k.now()}
	payload, err := FormatPayload(r.ID, r.Timestamp, text)
	if err != nil {
		return Receipt{}, fmt.Errorf("format payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(r.ID), Value: payload, Time: r.Timestamp}); err != nil {
		return Receipt{}, fmt.Errorf("write message: %w", err)
	}
	return r, nil
}

// Close flushes and closes the writer.
func (k *KafkaNotifier) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.writer == nil {
		return nil
	}
	err := k.writer.Close()
	k.writer = nil
	return err
}
