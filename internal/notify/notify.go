// Package notify posts temperature notifications with abstraction for testing.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/temperature-notifier/internal/logic"
)

// Notifier kinds accepted by New.
const (
	KindMQTT    = "mqtt"
	KindKafka   = "kafka"
	KindConsole = "console"
	KindNone    = "none"
)

// Kinds lists every accepted notifier kind.
var Kinds = []string{KindMQTT, KindKafka, KindConsole, KindNone}

// Defaults for the broker destinations.
const (
	DefaultBroker     = "tcp://localhost:1883"
	DefaultTopic      = "home/temperature/notifications"
	DefaultClientID   = "temperature-notifier"
	DefaultKafkaTopic = "temperature.notifications"
)

// Session is an authenticated handle returned by Authenticate. Its concrete
// type belongs to the Notifier that produced it.
type Session any

// Receipt identifies a posted notification.
type Receipt struct {
	ID          string
	Destination string
	Timestamp   time.Time
}

// Notifier posts notification text.
type Notifier interface {
	// Authenticate opens (or reuses) a session with the backend.
	Authenticate(ctx context.Context) (Session, error)
	// Post sends text using a session from Authenticate.
	// Returns error if posting fails (should not crash the process).
	Post(ctx context.Context, s Session, text string) (Receipt, error)
	// Close releases the backend connection.
	Close() error
}

// ErrWrongSession is returned when Post receives a session from another notifier.
var ErrWrongSession = errors.New("session was not created by this notifier")

// Payload is the JSON message body used by the broker notifiers.
type Payload struct {
	Notification NotificationPayload `json:"notification"`
}

// NotificationPayload contains the notification details.
type NotificationPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// FormatPayload creates the JSON payload for a notification.
func FormatPayload(id string, ts time.Time, text string) ([]byte, error) {
	return json.Marshal(Payload{
		Notification: NotificationPayload{
			ID:        id,
			Timestamp: ts.UTC().Format(time.RFC3339),
			Text:      text,
		},
	})
}

func newID() string {
	return uuid.New().String()
}

// Options selects and configures a notifier.
type Options struct {
	Kind         string
	Broker       string
	Topic        string
	ClientID     string
	KafkaBrokers []string
	KafkaTopic   string
	// Out receives console notifications.
	Out io.Writer
}

// New builds the notifier for opts.Kind. KindNone returns a nil Notifier.
func New(opts Options, creds Credentials) (Notifier, error) {
	switch opts.Kind {
	case KindMQTT:
		return NewMQTTNotifier(opts.Broker, opts.Topic, opts.ClientID, creds), nil
	case KindKafka:
		return NewKafkaNotifier(opts.KafkaBrokers, opts.KafkaTopic, creds)
	case KindConsole:
		return NewConsoleNotifier(opts.Out), nil
	case KindNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", opts.Kind)
	}
}

// Result is the outcome of posting one message.
type Result struct {
	Message logic.Message
	Receipt Receipt
	Err     error
}

// Deliver authenticates and posts each message of d in order. Failures are
// logged and reported in the results; they never stop later messages.
func Deliver(ctx context.Context, n Notifier, d logic.Decision) []Result {
	results := make([]Result, 0, len(d.Messages))
	for _, m := range d.Messages {
		r := Result{Message: m}
		sess, err := n.Authenticate(ctx)
		if err != nil {
			r.Err = fmt.Errorf("authenticate: %w", err)
			log.Errorf("could not authenticate: %v", err)
			results = append(results, r)
			continue
		}
		r.Receipt, err = n.Post(ctx, sess, m.Text)
		if err != nil {
			r.Err = fmt.Errorf("post: %w", err)
			log.Errorf("could not post %s notification: %v", m.Kind, err)
		} else {
			log.WithField("id", r.Receipt.ID).Infof("posted %s notification: %s", m.Kind, m.Text)
		}
		results = append(results, r)
	}
	return results
}
