package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/temperature-notifier/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	ts := time.Date(2026, 2, 2, 22, 18, 12, 0, time.FixedZone("CET", 3600))
	payload, err := FormatPayload("abc", ts, "Phew it's getting hot. 25°C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Notification.ID != "abc" {
		t.Errorf("unexpected id: %s", parsed.Notification.ID)
	}
	if parsed.Notification.Timestamp != "2026-02-02T21:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Notification.Timestamp)
	}
	if parsed.Notification.Text != "Phew it's getting hot. 25°C" {
		t.Errorf("unexpected text: %s", parsed.Notification.Text)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	ts := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	payload, err := FormatPayload("id-1", ts, "Midday temperature=21°C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"notification":{"id":"id-1","timestamp":"2026-02-02T12:00:00Z","text":"Midday temperature=21°C"}}`
	if string(payload) != want {
		t.Errorf("got  %s\nwant %s", payload, want)
	}
}

func TestNewID(t *testing.T) {
	a, b := newID(), newID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestNewSelectsNotifier(t *testing.T) {
	n, err := New(Options{Kind: KindMQTT}, Credentials{Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("mqtt: %v", err)
	}
	if _, ok := n.(*MQTTNotifier); !ok {
		t.Errorf("mqtt: got %T", n)
	}

	n, err = New(Options{Kind: KindKafka, KafkaBrokers: []string{"localhost:9092"}}, Credentials{})
	if err != nil {
		t.Fatalf("kafka: %v", err)
	}
	if _, ok := n.(*KafkaNotifier); !ok {
		t.Errorf("kafka: got %T", n)
	}

	n, err = New(Options{Kind: KindConsole}, Credentials{})
	if err != nil {
		t.Fatalf("console: %v", err)
	}
	if _, ok := n.(*ConsoleNotifier); !ok {
		t.Errorf("console: got %T", n)
	}

	n, err = New(Options{Kind: KindNone}, Credentials{})
	if err != nil || n != nil {
		t.Errorf("none: got %v, %v", n, err)
	}

	if _, err := New(Options{Kind: "twitter"}, Credentials{}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := New(Options{Kind: KindKafka}, Credentials{}); err == nil {
		t.Error("expected error for kafka without brokers")
	}
}

func decisionWith(msgs ...logic.Message) logic.Decision {
	return logic.Decision{Current: logic.High, Previous: logic.Nominal, Changed: true, Messages: msgs}
}

func TestDeliverPostsEveryMessage(t *testing.T) {
	f := NewFakeNotifier()
	d := decisionWith(
		logic.Message{Kind: logic.KindTransition, Text: "Phew it's getting hot. 25°C"},
		logic.Message{Kind: logic.KindMidday, Text: "Midday temperature=25°C"},
	)

	results := Deliver(context.Background(), f, d)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("result %d: unexpected error: %v", i, r.Err)
		}
		if r.Receipt.ID == "" {
			t.Errorf("result %d: missing receipt", i)
		}
	}
	if len(f.Posts) != 2 || f.Posts[0] != d.Messages[0].Text || f.Posts[1] != d.Messages[1].Text {
		t.Errorf("posts: got %q", f.Posts)
	}
	if f.AuthCalls != 2 {
		t.Errorf("AuthCalls: got %d, want 2", f.AuthCalls)
	}
}

func TestDeliverContinuesAfterFailure(t *testing.T) {
	f := NewFakeNotifier()
	f.AuthError = errors.New("bad credentials")
	d := decisionWith(
		logic.Message{Kind: logic.KindTransition, Text: "a"},
		logic.Message{Kind: logic.KindMidday, Text: "b"},
	)

	results := Deliver(context.Background(), f, d)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("result %d: expected error", i)
		}
	}

	f.Reset()
	f.PostError = errors.New("rate limited")
	results = Deliver(context.Background(), f, d)
	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "rate limited") {
		t.Errorf("expected post error, got %v", results[0].Err)
	}
}

func TestDeliverNothingToSend(t *testing.T) {
	f := NewFakeNotifier()
	if results := Deliver(context.Background(), f, logic.Decision{}); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if f.AuthCalls != 0 {
		t.Errorf("expected no authentication, got %d", f.AuthCalls)
	}
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifier(&buf)
	c.now = func() time.Time { return time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC) }

	sess, err := c.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	r, err := c.Post(context.Background(), sess, "Temperature nominal. 20°C")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if r.Destination != "console" {
		t.Errorf("destination: got %q", r.Destination)
	}
	want := "2025-09-19T14:41:54Z Temperature nominal. 20°C\n"
	if buf.String() != want {
		t.Errorf("console output mismatch:\n got: %q\nwant: %q", buf.String(), want)
	}

	if _, err := c.Post(context.Background(), "other", "x"); !errors.Is(err, ErrWrongSession) {
		t.Errorf("expected ErrWrongSession, got %v", err)
	}
}

func TestFakeNotifierRejectsForeignSession(t *testing.T) {
	a, b := NewFakeNotifier(), NewFakeNotifier()
	sess, _ := a.Authenticate(context.Background())
	if _, err := b.Post(context.Background(), sess, "x"); !errors.Is(err, ErrWrongSession) {
		t.Errorf("expected ErrWrongSession, got %v", err)
	}
}

func TestFakeNotifierClose(t *testing.T) {
	f := NewFakeNotifier()
	if err := f.Close(); err != nil || !f.Closed {
		t.Errorf("Close: closed=%v err=%v", f.Closed, err)
	}
}
