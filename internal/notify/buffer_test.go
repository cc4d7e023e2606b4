package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRingBufferPushDrain(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(pendingPost{text: fmt.Sprintf("msg%d", i)})
	}
	if rb.len() != 3 {
		t.Fatalf("len: got %d, want 3", rb.len())
	}

	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("drainAll: got %d items, want 3", len(got))
	}
	for i, p := range got {
		if want := fmt.Sprintf("msg%d", i); p.text != want {
			t.Errorf("item %d: got %q, want %q", i, p.text, want)
		}
	}
	if rb.len() != 0 {
		t.Errorf("len after drain: got %d, want 0", rb.len())
	}
	if rb.drainAll() != nil {
		t.Error("drainAll on empty buffer should return nil")
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	rb := newRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.push(pendingPost{text: fmt.Sprintf("msg%d", i)})
	}

	got := rb.drainAll()
	want := []string{"msg2", "msg3", "msg4"}
	if len(got) != len(want) {
		t.Fatalf("drainAll: got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].text != want[i] {
			t.Errorf("item %d: got %q, want %q", i, got[i].text, want[i])
		}
	}
	if rb.overflow {
		t.Error("overflow flag should reset on drain")
	}
}

// post runs one Authenticate/Post pair the way Deliver does.
func post(t *testing.T, b *Buffered, text string) error {
	t.Helper()
	s, err := b.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate should not fail on a buffered notifier: %v", err)
	}
	_, err = b.Post(context.Background(), s, text)
	return err
}

func TestBufferedQueuesWhileAuthFails(t *testing.T) {
	f := NewFakeNotifier()
	f.AuthError = errors.New("broker down")
	b := NewBuffered(f, 4)

	err := post(t, b, "Phew it's getting hot. 24.75°C")
	if !errors.Is(err, ErrQueued) {
		t.Fatalf("Post: got %v, want ErrQueued", err)
	}
	if b.Pending() != 1 {
		t.Errorf("Pending: got %d, want 1", b.Pending())
	}
	if len(f.Posts) != 0 {
		t.Errorf("posts: got %q, want none", f.Posts)
	}
}

func TestBufferedFlushesInOrderOnRecovery(t *testing.T) {
	f := NewFakeNotifier()
	f.AuthError = errors.New("broker down")
	b := NewBuffered(f, 4)

	post(t, b, "Phew it's getting hot. 24.75°C")
	post(t, b, "Midday temperature=25°C")

	f.AuthError = nil
	if err := post(t, b, "Temperature nominal. 23.5°C"); err != nil {
		t.Fatalf("Post after recovery: %v", err)
	}

	want := []string{
		"Phew it's getting hot. 24.75°C",
		"Midday temperature=25°C",
		"Temperature nominal. 23.5°C",
	}
	if len(f.Posts) != len(want) {
		t.Fatalf("posts: got %q, want %q", f.Posts, want)
	}
	for i := range want {
		if f.Posts[i] != want[i] {
			t.Errorf("post %d: got %q, want %q", i, f.Posts[i], want[i])
		}
	}
	if b.Pending() != 0 {
		t.Errorf("Pending: got %d, want 0", b.Pending())
	}
}

func TestBufferedOverflowDropsOldest(t *testing.T) {
	f := NewFakeNotifier()
	f.AuthError = errors.New("broker down")
	b := NewBuffered(f, 2)

	for i := 0; i < 4; i++ {
		post(t, b, fmt.Sprintf("msg%d", i))
	}
	if b.Pending() != 2 {
		t.Fatalf("Pending: got %d, want 2", b.Pending())
	}

	f.AuthError = nil
	if err := post(t, b, "now"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	want := []string{"msg2", "msg3", "now"}
	if fmt.Sprint(f.Posts) != fmt.Sprint(want) {
		t.Errorf("posts: got %q, want %q", f.Posts, want)
	}
}

// flakyNotifier fails every Post after the first ok ones.
type flakyNotifier struct {
	*FakeNotifier
	ok int
}

func (n *flakyNotifier) Post(ctx context.Context, s Session, text string) (Receipt, error) {
	if len(n.Posts) >= n.ok {
		return Receipt{}, errors.New("publish timeout")
	}
	return n.FakeNotifier.Post(ctx, s, text)
}

func TestBufferedRequeuesOnFlushFailure(t *testing.T) {
	f := NewFakeNotifier()
	f.AuthError = errors.New("broker down")
	n := &flakyNotifier{FakeNotifier: f, ok: 1}
	b := NewBuffered(n, 8)

	post(t, b, "a")
	post(t, b, "b")
	post(t, b, "c")

	// The link comes back but drops again after one publish.
	f.AuthError = nil
	if err := post(t, b, "d"); !errors.Is(err, ErrQueued) {
		t.Fatalf("Post: got %v, want ErrQueued", err)
	}
	if len(f.Posts) != 1 || f.Posts[0] != "a" {
		t.Fatalf("posts: got %q, want [a]", f.Posts)
	}
	if b.Pending() != 3 {
		t.Fatalf("Pending: got %d, want 3", b.Pending())
	}

	n.ok = 10
	if err := post(t, b, "e"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if fmt.Sprint(f.Posts) != fmt.Sprint(want) {
		t.Errorf("posts: got %q, want %q", f.Posts, want)
	}
}

func TestBufferedRejectsForeignSession(t *testing.T) {
	b := NewBuffered(NewFakeNotifier(), 0)
	if _, err := b.Post(context.Background(), "x", "text"); !errors.Is(err, ErrWrongSession) {
		t.Errorf("expected ErrWrongSession, got %v", err)
	}
	if b.pending.capacity != DefaultBufferSize {
		t.Errorf("capacity: got %d, want %d", b.pending.capacity, DefaultBufferSize)
	}
}

func TestBufferedCloseClosesInner(t *testing.T) {
	f := NewFakeNotifier()
	f.AuthError = errors.New("down")
	b := NewBuffered(f, 2)
	post(t, b, "lost")
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("inner notifier should be closed")
	}
}
