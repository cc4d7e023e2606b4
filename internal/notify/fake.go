package notify

import (
	"context"
	"fmt"
	"time"
)

// FakeNotifier records posted notifications for test assertions.
type FakeNotifier struct {
	// Posts contains the text of every successful post.
	Posts []string
	// Receipts contains the receipt of every successful post.
	Receipts []Receipt
	// AuthCalls counts Authenticate calls.
	AuthCalls int
	// AuthError, if set, will be returned by Authenticate.
	AuthError error
	// PostError, if set, will be returned by Post.
	PostError error
	// Closed tracks if Close was called.
	Closed bool
	// Now stamps receipts; defaults to a fixed time.
	Now func() time.Time
}

type fakeSession struct{ n *FakeNotifier }

// NewFakeNotifier creates a FakeNotifier for testing.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Authenticate returns a session unless AuthError is set.
func (f *FakeNotifier) Authenticate(ctx context.Context) (Session, error) {
	f.AuthCalls++
	if f.AuthError != nil {
		return nil, f.AuthError
	}
	return fakeSession{f}, nil
}

// Post records the text.
func (f *FakeNotifier) Post(ctx context.Context, s Session, text string) (Receipt, error) {
	if fs, ok := s.(fakeSession); !ok || fs.n != f {
		return Receipt{}, ErrWrongSession
	}
	if f.PostError != nil {
		return Receipt{}, f.PostError
	}
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if f.Now != nil {
		ts = f.Now()
	}
	r := Receipt{ID: fmt.Sprintf("fake-%d", len(f.Posts)+1), Destination: "fake", Timestamp: ts}
	f.Posts = append(f.Posts, text)
	f.Receipts = append(f.Receipts, r)
	return r, nil
}

// Close marks the notifier as closed.
func (f *FakeNotifier) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded posts and injected errors.
func (f *FakeNotifier) Reset() {
	f.Posts = nil
	f.Receipts = nil
	f.AuthCalls = 0
	f.AuthError = nil
	f.PostError = nil
	f.Closed = false
}
