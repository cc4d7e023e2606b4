package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultBufferSize is the number of notifications held while the backend is down.
const DefaultBufferSize = 32

// ErrQueued is returned by Buffered.Post when text could not be delivered
// now and is held for the next successful session.
var ErrQueued = errors.New("notification queued for retry")

// pendingPost is a notification waiting for the backend to come back.
type pendingPost struct {
	text     string
	queuedAt time.Time
}

// ringBuffer is a fixed-capacity FIFO of pending posts.
// Not safe for concurrent use; Buffered holds its mutex around every call.
type ringBuffer struct {
	buf      []pendingPost
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if anything was dropped since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]pendingPost, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(p pendingPost) {
	if r.count == r.capacity {
		if !r.overflow {
			log.Warnf("notify: buffer full (%d notifications), dropping oldest", r.capacity)
			r.overflow = true
		}
		// head already points at the oldest entry
		r.buf[r.head] = p
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = p
	r.head = (r.head + 1) % r.capacity
	r.count++
}

func (r *ringBuffer) drainAll() []pendingPost {
	if r.count == 0 {
		return nil
	}

	out := make([]pendingPost, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}

// Buffered wraps a Notifier so that notifications raised while the backend
// is unreachable are kept and posted, oldest first, ahead of the next
// notification that finds the backend up. It is meant for loop mode, where
// the process outlives an outage.
type Buffered struct {
	inner Notifier
	now   func() time.Time

	mu      sync.Mutex
	pending *ringBuffer
}

// bufferedSession carries the inner session, or the reason there is none.
type bufferedSession struct {
	inner   Session
	authErr error
}

// NewBuffered wraps inner with a buffer of capacity notifications.
// A capacity below one uses DefaultBufferSize.
func NewBuffered(inner Notifier, capacity int) *Buffered {
	if capacity < 1 {
		capacity = DefaultBufferSize
	}
	return &Buffered{inner: inner, now: time.Now, pending: newRingBuffer(capacity)}
}

// Authenticate opens an inner session. When that fails the error is kept in
// the returned session so Post can queue instead of dropping the text.
func (b *Buffered) Authenticate(ctx context.Context) (Session, error) {
	s, err := b.inner.Authenticate(ctx)
	if err != nil {
		log.Warnf("notify: backend unavailable, buffering: %v", err)
		return bufferedSession{authErr: err}, nil
	}
	return bufferedSession{inner: s}, nil
}

// Post flushes any pending notifications and then posts text. If the
// backend is down, or a post fails, text and everything not yet delivered
// stay queued and the returned error wraps ErrQueued.
func (b *Buffered) Post(ctx context.Context, s Session, text string) (Receipt, error) {
	bs, ok := s.(bufferedSession)
	if !ok {
		return Receipt{}, ErrWrongSession
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if bs.inner == nil {
		b.pending.push(pendingPost{text: text, queuedAt: b.now()})
		return Receipt{}, fmt.Errorf("%w: %v", ErrQueued, bs.authErr)
	}

	backlog := b.pending.drainAll()
	for i, p := range backlog {
		r, err := b.inner.Post(ctx, bs.inner, p.text)
		if err != nil {
			for _, rest := range backlog[i:] {
				b.pending.push(rest)
			}
			b.pending.push(pendingPost{text: text, queuedAt: b.now()})
			return Receipt{}, fmt.Errorf("%w: flush: %v", ErrQueued, err)
		}
		log.WithField("id", r.ID).Infof("posted buffered notification (queued %v ago): %s",
			b.now().Sub(p.queuedAt).Round(time.Second), p.text)
	}

	r, err := b.inner.Post(ctx, bs.inner, text)
	if err != nil {
		b.pending.push(pendingPost{text: text, queuedAt: b.now()})
		return Receipt{}, fmt.Errorf("%w: %v", ErrQueued, err)
	}
	return r, nil
}

// Pending returns the number of queued notifications.
func (b *Buffered) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.len()
}

// Close closes the inner notifier. Anything still queued is lost.
func (b *Buffered) Close() error {
	b.mu.Lock()
	if n := b.pending.len(); n > 0 {
		log.Warnf("notify: dropping %d undelivered notification(s)", n)
	}
	b.mu.Unlock()
	return b.inner.Close()
}
