// Package status provides a thread-safe status tracker for the temperature-notifier daemon.
// It is read by HTTP handlers while the sampling loop writes to it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/temperature-notifier/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Setpoints   logic.Setpoints
	Sensor      string
	Notifier    string
	Destination string
	Interval    time.Duration
	HTTPAddr    string
}

// Counts holds transitions by the state that was entered.
type Counts struct {
	ToLow     int
	ToNominal int
	ToHigh    int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Ready       bool // at least one cycle completed
	Last        logic.Decision
	Transitions Counts
	Sent        int
	Failed      int
	Alert       *bool // nil when the alert line is not wired
	LastError   string
	StartTime   time.Time
	Now         time.Time
	Config      Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Record stores the outcome of a cycle and counts its transition.
func (t *Tracker) Record(d logic.Decision) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Ready = true
	t.snap.Last = d
	t.snap.Last.Messages = append([]logic.Message(nil), d.Messages...)
	if !d.Changed {
		return
	}
	switch d.Current {
	case logic.Low:
		t.snap.Transitions.ToLow++
	case logic.High:
		t.snap.Transitions.ToHigh++
	default:
		t.snap.Transitions.ToNominal++
	}
}

// RecordNotifications adds delivery outcomes to the running totals.
func (t *Tracker) RecordNotifications(sent, failed int) {
	t.mu.Lock()
	t.snap.Sent += sent
	t.snap.Failed += failed
	t.mu.Unlock()
}

// SetAlert records the ALERT line level.
func (t *Tracker) SetAlert(active bool) {
	t.mu.Lock()
	t.snap.Alert = &active
	t.mu.Unlock()
}

// SetError records the most recent cycle error. A nil error clears it.
func (t *Tracker) SetError(err error) {
	t.mu.Lock()
	if err == nil {
		t.snap.LastError = ""
	} else {
		t.snap.LastError = err.Error()
	}
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Alert != nil {
		a := *s.Alert
		s.Alert = &a
	}
	s.Last.Messages = append([]logic.Message(nil), s.Last.Messages...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
