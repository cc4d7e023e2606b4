// Package logic contains the pure decision logic for the temperature notifier.
// This package has NO external dependencies (no I2C, MQTT, Kafka, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type level uint8

const (
	nominal level = iota
	low
	high
)

// State is the discrete temperature band. The only representable values are
// Low, Nominal and High; the zero value is Nominal.
type State struct {
	l level
}

var (
	Nominal = State{nominal}
	Low     = State{low}
	High    = State{high}
)

// String returns LOW, NOMINAL or HIGH.
func (s State) String() string {
	switch s.l {
	case low:
		return "LOW"
	case high:
		return "HIGH"
	default:
		return "NOMINAL"
	}
}

// Ordinal maps the state onto 0 (low), 1 (nominal), 2 (high) for gauges.
func (s State) Ordinal() int {
	switch s.l {
	case low:
		return 0
	case high:
		return 2
	default:
		return 1
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ErrUnknownState is returned when text does not name one of the three states.
var ErrUnknownState = errors.New("unknown state")

// ParseState parses LOW, NOMINAL or HIGH (case-insensitive, surrounding space ignored).
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return Low, nil
	case "NOMINAL":
		return Nominal, nil
	case "HIGH":
		return High, nil
	}
	return Nominal, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// Setpoints holds the two thresholds and the symmetric dead-band around each.
type Setpoints struct {
	Low    float64 `json:"sp1"`
	High   float64 `json:"sp2"`
	Margin float64 `json:"hysteresis"`
}

// Default setpoints in °C.
const (
	DefaultLowSetpoint  = 18
	DefaultHighSetpoint = 24
	DefaultMargin       = 0.5
)

// DefaultSetpoints returns 18/24 °C with a 0.5 °C margin.
func DefaultSetpoints() Setpoints {
	return Setpoints{Low: DefaultLowSetpoint, High: DefaultHighSetpoint, Margin: DefaultMargin}
}

// Validate reports whether the setpoints are finite, ordered and have a non-negative margin.
func (sp Setpoints) Validate() error {
	for _, v := range []float64{sp.Low, sp.High, sp.Margin} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("setpoints must be finite: %+v", sp)
		}
	}
	if sp.Low >= sp.High {
		return fmt.Errorf("sp1 (%g) must be below sp2 (%g)", sp.Low, sp.High)
	}
	if sp.Margin < 0 {
		return fmt.Errorf("hysteresis margin must be >= 0, got %g", sp.Margin)
	}
	return nil
}

// MessageKind distinguishes why a notification is sent.
type MessageKind string

const (
	KindTransition MessageKind = "TRANSITION"
	KindMidday     MessageKind = "MIDDAY"
)

// Message is a notification the caller should post.
type Message struct {
	Kind MessageKind
	Text string
}

// Decision is the outcome of one sampling cycle.
type Decision struct {
	Time        time.Time
	Temperature float64
	Previous    State
	Current     State
	Changed     bool
	Midday      bool
	Messages    []Message
}
