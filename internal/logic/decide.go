package logic

import (
	"strconv"
	"time"
)

// Decide combines a reading with the previous state and returns the new state
// plus the notifications due this cycle. A state change produces a transition
// message; the midday window produces a midday message. Both can fire together,
// transition first.
func Decide(reading float64, prev State, sp Setpoints, now time.Time) Decision {
	cur := NextState(reading, prev, sp)
	d := Decision{
		Time:        now,
		Temperature: reading,
		Previous:    prev,
		Current:     cur,
		Changed:     cur != prev,
		Midday:      IsScheduledNotificationDue(now),
	}

	if d.Changed {
		d.Messages = append(d.Messages, Message{Kind: KindTransition, Text: TransitionText(cur, reading)})
	}
	if d.Midday {
		d.Messages = append(d.Messages, Message{Kind: KindMidday, Text: MiddayText(reading)})
	}
	return d
}

// TransitionText is the notification text for entering state s.
func TransitionText(s State, reading float64) string {
	var prefix string
	switch s {
	case High:
		prefix = "Phew it's getting hot."
	case Low:
		prefix = "Brr it's chilly."
	default:
		prefix = "Temperature nominal."
	}
	return prefix + " " + FormatCelsius(reading)
}

// MiddayText is the notification text for the daily midday report.
func MiddayText(reading float64) string {
	return "Midday temperature=" + FormatCelsius(reading)
}

// FormatCelsius renders a reading with the shortest exact representation.
func FormatCelsius(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "°C"
}
