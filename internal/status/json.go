package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State         string            `json:"state"`
	Temperature   *float64          `json:"temperature_c,omitempty"`
	LastSample    string            `json:"last_sample,omitempty"`
	Changed       bool              `json:"changed"`
	Midday        bool              `json:"midday"`
	Ready         bool              `json:"ready"`
	Alert         *bool             `json:"alert,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	Transitions   CountsJSON        `json:"transitions"`
	Notifications NotificationsJSON `json:"notifications"`
	Config        ConfigJSON        `json:"config"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	Low     int `json:"low"`
	Nominal int `json:"nominal"`
	High    int `json:"high"`
}

type NotificationsJSON struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SP1         float64 `json:"sp1"`
	SP2         float64 `json:"sp2"`
	Hysteresis  float64 `json:"hysteresis"`
	Sensor      string  `json:"sensor"`
	Notifier    string  `json:"notifier"`
	Destination string  `json:"destination,omitempty"`
	IntervalMs  int64   `json:"interval_ms"`
	HTTPAddr    string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         "UNKNOWN",
		Ready:         snap.Ready,
		Alert:         snap.Alert,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Transitions: CountsJSON{
			Low:     snap.Transitions.ToLow,
			Nominal: snap.Transitions.ToNominal,
			High:    snap.Transitions.ToHigh,
		},
		Notifications: NotificationsJSON{Sent: snap.Sent, Failed: snap.Failed},
		Config: ConfigJSON{
			SP1:         snap.Config.Setpoints.Low,
			SP2:         snap.Config.Setpoints.High,
			Hysteresis:  snap.Config.Setpoints.Margin,
			Sensor:      snap.Config.Sensor,
			Notifier:    snap.Config.Notifier,
			Destination: snap.Config.Destination,
			IntervalMs:  snap.Config.Interval.Milliseconds(),
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.Ready {
		temp := snap.Last.Temperature
		inner.State = snap.Last.Current.String()
		inner.Temperature = &temp
		inner.LastSample = snap.Last.Time.UTC().Format(time.RFC3339)
		inner.Changed = snap.Last.Changed
		inner.Midday = snap.Last.Midday
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
