// Command temperature-notifier samples a TMP75B, tracks a hysteresis state and
// posts a notification when the state changes and once around midday.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/temperature-notifier/internal/config"
	"github.com/sweeney/temperature-notifier/internal/gpio"
	"github.com/sweeney/temperature-notifier/internal/logging"
	"github.com/sweeney/temperature-notifier/internal/logic"
	"github.com/sweeney/temperature-notifier/internal/metrics"
	"github.com/sweeney/temperature-notifier/internal/notify"
	"github.com/sweeney/temperature-notifier/internal/sensor"
	"github.com/sweeney/temperature-notifier/internal/state"
	"github.com/sweeney/temperature-notifier/internal/status"
	"github.com/sweeney/temperature-notifier/internal/web"
)

// cycleTimeout bounds one read-decide-notify cycle.
const cycleTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatalf("logging: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// deps are the collaborators of one cycle. alert and notifier may be nil.
type deps struct {
	sensor    sensor.Reader
	alert     gpio.AlertReader
	store     state.Store
	notifier  notify.Notifier
	setpoints logic.Setpoints
	tracker   *status.Tracker
	metrics   *metrics.Metrics
}

func run(cfg config.Config) error {
	reader, tmp, err := openSensor(cfg)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	// Print temperature mode
	if cfg.PrintTemp {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		s, err := sensor.Read(ctx, reader, time.Now)
		if err != nil {
			return err
		}
		fmt.Printf("Temperature: %s (raw 0x%04x)\n", logic.FormatCelsius(s.Celsius), s.Raw)
		return nil
	}

	creds, err := notify.LoadCredentials(cfg.Notifier, os.Getenv)
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	notifier, err := notify.New(cfg.NotifyOptions(os.Stdout), creds)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	interval := time.Duration(cfg.Interval)
	if notifier != nil {
		// A long-running loop can hold notifications across a broker outage.
		if interval > 0 {
			notifier = notify.NewBuffered(notifier, notify.DefaultBufferSize)
		}
		defer notifier.Close()
	}

	d := deps{
		sensor:    reader,
		store:     state.NewFileStore(cfg.StateFile),
		notifier:  notifier,
		setpoints: cfg.Setpoints,
		tracker:   status.NewTracker(time.Now(), statusConfig(cfg)),
		metrics:   metrics.New(),
	}

	if cfg.AlertPin != gpio.DisabledPin {
		alert, err := gpio.NewRealAlertReader(cfg.GPIOChip, cfg.AlertPin)
		if err != nil {
			return fmt.Errorf("init alert line: %w", err)
		}
		defer alert.Close()
		d.alert = alert

		// Comparator mode asserts above T_HIGH and clears below T_LOW, so
		// the line follows the HIGH band.
		if tmp != nil {
			sp := cfg.Setpoints
			if err := tmp.SetAlertLimits(sp.High-sp.Margin, sp.High+sp.Margin); err != nil {
				log.Warnf("could not program alert limits: %v", err)
			}
		}
	}

	if interval == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		_, err := runCycle(ctx, d, time.Now)
		return err
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, d.tracker, d.metrics.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	if middayMayRepeat(interval) {
		log.Warnf("interval %v fits inside the midday window; the midday report may repeat", interval)
	}
	log.Printf("started: interval=%v sp1=%g sp2=%g hysteresis=%g notifier=%s",
		interval, cfg.Setpoints.Low, cfg.Setpoints.High, cfg.Setpoints.Margin, cfg.Notifier)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, time.Now, ticker.C, sigCh)
}

// middayMayRepeat reports whether two ticks interval apart can both land in
// the inclusive midday window.
func middayMayRepeat(interval time.Duration) bool {
	return interval <= 2*logic.MiddayWindow
}

// openSensor returns the configured reader. The TMP75B is also returned so
// its alert limits can be programmed; it is nil for the fake.
func openSensor(cfg config.Config) (sensor.Reader, *sensor.TMP75B, error) {
	if cfg.Sensor == config.SensorFake {
		return sensor.NewFakeReader(cfg.FakeRaw), nil, nil
	}
	t, err := sensor.Open(cfg.I2CBus, uint16(cfg.I2CAddress), sensor.Opts{
		OneShot: cfg.OneShot,
		Settle:  time.Duration(cfg.Settle),
	})
	if err != nil {
		return nil, nil, err
	}
	return t, t, nil
}

func statusConfig(cfg config.Config) status.Config {
	var dest string
	switch cfg.Notifier {
	case notify.KindMQTT:
		dest = cfg.MQTT.Broker + " " + cfg.MQTT.Topic
	case notify.KindKafka:
		dest = cfg.Kafka.Topic
	}
	return status.Config{
		Setpoints:   cfg.Setpoints,
		Sensor:      cfg.Sensor,
		Notifier:    cfg.Notifier,
		Destination: dest,
		Interval:    time.Duration(cfg.Interval),
		HTTPAddr:    cfg.HTTPAddr,
	}
}

// runCycle reads the sensor, moves the state machine, persists the new state
// and posts any due notifications. Only a sensor failure is returned; store
// and notification failures are logged and counted.
func runCycle(ctx context.Context, d deps, now func() time.Time) (logic.Decision, error) {
	sample, err := sensor.Read(ctx, d.sensor, now)
	if err != nil {
		d.metrics.SensorError()
		d.tracker.SetError(err)
		return logic.Decision{}, err
	}

	prev, err := d.store.Load()
	if err != nil {
		log.Warnf("could not load state, assuming %s: %v", prev, err)
		d.metrics.StoreError("load")
	}

	dec := logic.Decide(sample.Celsius, prev, d.setpoints, sample.Time)
	log.WithFields(log.Fields{
		"temperature": sample.Celsius,
		"raw":         fmt.Sprintf("0x%04x", sample.Raw),
		"previous":    dec.Previous.String(),
		"state":       dec.Current.String(),
		"midday":      dec.Midday,
	}).Infof("temperature=%s", logic.FormatCelsius(sample.Celsius))

	var cycleErr error
	if err := d.store.Save(dec.Current); err != nil {
		log.Errorf("could not save state %s: %v", dec.Current, err)
		d.metrics.StoreError("save")
		cycleErr = fmt.Errorf("save state: %w", err)
	}

	if d.notifier == nil {
		if len(dec.Messages) > 0 {
			log.Debugf("notifications disabled, dropping %d message(s)", len(dec.Messages))
		}
	} else {
		var sent, failed int
		for _, r := range notify.Deliver(ctx, d.notifier, dec) {
			d.metrics.ObserveNotification(r.Message.Kind, r.Err)
			if r.Err != nil {
				failed++
			} else {
				sent++
			}
		}
		d.tracker.RecordNotifications(sent, failed)
	}

	if d.alert != nil {
		active, err := d.alert.Active()
		if err != nil {
			log.Warnf("could not read alert line: %v", err)
		} else {
			d.tracker.SetAlert(active)
			if active != (dec.Current == logic.High) {
				log.Debugf("alert line %v disagrees with state %s", active, dec.Current)
			}
		}
	}

	d.metrics.ObserveDecision(dec)
	d.tracker.Record(dec)
	d.tracker.SetError(cycleErr)
	return dec, nil
}

// runLoop runs a cycle immediately and then on every tick until a signal
// arrives. Cycle errors are logged and the loop carries on.
func runLoop(d deps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	cycle := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		if _, err := runCycle(ctx, d, now); err != nil {
			log.Errorf("cycle failed: %v", err)
		}
	}

	cycle()
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			return nil
		case <-tick:
			cycle()
		}
	}
}
