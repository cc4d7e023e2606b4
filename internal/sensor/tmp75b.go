package sensor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the TMP75B address with A2..A0 tied low.
	DefaultAddress uint16 = 0x48
	// DefaultSettle covers a 12-bit one-shot conversion.
	DefaultSettle = 50 * time.Millisecond

	regTemperature byte = 0x00
	regConfig      byte = 0x01
	regTLow        byte = 0x02
	regTHigh       byte = 0x03

	cfgShutdown byte = 1 << 0
	cfgOneShot  byte = 1 << 7

	minCelsius = -128.0
	maxCelsius = 127.9375
)

// Opts configures a TMP75B.
type Opts struct {
	// OneShot keeps the device in shutdown and triggers a single conversion
	// per read, waiting Settle for it to finish.
	OneShot bool
	// Settle is the one-shot conversion wait. Zero means DefaultSettle.
	Settle time.Duration
}

// TMP75B is a TI TMP75B digital temperature sensor.
type TMP75B struct {
	mu    sync.Mutex
	dev   *i2c.Dev
	bus   i2c.BusCloser
	opts  Opts
	after func(time.Duration) <-chan time.Time
}

// Open initializes the host drivers, opens the named I2C bus (e.g. "1" for
// /dev/i2c-1) and returns a TMP75B on it. Close releases the bus.
func Open(busName string, addr uint16, opts Opts) (*TMP75B, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", busName, err)
	}
	t, err := NewTMP75B(bus, addr, opts)
	if err != nil {
		bus.Close()
		return nil, err
	}
	t.bus = bus
	return t, nil
}

// NewTMP75B returns a sensor on an already open bus. In one-shot mode the
// device is put into shutdown so it only converts on request.
func NewTMP75B(bus i2c.Bus, addr uint16, opts Opts) (*TMP75B, error) {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	t := &TMP75B{
		dev:   &i2c.Dev{Bus: bus, Addr: addr},
		opts:  opts,
		after: time.After,
	}
	if opts.OneShot {
		if err := t.writeConfig(cfgShutdown); err != nil {
			return nil, fmt.Errorf("set shutdown mode: %w", err)
		}
	}
	return t, nil
}

func (t *TMP75B) writeConfig(msb byte) error {
	return t.dev.Tx([]byte{regConfig, msb, 0x00}, nil)
}

// ReadRaw triggers a conversion if in one-shot mode, then reads the
// temperature register. The two register bytes are returned in SMBus word
// order: first byte low, second byte high.
func (t *TMP75B) ReadRaw(ctx context.Context) (uint16, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opts.OneShot {
		if err := t.writeConfig(cfgShutdown | cfgOneShot); err != nil {
			return 0, fmt.Errorf("trigger conversion: %w", err)
		}
		select {
		case <-t.after(t.opts.Settle):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	r := make([]byte, 2)
	if err := t.dev.Tx([]byte{regTemperature}, r); err != nil {
		return 0, fmt.Errorf("read temperature register: %w", err)
	}
	return uint16(r[0]) | uint16(r[1])<<8, nil
}

// SetAlertLimits programs T_LOW and T_HIGH so the ALERT pin tracks the
// thresholds in comparator mode.
func (t *TMP75B) SetAlertLimits(low, high float64) error {
	lo, err := limitBytes(low)
	if err != nil {
		return fmt.Errorf("t_low: %w", err)
	}
	hi, err := limitBytes(high)
	if err != nil {
		return fmt.Errorf("t_high: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.dev.Tx([]byte{regTLow, lo[0], lo[1]}, nil); err != nil {
		return fmt.Errorf("write t_low: %w", err)
	}
	if err := t.dev.Tx([]byte{regTHigh, hi[0], hi[1]}, nil); err != nil {
		return fmt.Errorf("write t_high: %w", err)
	}
	return nil
}

// limitBytes encodes °C as a left-justified 12-bit two's complement value,
// MSB first, rounded to the nearest 1/16.
func limitBytes(c float64) ([2]byte, error) {
	if math.IsNaN(c) || c < minCelsius || c > maxCelsius {
		return [2]byte{}, fmt.Errorf("%g°C outside %g..%g", c, minCelsius, maxCelsius)
	}
	count := int16(math.Round(c*16)) << 4
	return [2]byte{byte(uint16(count) >> 8), byte(uint16(count))}, nil
}

// Close closes the bus if it was opened by Open.
func (t *TMP75B) Close() error {
	if t.bus != nil {
		return t.bus.Close()
	}
	return nil
}
