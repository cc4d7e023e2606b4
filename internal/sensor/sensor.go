// Package sensor reads raw temperature words from the TMP75B over I2C.
// The real implementation uses periph.io.
// The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/temperature-notifier/internal/logic"
)

// Reader returns raw temperature register words.
type Reader interface {
	// ReadRaw returns the temperature register in SMBus word order (see
	// logic.DecodeRaw). It may block for the sensor's settle delay.
	ReadRaw(ctx context.Context) (uint16, error)
	// Close releases bus resources.
	Close() error
}

// Sample is one decoded reading.
type Sample struct {
	Raw     uint16
	Celsius float64
	Time    time.Time
}

// Read takes one reading from r and decodes it. now stamps the sample.
func Read(ctx context.Context, r Reader, now func() time.Time) (Sample, error) {
	raw, err := r.ReadRaw(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("read temperature: %w", err)
	}
	return Sample{Raw: raw, Celsius: logic.DecodeRaw(raw), Time: now()}, nil
}
