//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealAlertReader reads the ALERT line from actual hardware.
type RealAlertReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealAlertReader requests offset on chip as an active-low input with
// pull-up, matching the TMP75B's open-drain ALERT output.
func NewRealAlertReader(chipName string, offset int) (*RealAlertReader, error) {
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request alert pin %d: %w", offset, err)
	}

	return &RealAlertReader{chip: chip, line: line}, nil
}

// Active returns the logical ALERT state.
func (r *RealAlertReader) Active() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read alert pin: %w", err)
	}
	return v == 1, nil
}

// Close releases the line and chip.
func (r *RealAlertReader) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close alert pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
