//go:build !linux

package gpio

import "errors"

// RealAlertReader is not available on non-Linux platforms.
type RealAlertReader struct{}

// NewRealAlertReader returns an error on non-Linux platforms.
func NewRealAlertReader(chipName string, offset int) (*RealAlertReader, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Active is not implemented on non-Linux platforms.
func (r *RealAlertReader) Active() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealAlertReader) Close() error {
	return nil
}
