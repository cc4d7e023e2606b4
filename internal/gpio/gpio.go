// Package gpio reads the TMP75B ALERT output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// AlertReader reports the state of the sensor's ALERT line.
type AlertReader interface {
	// Active reports whether the ALERT output is asserted. The pin is
	// open-drain and active-low; implementations return the logical value.
	Active() (bool, error)
	// Close releases GPIO resources.
	Close() error
}

// Defaults for a Raspberry Pi.
const (
	DefaultChip = "gpiochip0"
	// DisabledPin turns the alert line off.
	DisabledPin = -1
)
