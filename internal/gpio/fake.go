package gpio

import "errors"

// FakeAlertReader is a test double that returns scripted ALERT values.
type FakeAlertReader struct {
	// Samples contains scripted values to return.
	// Each call to Active() consumes the next sample.
	Samples []bool
	// index tracks current position in Samples
	index int
	// Closed tracks if Close was called
	Closed bool
	// ReadError, if set, will be returned by Active()
	ReadError error
}

// NewFakeAlertReader creates a FakeAlertReader with the given samples.
func NewFakeAlertReader(samples ...bool) *FakeAlertReader {
	return &FakeAlertReader{Samples: samples}
}

// Active returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeAlertReader) Active() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}
	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the reader as closed.
func (f *FakeAlertReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeAlertReader) Reset() {
	f.index = 0
	f.Closed = false
}
