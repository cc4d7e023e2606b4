package sensor

import (
	"context"
	"errors"
)

// FakeReader is a test double that returns scripted raw words.
type FakeReader struct {
	// Raw contains the words to return. Each call consumes the next one;
	// once exhausted the last word repeats.
	Raw []uint16
	// ReadError, if set, is returned by ReadRaw.
	ReadError error
	// Reads counts calls to ReadRaw.
	Reads int
	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader returning raw in order.
func NewFakeReader(raw ...uint16) *FakeReader {
	return &FakeReader{Raw: raw}
}

// ReadRaw returns the next scripted word.
func (f *FakeReader) ReadRaw(ctx context.Context) (uint16, error) {
	f.Reads++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Raw) == 0 {
		return 0, errors.New("no raw values configured")
	}
	v := f.Raw[f.index]
	if f.index < len(f.Raw)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// RawFromCelsius encodes a temperature as the SMBus word DecodeRaw expects.
// Values are truncated to 1/16 °C.
func RawFromCelsius(c float64) uint16 {
	count := uint16(int16(c*16)) & 0x0FFF
	msb := byte(count >> 4)
	lsb := byte(count<<4) & 0xF0
	return uint16(msb) | uint16(lsb)<<8
}
