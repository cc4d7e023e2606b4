package logic

// DefaultBits is the conversion width of the TMP75B temperature register.
const DefaultBits = 12

// DecodeRaw converts a raw 12-bit register word into °C. See DecodeRawBits.
func DecodeRaw(raw uint16) float64 {
	return DecodeRawBits(raw, DefaultBits)
}

// DecodeRawBits converts a raw temperature word into °C with 1/16 resolution.
//
// The word is in SMBus order: the low byte holds the register's integer byte
// (two's complement) and the high nibble of the high byte holds the fraction.
// The low nibble of the high byte is reserved and ignored.
//
//	1111xxxx 01111111 = 127.9375
//	0000xxxx 00000000 = 0
//	0000xxxx 10000000 = -128
func DecodeRawBits(raw uint16, bits uint) float64 {
	whole := int32(raw&0x00FF) << 8
	frac := int32(raw&0xF000) >> 8
	v := (whole + frac) >> 4

	if bits > 0 && bits < 32 && v&(1<<(bits-1)) != 0 {
		v -= 1 << bits
	}
	return float64(v) / 16
}
