package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet16 will check if the bit at the specified index is set to 1 or not.
func IsSet16(index, value uint16) bool {
	return ((value >> index) & 1) == 1
}

// Set16 will return the passed word with the bit at the specified index set to 1.
func Set16(index, value uint16) uint16 {
	return value | (1 << index)
}

// BigEndian reads a big-endian word from the first two bytes of b.
func BigEndian(b []byte) uint16 {
	return Combine(b[0], b[1])
}

// PutBigEndian writes value into the first two bytes of b, most significant first.
func PutBigEndian(b []byte, value uint16) {
	b[0] = High(value)
	b[1] = Low(value)
}
