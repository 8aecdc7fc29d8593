// Package conv formats integers into caller buffers without fmt or strconv,
// for firmware log lines.
package conv

// Utoa writes n in base 10 at the tail of buf and returns that tail.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf
	}
	if n == 0 {
		i--
		buf[i] = '0'
		return buf[i:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}

// Itoa is Utoa with a leading '-' for negative n. buf should hold 20 bytes.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	s := Utoa(buf, uint64(-n))
	i := len(buf) - len(s)
	if i == 0 {
		return s
	}
	i--
	buf[i] = '-'
	return buf[i:]
}

// Fixed writes v scaled down by 10^places with a decimal point, so
// Fixed(buf, 23456, 3) yields "23.456" and Fixed(buf, -5, 3) yields "-0.005".
func Fixed(buf []byte, v int64, places int) []byte {
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	i := len(buf)
	for p := 0; p < places && i > 0; p++ {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if places > 0 && i > 0 {
		i--
		buf[i] = '.'
	}
	s := Utoa(buf[:i], u)
	i -= len(s)
	if neg && i > 0 {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}

// U32Hex writes n as 8 uppercase hex digits, zero padded, without 0x.
func U32Hex(buf []byte, n uint32) []byte {
	const digits = "0123456789ABCDEF"
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = digits[n&0xF]
		n >>= 4
	}
	return buf[i:]
}
