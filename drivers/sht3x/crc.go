package sht3x

// crc8 is the Sensirion word checksum: polynomial 0x31 (x^8+x^5+x^4+1),
// init 0xFF, no reflection, no final XOR.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
