package sht3x

import "time"

// Word framing on the wire: every 16-bit word is sent MSB first and is
// followed by its CRC-8.
const (
	wordSize  = 2
	crcSize   = 1
	frameSize = wordSize + crcSize

	maxWords = 2
)

func (d *Device) writeCommand(cmd uint16) error {
	d.w[0] = byte(cmd >> 8)
	d.w[1] = byte(cmd)
	return d.bus.Tx(d.addr, d.w[:wordSize], nil)
}

// writeCommandArgs sends cmd followed by CRC-framed argument words.
func (d *Device) writeCommandArgs(cmd uint16, args ...uint16) error {
	if len(args) > maxWords {
		return ErrInvalidParams
	}
	d.w[0] = byte(cmd >> 8)
	d.w[1] = byte(cmd)
	n := wordSize
	for _, a := range args {
		d.w[n] = byte(a >> 8)
		d.w[n+1] = byte(a)
		d.w[n+2] = crc8(d.w[n : n+wordSize])
		n += frameSize
	}
	return d.bus.Tx(d.addr, d.w[:n], nil)
}

// readWords reads len(out) CRC-framed words.
func (d *Device) readWords(out []uint16) error {
	if len(out) == 0 || len(out) > maxWords {
		return ErrInvalidParams
	}
	buf := d.r[:len(out)*frameSize]
	if err := d.bus.Tx(d.addr, nil, buf); err != nil {
		return err
	}
	for i := range out {
		f := buf[i*frameSize : (i+1)*frameSize]
		if crc8(f[:wordSize]) != f[wordSize] {
			return ErrCRC
		}
		out[i] = uint16(f[0])<<8 | uint16(f[1])
	}
	return nil
}

// readWordsAsBytes reads len(out)/2 words and stores their bytes in bus
// order, checksums stripped.
func (d *Device) readWordsAsBytes(out []byte) error {
	var words [maxWords]uint16
	n := len(out) / wordSize
	if n == 0 || n > maxWords || len(out)%wordSize != 0 {
		return ErrInvalidParams
	}
	if err := d.readWords(words[:n]); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		out[2*i] = byte(words[i] >> 8)
		out[2*i+1] = byte(words[i])
	}
	return nil
}

// delayedReadCommand writes cmd, waits delay (if non-zero) and reads the
// response words.
func (d *Device) delayedReadCommand(cmd uint16, delay time.Duration, out []uint16) error {
	if err := d.writeCommand(cmd); err != nil {
		return err
	}
	if delay > 0 {
		d.sleep(delay)
	}
	return d.readWords(out)
}

func (d *Device) readCommand(cmd uint16, out []uint16) error {
	return d.delayedReadCommand(cmd, 0, out)
}

func bytesToUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
