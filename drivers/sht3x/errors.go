package sht3x

import "errors"

// Errors returned by the driver. Bus errors from drivers.I2C are returned
// as-is.
var (
	ErrBadData       = errors.New("sht3x: bad data")
	ErrCRC           = errors.New("sht3x: crc mismatch")
	ErrUnknownDevice = errors.New("sht3x: unknown device")
	ErrInvalidParams = errors.New("sht3x: invalid parameters")
)

// Legacy numeric status codes.
const (
	StatusOK            int16 = 0
	StatusBadData       int16 = -1
	StatusCRCFail       int16 = -2
	StatusUnknownDevice int16 = -3
	StatusInvalidParams int16 = -4
)

// StatusCode maps an error returned by this package to a legacy numeric
// status code. Transport errors that carry their own code (via a
// StatusCode() int16 method) keep it; other transport errors report
// StatusBadData.
func StatusCode(err error) int16 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrCRC):
		return StatusCRCFail
	case errors.Is(err, ErrUnknownDevice):
		return StatusUnknownDevice
	case errors.Is(err, ErrInvalidParams):
		return StatusInvalidParams
	case errors.Is(err, ErrBadData):
		return StatusBadData
	}
	var c interface{ StatusCode() int16 }
	if errors.As(err, &c) {
		return c.StatusCode()
	}
	return StatusBadData
}
