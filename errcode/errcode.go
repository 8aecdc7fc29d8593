package errcode

import (
	"errors"

	"sht3x-go/drivers/sht3x"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	NotReady       Code = "not_ready"
	Timeout        Code = "timeout"

	// Sensor-facing codes.
	BadData       Code = "bad_data"
	CRCFail       Code = "crc_fail"
	UnknownDevice Code = "unknown_device"
	IOError       Code = "io_error"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches op and a code derived from err. Nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: MapDriverErr(err), Op: op, Msg: err.Error(), Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code. Errors that are not
// recognised sensor errors are treated as bus I/O failures.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, sht3x.ErrCRC):
		return CRCFail
	case errors.Is(err, sht3x.ErrInvalidParams):
		return InvalidParams
	case errors.Is(err, sht3x.ErrUnknownDevice):
		return UnknownDevice
	case errors.Is(err, sht3x.ErrBadData):
		return BadData
	}
	if c := Of(err); c != Error {
		return c
	}
	return IOError
}
