package errcode

import (
	"errors"
	"fmt"
	"testing"

	"sht3x-go/drivers/sht3x"
)

func TestMapDriverErr(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{sht3x.ErrCRC, CRCFail},
		{fmt.Errorf("read: %w", sht3x.ErrCRC), CRCFail},
		{sht3x.ErrInvalidParams, InvalidParams},
		{sht3x.ErrUnknownDevice, UnknownDevice},
		{sht3x.ErrBadData, BadData},
		{Timeout, Timeout},
		{errors.New("i2c: nack"), IOError},
	}
	for _, c := range cases {
		if got := MapDriverErr(c.err); got != c.want {
			t.Errorf("MapDriverErr(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestOfPrefersWrapperCode(t *testing.T) {
	err := &E{C: NotReady, Op: "read", Err: Busy}
	if got := Of(err); got != NotReady {
		t.Fatalf("Of = %q, want %q", got, NotReady)
	}
	if !errors.Is(err, Busy) {
		t.Fatal("wrapper must unwrap to its cause")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("plain error should map to the fallback code")
	}
}

func TestWrap(t *testing.T) {
	if Wrap("probe", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	err := Wrap("probe", sht3x.ErrCRC)
	if Of(err) != CRCFail {
		t.Fatalf("code = %q", Of(err))
	}
	if err.Error() != "probe: crc_fail: sht3x: crc mismatch" {
		t.Fatalf("message = %q", err.Error())
	}
	if !errors.Is(err, sht3x.ErrCRC) {
		t.Fatal("cause lost")
	}
}
