//go:build !sht3x_clockstretch

package sht3x

// ClockStretching reports whether the measurement commands ask the sensor to
// hold SCL low until the conversion completes.
const ClockStretching = false

const (
	cmdMeasureHPM = 0x2400
	cmdMeasureMPM = 0x240B
	cmdMeasureLPM = 0x2416
)
