//go:build sht3x_clockstretch

package sht3x

// ClockStretching reports whether the measurement commands ask the sensor to
// hold SCL low until the conversion completes.
const ClockStretching = true

const (
	cmdMeasureHPM = 0x2C06
	cmdMeasureMPM = 0x2C0D
	cmdMeasureLPM = 0x2C10
)
