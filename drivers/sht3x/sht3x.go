// Package sht3x provides a driver for the Sensirion SHT3x (SHT30/31/35)
// humidity and temperature sensor.
//
// Measurements use the single-shot command set. The driver exposes both a
// two-phase API and a blocking helper:
//
//	d.Measure()              // start a conversion (fast)
//	r, err := d.Read()       // fetch; fails while the conversion is running
//	r, err := d.MeasureBlocking()
//
// Without clock stretching (the default build) the sensor NACKs reads while
// it is busy, so Read returns the bus error until the conversion is done.
// Build with the sht3x_clockstretch tag to use the clock-stretching command
// set instead; the sensor then holds the bus and MeasureBlocking skips its
// sleep.
//
// Conversions are integer-only: temperatures are milli-°C and humidities
// milli-%RH. Alert thresholds use tenths of units.
//
// A Device is not safe for concurrent use. Serialise access per physical
// sensor.
package sht3x

import (
	"time"

	"tinygo.org/x/drivers"
)

// Version is the driver version string.
const Version = "5.2.0"

// 7-bit I2C addresses, selected by the ADDR pin.
const (
	AddressDefault   = 0x44
	AddressAlternate = 0x45
)

// Timings.
const (
	MeasurementDuration = 15 * time.Millisecond
	CommandDuration     = 1 * time.Millisecond
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address is AddressDefault or AddressAlternate, the only two the ADDR
	// pin can select. Zero means AddressDefault. Other values are not
	// checked.
	Address uint16
	// Mode is the initial power mode. The zero value is HighPower.
	Mode PowerMode
	// Sleep replaces time.Sleep for the fixed conversion waits.
	Sleep func(time.Duration)
}

// Device wraps an I2C connection to an SHT3x device.
type Device struct {
	bus   drivers.I2C
	addr  uint16
	sleep func(time.Duration)

	// Active measurement command, set by SetPowerMode.
	cmdMeasure uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [wordSize + maxWords*frameSize]byte
	r [maxWords * frameSize]byte
}

// New creates a Device. The I2C bus must already be configured. It does not
// touch the device.
func New(bus drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Device{
		bus:        bus,
		addr:       addr,
		sleep:      sleep,
		cmdMeasure: cfg.Mode.Command(),
	}
}

// Address returns the configured 7-bit bus address.
func (d *Device) Address() uint16 { return d.addr }

// DriverVersion returns Version.
func (d *Device) DriverVersion() string { return Version }

// Probe reads the status register; a nil error means the sensor answered.
func (d *Device) Probe() error {
	_, err := d.Status()
	return err
}

// Status reads the status register.
func (d *Device) Status() (Status, error) {
	var w [1]uint16
	if err := d.delayedReadCommand(cmdReadStatus, CommandDuration, w[:]); err != nil {
		return 0, err
	}
	return Status(w[0]), nil
}

// ClearStatus clears the alert and reset flags of the status register.
func (d *Device) ClearStatus() error {
	return d.writeCommand(cmdClearStatus)
}

// Measure starts a single-shot measurement with the active power mode. It
// does not wait for the result.
func (d *Device) Measure() error {
	return d.writeCommand(d.cmdMeasure)
}

// Read fetches the result of a previous Measure. If the measurement is still
// in progress the bus error is returned.
func (d *Device) Read() (Reading, error) {
	var w [2]uint16
	if err := d.readWords(w[:]); err != nil {
		return Reading{}, err
	}
	return Decode(w[0], w[1]), nil
}

// MeasureBlocking starts a measurement, waits for it and reads the result.
func (d *Device) MeasureBlocking() (Reading, error) {
	if err := d.Measure(); err != nil {
		return Reading{}, err
	}
	if !ClockStretching {
		d.sleep(MeasurementDuration)
	}
	return d.Read()
}

// ConversionHint returns the time to wait between Measure and Read. It is
// zero with clock stretching, where the sensor holds the bus instead.
func (d *Device) ConversionHint() time.Duration {
	if ClockStretching {
		return 0
	}
	return MeasurementDuration
}

// SetPowerMode selects the measurement repeatability used by Measure.
// Unknown modes select HighPower.
func (d *Device) SetPowerMode(m PowerMode) {
	d.cmdMeasure = m.Command()
}

// EnableLowPowerMode switches between LowPower (true) and HighPower (false).
func (d *Device) EnableLowPowerMode(enable bool) {
	if enable {
		d.SetPowerMode(LowPower)
		return
	}
	d.SetPowerMode(HighPower)
}

// PowerMode returns the active power mode.
func (d *Device) PowerMode() PowerMode { return modeFromCommand(d.cmdMeasure) }

// ReadSerial reads the 32-bit serial number.
func (d *Device) ReadSerial() (uint32, error) {
	if err := d.writeCommand(cmdReadSerial); err != nil {
		return 0, err
	}
	d.sleep(CommandDuration)
	var b [4]byte
	if err := d.readWordsAsBytes(b[:]); err != nil {
		return 0, err
	}
	return bytesToUint32(b[:]), nil
}

// SetAlertThreshold writes one alert limit register. An invalid selector
// returns ErrInvalidParams without touching the bus.
func (d *Device) SetAlertThreshold(t AlertThreshold, l AlertLimit) error {
	cmd, ok := t.writeCommand()
	if !ok {
		return ErrInvalidParams
	}
	return d.writeCommandArgs(cmd, EncodeAlertLimit(l))
}

// AlertThreshold reads one alert limit register. An invalid selector returns
// ErrInvalidParams without touching the bus.
func (d *Device) AlertThreshold(t AlertThreshold) (AlertLimit, error) {
	cmd, ok := t.readCommand()
	if !ok {
		return AlertLimit{}, ErrInvalidParams
	}
	var w [1]uint16
	if err := d.readCommand(cmd, w[:]); err != nil {
		return AlertLimit{}, err
	}
	return DecodeAlertLimit(w[0]), nil
}

// SoftReset reloads calibration data and returns the sensor to its idle
// state. Allow about 1.5 ms before the next command.
func (d *Device) SoftReset() error {
	return d.writeCommand(cmdSoftReset)
}

// SetHeater switches the on-chip heater. It is meant for plausibility checks
// only; readings taken while it runs are biased.
func (d *Device) SetHeater(on bool) error {
	if on {
		return d.writeCommand(cmdHeaterOn)
	}
	return d.writeCommand(cmdHeaterOff)
}
