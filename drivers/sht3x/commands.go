package sht3x

// Timing-invariant commands. All measurement commands return T (CRC) RH (CRC).
const (
	cmdReadStatus  = 0xF32D
	cmdClearStatus = 0x3041
	cmdReadSerial  = 0x3780
	cmdSoftReset   = 0x30A2
	cmdHeaterOn    = 0x306D
	cmdHeaterOff   = 0x3066

	// Alert limit reads.
	cmdReadHighAlertSet   = 0xE11F
	cmdReadHighAlertClear = 0xE114
	cmdReadLowAlertClear  = 0xE109
	cmdReadLowAlertSet    = 0xE102

	// Alert limit writes.
	cmdWriteHighAlertSet   = 0x611D
	cmdWriteHighAlertClear = 0x6116
	cmdWriteLowAlertClear  = 0x610B
	cmdWriteLowAlertSet    = 0x6100
)

// PowerMode selects the single-shot measurement repeatability. Higher
// repeatability costs more supply current and conversion time.
type PowerMode uint8

const (
	HighPower PowerMode = iota
	MediumPower
	LowPower
)

// Command returns the measurement command for the mode on the configured bus
// timing variant. Unknown modes fall back to high power.
func (m PowerMode) Command() uint16 {
	switch m {
	case LowPower:
		return cmdMeasureLPM
	case MediumPower:
		return cmdMeasureMPM
	default:
		return cmdMeasureHPM
	}
}

func (m PowerMode) String() string {
	switch m {
	case LowPower:
		return "low"
	case MediumPower:
		return "medium"
	case HighPower:
		return "high"
	default:
		return "unknown"
	}
}

// ParsePowerMode accepts "low", "medium" and "high" (plus the short forms
// "lpm", "mpm", "hpm").
func ParsePowerMode(s string) (PowerMode, bool) {
	switch s {
	case "low", "lpm", "LPM":
		return LowPower, true
	case "medium", "mpm", "MPM":
		return MediumPower, true
	case "high", "hpm", "HPM", "":
		return HighPower, true
	}
	return HighPower, false
}

func modeFromCommand(cmd uint16) PowerMode {
	switch cmd {
	case cmdMeasureLPM:
		return LowPower
	case cmdMeasureMPM:
		return MediumPower
	default:
		return HighPower
	}
}

// AlertThreshold names one of the four alert limit registers.
type AlertThreshold uint8

const (
	HighAlertSet AlertThreshold = iota
	HighAlertClear
	LowAlertClear
	LowAlertSet
)

// AlertThresholds lists every valid selector in register order.
var AlertThresholds = [...]AlertThreshold{HighAlertSet, HighAlertClear, LowAlertClear, LowAlertSet}

func (t AlertThreshold) readCommand() (uint16, bool) {
	switch t {
	case HighAlertSet:
		return cmdReadHighAlertSet, true
	case HighAlertClear:
		return cmdReadHighAlertClear, true
	case LowAlertClear:
		return cmdReadLowAlertClear, true
	case LowAlertSet:
		return cmdReadLowAlertSet, true
	}
	return 0, false
}

func (t AlertThreshold) writeCommand() (uint16, bool) {
	switch t {
	case HighAlertSet:
		return cmdWriteHighAlertSet, true
	case HighAlertClear:
		return cmdWriteHighAlertClear, true
	case LowAlertClear:
		return cmdWriteLowAlertClear, true
	case LowAlertSet:
		return cmdWriteLowAlertSet, true
	}
	return 0, false
}

// Valid reports whether t is one of the four alert limit registers.
func (t AlertThreshold) Valid() bool {
	_, ok := t.readCommand()
	return ok
}

func (t AlertThreshold) String() string {
	switch t {
	case HighAlertSet:
		return "high_set"
	case HighAlertClear:
		return "high_clear"
	case LowAlertClear:
		return "low_clear"
	case LowAlertSet:
		return "low_set"
	default:
		return "invalid"
	}
}

// ParseAlertThreshold is the inverse of AlertThreshold.String.
func ParseAlertThreshold(s string) (AlertThreshold, bool) {
	for _, t := range AlertThresholds {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}
