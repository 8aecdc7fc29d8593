package types

// ------------------------
// Temperature & humidity
// ------------------------

type SensorInfo struct {
	Sensor  string `json:"sensor"` // "sht3x"
	Addr    uint16 `json:"addr"`   // I2C address
	Bus     string `json:"bus"`    // "i2c0", "/dev/i2c-1", ...
	Serial  uint32 `json:"serial"`
	Version string `json:"version"`
	Mode    string `json:"mode"` // "low", "medium", "high"
}

type TemperatureValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
}

type HumidityValue struct {
	// Hundredths of %RH (0..10000 for 0..100.00%).
	RHx100 uint16 `json:"rh_x100"`
}

// EnvReading is the full-resolution reading.
type EnvReading struct {
	MilliC  int32 `json:"milli_c"`
	MilliRH int32 `json:"milli_rh"`
	TSms    int64 `json:"ts_ms"`
}

// SensorStatus is the decoded status register.
type SensorStatus struct {
	Word             uint16 `json:"word"`
	AlertPending     bool   `json:"alert_pending"`
	HeaterOn         bool   `json:"heater_on"`
	HumidityAlert    bool   `json:"rh_alert"`
	TemperatureAlert bool   `json:"t_alert"`
	ResetDetected    bool   `json:"reset_detected"`
	CommandFailed    bool   `json:"command_failed"`
	LastCRCFailed    bool   `json:"last_crc_failed"`
}

// ------------------------
// Controls
// ------------------------

// AlertLimits is both the get_alert reply and the set_alert payload.
// Threshold is one of "high_set", "high_clear", "low_clear", "low_set".
type AlertLimits struct {
	Threshold string `json:"threshold"`
	DeciRH    uint16 `json:"deci_rh"`
	DeciC     int16  `json:"deci_c"`
}

type AlertGet struct {
	Threshold string `json:"threshold"`
}

type PowerModeSet struct {
	Mode string `json:"mode"`
}

type HeaterSet struct {
	On bool `json:"on"`
}

type SerialValue struct {
	Serial uint32 `json:"serial"`
}
