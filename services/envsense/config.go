package envsense

import (
	"errors"

	"sht3x-go/drivers/sht3x"
)

var (
	ErrBadAddress   = errors.New("envsense: address must be 0x44 or 0x45")
	ErrBadMode      = errors.New("envsense: unknown power_mode")
	ErrBadThreshold = errors.New("envsense: unknown alert threshold")
	ErrBadInterval  = errors.New("envsense: negative interval")
	ErrBadLimit     = errors.New("envsense: alert limit out of range")
)

const (
	DefaultID             = "sht3x0"
	DefaultIntervalMs     = 2000
	DefaultCollectRetries = 3
	DefaultRetryBackoffMs = 5
)

// Config describes one sensor instance.
type Config struct {
	ID             string        `yaml:"id"`
	Bus            string        `yaml:"bus"`
	Address        uint16        `yaml:"address"`
	PowerMode      string        `yaml:"power_mode"`
	IntervalMs     int           `yaml:"interval_ms"` // 0 disables periodic sampling
	CollectRetries int           `yaml:"collect_retries"`
	RetryBackoffMs int           `yaml:"retry_backoff_ms"`
	ClearStatus    bool          `yaml:"clear_status"`
	Heater         bool          `yaml:"heater"`
	Alerts         []AlertConfig `yaml:"alerts"`
}

type AlertConfig struct {
	Threshold string `yaml:"threshold"`
	DeciRH    uint16 `yaml:"deci_rh"`
	DeciC     int16  `yaml:"deci_c"`
}

// Defaults returns a config for a sensor at the default address on "i2c0".
func Defaults() Config {
	return Config{
		ID:             DefaultID,
		Bus:            "i2c0",
		Address:        sht3x.AddressDefault,
		PowerMode:      "high",
		IntervalMs:     DefaultIntervalMs,
		CollectRetries: DefaultCollectRetries,
		RetryBackoffMs: DefaultRetryBackoffMs,
	}
}

// Normalize fills unset fields from Defaults. IntervalMs is left alone so
// an explicit 0 keeps meaning "on demand only".
func (c *Config) Normalize() {
	d := Defaults()
	if c.ID == "" {
		c.ID = d.ID
	}
	if c.Bus == "" {
		c.Bus = d.Bus
	}
	if c.Address == 0 {
		c.Address = d.Address
	}
	if c.PowerMode == "" {
		c.PowerMode = d.PowerMode
	}
	if c.CollectRetries <= 0 {
		c.CollectRetries = d.CollectRetries
	}
	if c.RetryBackoffMs <= 0 {
		c.RetryBackoffMs = d.RetryBackoffMs
	}
}

// Validate reports the first problem found. It does not modify c.
func (c Config) Validate() error {
	if c.Address != sht3x.AddressDefault && c.Address != sht3x.AddressAlternate {
		return ErrBadAddress
	}
	if _, ok := sht3x.ParsePowerMode(c.PowerMode); !ok {
		return ErrBadMode
	}
	if c.IntervalMs < 0 {
		return ErrBadInterval
	}
	for _, a := range c.Alerts {
		if _, ok := sht3x.ParseAlertThreshold(a.Threshold); !ok {
			return ErrBadThreshold
		}
		if a.DeciRH > 1000 || a.DeciC < -450 || a.DeciC > 1300 {
			return ErrBadLimit
		}
	}
	return nil
}

// Mode returns the parsed power mode; callers should Validate first.
func (c Config) Mode() sht3x.PowerMode {
	m, _ := sht3x.ParsePowerMode(c.PowerMode)
	return m
}
