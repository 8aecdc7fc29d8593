package sht3x

// Fixed-point conversions, optimised for integer algebra:
//
//	T  = 175 * S_T / 2^16 - 45      (21875/2^13 = 175000/2^16)
//	RH = 100 * S_RH / 2^16          (12500/2^13 = 100000/2^16)
//
// Results are in milli-°C and milli-%RH. No clamping is applied.

// TemperatureMilliC converts a raw temperature word to milli-°C.
func TemperatureMilliC(raw uint16) int32 {
	return ((21875 * int32(raw)) >> 13) - 45000
}

// HumidityMilliRH converts a raw humidity word to milli-%RH.
func HumidityMilliRH(raw uint16) int32 {
	return (12500 * int32(raw)) >> 13
}

// Alert limit word layout: 7 MSBs of the RH code, 9 MSBs of the T code.
const (
	humidityLimitMask    = 0xFE00
	temperatureLimitMask = 0x01FF
)

// AlertLimit is one humidity/temperature threshold pair, in tenths of %RH
// and tenths of °C.
type AlertLimit struct {
	HumidityDeciRH   uint16
	TemperatureDeciC int16
}

// EncodeAlertLimit packs a threshold pair into the sensor's limit word.
// The transform is lossy: humidity keeps 7 bits, temperature 9 bits.
// Humidity above 100.0 %RH wraps to a low code (1001 encodes as 0 %RH) and
// temperatures below -45.0 °C wrap as well. Callers validate first.
func EncodeAlertLimit(l AlertLimit) uint16 {
	h := uint32(l.HumidityDeciRH)
	h = (h << 16) - h
	h /= 1000
	word := uint16(h) & humidityLimitMask

	t := uint32(int32(l.TemperatureDeciC) + 450)
	t = (t << 16) - t
	t /= 1750
	t >>= 7
	return word | uint16(t)&temperatureLimitMask
}

// DecodeAlertLimit unpacks a limit word. Decoded values never exceed the
// encoded input and stay within one quantisation step of it.
func DecodeAlertLimit(word uint16) AlertLimit {
	h := int32(word & humidityLimitMask)
	h = (1000 * h) / 65535

	t := int32(word & temperatureLimitMask)
	t <<= 7
	t = (t * 1750) / 65535
	t -= 450

	return AlertLimit{
		HumidityDeciRH:   uint16(h),
		TemperatureDeciC: int16(t),
	}
}

// Reading is a calibrated measurement.
type Reading struct {
	TemperatureMilliC int32
	HumidityMilliRH   int32
}

// Decode converts a raw (temperature, humidity) word pair.
func Decode(rawT, rawRH uint16) Reading {
	return Reading{
		TemperatureMilliC: TemperatureMilliC(rawT),
		HumidityMilliRH:   HumidityMilliRH(rawRH),
	}
}

// DeciCelsius returns tenths of °C, rounded half away from zero.
func (r Reading) DeciCelsius() int32 { return divRound(r.TemperatureMilliC, 100) }

// DeciRelHumidity returns tenths of %RH, rounded half away from zero.
func (r Reading) DeciRelHumidity() int32 { return divRound(r.HumidityMilliRH, 100) }

// CentiRelHumidity returns hundredths of %RH, rounded half away from zero.
func (r Reading) CentiRelHumidity() int32 { return divRound(r.HumidityMilliRH, 10) }

func divRound(v, d int32) int32 {
	if v < 0 {
		return (v - d/2) / d
	}
	return (v + d/2) / d
}
