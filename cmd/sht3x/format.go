package main

import (
	"fmt"
	"io"
	"math"

	"periph.io/x/conn/v3/physic"

	"sht3x-go/drivers/sht3x"
)

// toEnv converts a reading to periph units. Milli-%RH is ten MicroRH.
func toEnv(r sht3x.Reading) physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(r.TemperatureMilliC)*physic.MilliKelvin,
		Humidity:    physic.RelativeHumidity(r.HumidityMilliRH) * 10 * physic.MicroRH,
	}
}

func printReading(w io.Writer, r sht3x.Reading) {
	e := toEnv(r)
	fmt.Fprintf(w, "Temperature: %0.2f°C\nHumidity: %s\n", e.Temperature.Celsius(), e.Humidity)
}

func printStatus(w io.Writer, st sht3x.Status) {
	fmt.Fprintf(w, "Status: 0x%04X\n", uint16(st))
	flags := []struct {
		name string
		set  bool
	}{
		{"alert pending", st.AlertPending()},
		{"heater on", st.HeaterOn()},
		{"humidity alert", st.HumidityAlert()},
		{"temperature alert", st.TemperatureAlert()},
		{"reset detected", st.ResetDetected()},
		{"command failed", st.CommandFailed()},
		{"last write crc failed", st.LastCRCFailed()},
	}
	for _, f := range flags {
		fmt.Fprintf(w, "  %-22s %t\n", f.name+":", f.set)
	}
}

func printAlert(w io.Writer, t sht3x.AlertThreshold, l sht3x.AlertLimit) {
	fmt.Fprintf(w, "%-10s %5.1f%%rH %6.1f°C\n", t.String(), float64(l.HumidityDeciRH)/10, float64(l.TemperatureDeciC)/10)
}

// alertLimit converts user units to the tenths the encoder takes.
func alertLimit(rh, celsius float64) (sht3x.AlertLimit, error) {
	if rh < 0 || rh > 100 {
		return sht3x.AlertLimit{}, fmt.Errorf("humidity %.1f%%: must be within 0..100", rh)
	}
	if celsius < -45 || celsius > 130 {
		return sht3x.AlertLimit{}, fmt.Errorf("temperature %.1f°C: must be within -45..130", celsius)
	}
	return sht3x.AlertLimit{
		HumidityDeciRH:   uint16(math.Round(rh * 10)),
		TemperatureDeciC: int16(math.Round(celsius * 10)),
	}, nil
}
