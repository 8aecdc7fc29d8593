//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	"sht3x-go/bus"
	"sht3x-go/drivers/sht3x"
	"sht3x-go/services/envsense"
	"sht3x-go/types"
	"sht3x-go/x/conv"
)

const sensorID = "env0"

var numbuf [24]byte

func printTopic(prefix string, t bus.Topic) {
	print(prefix, " ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
}

func printPayload(p any) {
	switch v := p.(type) {
	case types.EnvReading:
		print(" t=", string(conv.Fixed(numbuf[:], int64(v.MilliC), 3)), "C")
		print(" rh=", string(conv.Fixed(numbuf[:], int64(v.MilliRH), 3)), "%")
	case types.CapabilityStatus:
		print(" link=", string(v.Link))
		if v.Error != "" {
			print(" err=", v.Error)
		}
	case types.ServiceState:
		print(" state=", v.Level)
	case types.Info:
		if d, ok := v.Detail.(types.SensorInfo); ok {
			print(" serial=", string(conv.U32Hex(numbuf[:8], d.Serial)), " mode=", d.Mode)
		}
	}
	println()
}

func main() {
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] configuring i2c0 …")
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("[main] i2c0 configure failed:", err.Error())
	}

	cfg := envsense.Defaults()
	cfg.ID = sensorID
	cfg.Bus = "i2c0"
	cfg.IntervalMs = 5000
	cfg.Alerts = []envsense.AlertConfig{
		{Threshold: "high_set", DeciRH: 800, DeciC: 600},
		{Threshold: "high_clear", DeciRH: 790, DeciC: 580},
		{Threshold: "low_clear", DeciRH: 210, DeciC: -80},
		{Threshold: "low_set", DeciRH: 200, DeciC: -100},
	}
	if err := cfg.Validate(); err != nil {
		println("[main] bad sensor config:", err.Error())
		return
	}

	dev := sht3x.New(i2c, sht3x.Config{Address: cfg.Address, Mode: cfg.Mode()})

	println("[main] bootstrapping bus …")
	b := bus.NewBus(4)
	uiConn := b.NewConnection("ui")
	mon := uiConn.Subscribe(bus.T("sht3x", sensorID, bus.MultiLevel))
	go func() {
		for m := range mon.Channel() {
			printTopic("[monitor] <-", m.Topic)
			printPayload(m.Payload)
		}
	}()

	println("[main] starting envsense …")
	go envsense.New(dev, cfg).Run(ctx, b.NewConnection("envsense"))

	time.Sleep(time.Second)
	status := bus.T("sht3x", sensorID, "control", "status")
	for {
		time.Sleep(30 * time.Second)
		reply, err := uiConn.RequestWait(ctx, uiConn.NewMessage(status, nil, false))
		if err != nil {
			println("[main] status error:", err.Error())
			continue
		}
		if st, ok := reply.Payload.(types.SensorStatus); ok && (st.HumidityAlert || st.TemperatureAlert) {
			println("[main] alert active, clearing status")
			uiConn.Publish(uiConn.NewMessage(bus.T("sht3x", sensorID, "control", "clear_status"), nil, false))
		}
		printMem()
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	println("[mem] heap_inuse:", int(ms.HeapInuse), "heap_sys:", int(ms.HeapSys), "mallocs:", int(ms.Mallocs), "frees:", int(ms.Frees))
}
