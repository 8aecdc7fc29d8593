package envsense

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sht3x-go/bus"
	"sht3x-go/drivers/sht3x"
	"sht3x-go/types"
)

var errNack = errors.New("i2c: nack")

// fakeSensor is a scripted Sensor. The service goroutine calls it while the
// test goroutine inspects it, hence the mutex.
type fakeSensor struct {
	mu       sync.Mutex
	probeErr error
	serial   uint32
	reading  sht3x.Reading
	readErrs []error // consumed one per Read
	status   sht3x.Status
	mode     sht3x.PowerMode
	alerts   map[sht3x.AlertThreshold]sht3x.AlertLimit
	heater   bool
	measures int
	reads    int
	clears   int
	resets   int
}

func newFakeSensor() *fakeSensor {
	return &fakeSensor{
		serial:  0x1234ABCD,
		reading: sht3x.Reading{TemperatureMilliC: 23456, HumidityMilliRH: 45678},
		alerts:  map[sht3x.AlertThreshold]sht3x.AlertLimit{},
	}
}

func (f *fakeSensor) Address() uint16       { return sht3x.AddressDefault }
func (f *fakeSensor) DriverVersion() string { return sht3x.Version }
func (f *fakeSensor) Probe() error          { return f.probeErr }

func (f *fakeSensor) Status() (sht3x.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeSensor) ClearStatus() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.status = 0
	return nil
}

func (f *fakeSensor) Measure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.measures++
	return nil
}

func (f *fakeSensor) Read() (sht3x.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		return sht3x.Reading{}, err
	}
	return f.reading, nil
}

func (f *fakeSensor) ConversionHint() time.Duration { return time.Millisecond }

func (f *fakeSensor) SetPowerMode(m sht3x.PowerMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
}

func (f *fakeSensor) PowerMode() sht3x.PowerMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *fakeSensor) ReadSerial() (uint32, error) { return f.serial, nil }

func (f *fakeSensor) AlertThreshold(t sht3x.AlertThreshold) (sht3x.AlertLimit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !t.Valid() {
		return sht3x.AlertLimit{}, sht3x.ErrInvalidParams
	}
	return f.alerts[t], nil
}

func (f *fakeSensor) SetAlertThreshold(t sht3x.AlertThreshold, l sht3x.AlertLimit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !t.Valid() {
		return sht3x.ErrInvalidParams
	}
	f.alerts[t] = l
	return nil
}

func (f *fakeSensor) SoftReset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeSensor) SetHeater(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heater = on
	return nil
}

func (f *fakeSensor) counts() (measures, reads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.measures, f.reads
}

// ---- helpers ----

const testID = "s1"

func startService(t *testing.T, dev *fakeSensor, cfg Config) *bus.Connection {
	t.Helper()
	b := bus.NewBus(16)
	mon := b.NewConnection("test")
	st := mon.Subscribe(TopicState(cfg.ID))
	defer mon.Unsubscribe(st)

	svc := New(dev, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, b.NewConnection("envsense"))
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.After(time.Second)
	for {
		select {
		case m := <-st.Channel():
			if s, ok := m.Payload.(types.ServiceState); ok && s.Level == "ready" {
				return mon
			}
		case <-deadline:
			t.Fatal("service did not become ready")
		}
	}
}

func testConfig() Config {
	c := Defaults()
	c.ID = testID
	c.IntervalMs = 0
	c.RetryBackoffMs = 1
	return c
}

func request(t *testing.T, c *bus.Connection, verb string, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := c.RequestWait(ctx, c.NewMessage(TopicControl(testID, verb), payload, false))
	if err != nil {
		t.Fatalf("%s: %v", verb, err)
	}
	return m.Payload
}

func wantErrReply(t *testing.T, got any, code string) {
	t.Helper()
	er, ok := got.(types.ErrorReply)
	if !ok {
		t.Fatalf("want ErrorReply %q, got %T %+v", code, got, got)
	}
	if er.OK || er.Error != code {
		t.Fatalf("want error %q, got %+v", code, er)
	}
}

func wantOK(t *testing.T, got any) {
	t.Helper()
	if r, ok := got.(types.OKReply); !ok || !r.OK {
		t.Fatalf("want OKReply, got %T %+v", got, got)
	}
}

// retained returns the retained payload on topic, if any.
func retained(c *bus.Connection, topic bus.Topic) (any, bool) {
	sub := c.Subscribe(topic)
	defer c.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		return m.Payload, true
	default:
		return nil, false
	}
}

// ---- tests ----

func TestStartPublishesInfoAndLinkUp(t *testing.T) {
	mon := startService(t, newFakeSensor(), testConfig())

	p, ok := retained(mon, TopicInfo(testID))
	if !ok {
		t.Fatal("no retained info")
	}
	info := p.(types.Info)
	d := info.Detail.(types.SensorInfo)
	if d.Sensor != "sht3x" || d.Addr != 0x44 || d.Serial != 0x1234ABCD || d.Mode != "high" || d.Version != sht3x.Version {
		t.Fatalf("unexpected info: %+v", d)
	}

	p, ok = retained(mon, TopicStatus(testID))
	if !ok {
		t.Fatal("no retained status")
	}
	if st := p.(types.CapabilityStatus); st.Link != types.LinkUp || st.Error != "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestProbeFailureLeavesLinkDown(t *testing.T) {
	dev := newFakeSensor()
	dev.probeErr = errNack
	mon := startService(t, dev, testConfig())

	p, ok := retained(mon, TopicStatus(testID))
	if !ok {
		t.Fatal("no retained status")
	}
	if st := p.(types.CapabilityStatus); st.Link != types.LinkDown || st.Error != "unknown_device" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStartAppliesSettings(t *testing.T) {
	dev := newFakeSensor()
	cfg := testConfig()
	cfg.PowerMode = "low"
	cfg.ClearStatus = true
	cfg.Heater = true
	cfg.Alerts = []AlertConfig{{Threshold: "high_set", DeciRH: 800, DeciC: 600}}
	startService(t, dev, cfg)

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.mode != sht3x.LowPower {
		t.Fatalf("mode = %v", dev.mode)
	}
	if dev.clears != 1 || !dev.heater {
		t.Fatalf("clears=%d heater=%v", dev.clears, dev.heater)
	}
	if got := dev.alerts[sht3x.HighAlertSet]; got != (sht3x.AlertLimit{HumidityDeciRH: 800, TemperatureDeciC: 600}) {
		t.Fatalf("alert = %+v", got)
	}
}

func TestReadControlPublishesValues(t *testing.T) {
	mon := startService(t, newFakeSensor(), testConfig())

	got := request(t, mon, "read", nil)
	env, ok := got.(types.EnvReading)
	if !ok {
		t.Fatalf("want EnvReading, got %T %+v", got, got)
	}
	if env.MilliC != 23456 || env.MilliRH != 45678 {
		t.Fatalf("unexpected reading: %+v", env)
	}

	p, _ := retained(mon, TopicValue(testID, "temperature"))
	if v, ok := p.(types.TemperatureValue); !ok || v.DeciC != 235 {
		t.Fatalf("temperature = %+v", p)
	}
	p, _ = retained(mon, TopicValue(testID, "humidity"))
	if v, ok := p.(types.HumidityValue); !ok || v.RHx100 != 4568 {
		t.Fatalf("humidity = %+v", p)
	}
}

func TestReadRetriesWhileBusy(t *testing.T) {
	dev := newFakeSensor()
	dev.readErrs = []error{errNack, errNack}
	cfg := testConfig()
	cfg.CollectRetries = 3
	mon := startService(t, dev, cfg)

	if _, ok := request(t, mon, "read", nil).(types.EnvReading); !ok {
		t.Fatal("read did not succeed after retries")
	}
	if measures, reads := dev.counts(); measures != 1 || reads != 3 {
		t.Fatalf("measures=%d reads=%d, want 1 and 3", measures, reads)
	}
}

func TestReadRetriesExhausted(t *testing.T) {
	dev := newFakeSensor()
	dev.readErrs = []error{errNack, errNack, errNack, errNack}
	cfg := testConfig()
	cfg.CollectRetries = 2
	mon := startService(t, dev, cfg)

	wantErrReply(t, request(t, mon, "read", nil), "not_ready")
	if _, reads := dev.counts(); reads != 3 {
		t.Fatalf("reads = %d, want 3", reads)
	}
	p, _ := retained(mon, TopicStatus(testID))
	if st := p.(types.CapabilityStatus); st.Link != types.LinkDegraded || st.Error != "not_ready" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestReadCRCFailureIsFinal(t *testing.T) {
	dev := newFakeSensor()
	dev.readErrs = []error{sht3x.ErrCRC}
	mon := startService(t, dev, testConfig())

	wantErrReply(t, request(t, mon, "read", nil), "crc_fail")
	if _, reads := dev.counts(); reads != 1 {
		t.Fatalf("reads = %d, want 1", reads)
	}
}

func TestPeriodicSampling(t *testing.T) {
	dev := newFakeSensor()
	cfg := testConfig()
	cfg.IntervalMs = 5
	mon := startService(t, dev, cfg)

	sub := mon.Subscribe(TopicValue(testID, "env"))
	defer mon.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for n := 0; n < 3; {
		select {
		case <-sub.Channel():
			n++
		case <-deadline:
			t.Fatalf("only %d samples published", n)
		}
	}
}

func TestAlertControls(t *testing.T) {
	mon := startService(t, newFakeSensor(), testConfig())

	wantOK(t, request(t, mon, "set_alert", types.AlertLimits{Threshold: "low_set", DeciRH: 200, DeciC: -100}))

	got := request(t, mon, "get_alert", types.AlertGet{Threshold: "low_set"})
	al, ok := got.(types.AlertLimits)
	if !ok || al.Threshold != "low_set" || al.DeciRH != 200 || al.DeciC != -100 {
		t.Fatalf("get_alert = %T %+v", got, got)
	}

	wantErrReply(t, request(t, mon, "get_alert", types.AlertGet{Threshold: "middle"}), "invalid_params")
	wantErrReply(t, request(t, mon, "set_alert", types.AlertLimits{Threshold: "high_set", DeciRH: 1001}), "invalid_params")
	wantErrReply(t, request(t, mon, "set_alert", "nope"), "invalid_payload")
}

func TestSetPowerModeControl(t *testing.T) {
	dev := newFakeSensor()
	mon := startService(t, dev, testConfig())

	wantOK(t, request(t, mon, "set_power_mode", &types.PowerModeSet{Mode: "medium"}))
	if dev.PowerMode() != sht3x.MediumPower {
		t.Fatalf("mode = %v", dev.PowerMode())
	}
	p, _ := retained(mon, TopicInfo(testID))
	if d := p.(types.Info).Detail.(types.SensorInfo); d.Mode != "medium" {
		t.Fatalf("info mode = %q", d.Mode)
	}
	wantErrReply(t, request(t, mon, "set_power_mode", types.PowerModeSet{Mode: "turbo"}), "invalid_params")
}

func TestStatusControl(t *testing.T) {
	dev := newFakeSensor()
	dev.status = 0x8401
	mon := startService(t, dev, testConfig())

	got := request(t, mon, "status", nil)
	st, ok := got.(types.SensorStatus)
	if !ok {
		t.Fatalf("want SensorStatus, got %T", got)
	}
	if st.Word != 0x8401 || !st.AlertPending || !st.TemperatureAlert || !st.LastCRCFailed || st.HumidityAlert {
		t.Fatalf("unexpected status: %+v", st)
	}
	if _, ok := retained(mon, TopicRegister(testID)); !ok {
		t.Fatal("status register not retained")
	}

	wantOK(t, request(t, mon, "clear_status", nil))
	if st := request(t, mon, "status", nil).(types.SensorStatus); st.Word != 0 {
		t.Fatalf("status after clear = %+v", st)
	}
}

func TestSerialResetHeaterControls(t *testing.T) {
	dev := newFakeSensor()
	cfg := testConfig()
	cfg.Alerts = []AlertConfig{{Threshold: "high_clear", DeciRH: 700, DeciC: 500}}
	mon := startService(t, dev, cfg)

	if v, ok := request(t, mon, "serial", nil).(types.SerialValue); !ok || v.Serial != 0x1234ABCD {
		t.Fatalf("serial = %+v", v)
	}

	dev.mu.Lock()
	delete(dev.alerts, sht3x.HighAlertClear)
	dev.mu.Unlock()
	wantOK(t, request(t, mon, "reset", nil))

	wantOK(t, request(t, mon, "heater", types.HeaterSet{On: true}))

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.resets != 1 {
		t.Fatalf("resets = %d", dev.resets)
	}
	if _, ok := dev.alerts[sht3x.HighAlertClear]; !ok {
		t.Fatal("alerts not re-applied after reset")
	}
	if !dev.heater {
		t.Fatal("heater not enabled")
	}
}

func TestUnknownVerb(t *testing.T) {
	mon := startService(t, newFakeSensor(), testConfig())
	wantErrReply(t, request(t, mon, "selfdestruct", nil), "unsupported")
}

func TestReconfigureFromBus(t *testing.T) {
	dev := newFakeSensor()
	mon := startService(t, dev, testConfig())

	info := mon.Subscribe(TopicInfo(testID))
	defer mon.Unsubscribe(info)
	<-info.Channel() // retained from start

	// Rejected: unknown mode. The following valid config must still apply.
	mon.Publish(mon.NewMessage(TopicConfig(testID), Config{PowerMode: "turbo"}, false))
	mon.Publish(mon.NewMessage(TopicConfig(testID), &Config{
		PowerMode: "low",
		Alerts:    []AlertConfig{{Threshold: "low_clear", DeciRH: 250, DeciC: 0}},
	}, false))

	select {
	case m := <-info.Channel():
		if d := m.Payload.(types.Info).Detail.(types.SensorInfo); d.Mode != "low" || d.Addr != 0x44 {
			t.Fatalf("info after reconfigure = %+v", d)
		}
	case <-time.After(time.Second):
		t.Fatal("no info after reconfigure")
	}
	if dev.PowerMode() != sht3x.LowPower {
		t.Fatalf("mode = %v", dev.PowerMode())
	}
	dev.mu.Lock()
	_, ok := dev.alerts[sht3x.LowAlertClear]
	dev.mu.Unlock()
	if !ok {
		t.Fatal("alert from new config not applied")
	}
}

func TestPendingMeasurementDefersControlAndConfig(t *testing.T) {
	dev := newFakeSensor()
	dev.readErrs = []error{errNack}
	cfg := testConfig()
	cfg.RetryBackoffMs = 300
	mon := startService(t, dev, cfg)

	info := mon.Subscribe(TopicInfo(testID))
	defer mon.Unsubscribe(info)
	<-info.Channel() // retained from start

	// The first collect is NACKed, so the sample stays pending for the
	// backoff period.
	read := mon.Request(mon.NewMessage(TopicControl(testID, "read"), nil, false))
	defer mon.Unsubscribe(read)
	deadline := time.After(time.Second)
	for {
		if _, reads := dev.counts(); reads >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first collect never ran")
		case <-time.After(time.Millisecond):
		}
	}

	wantErrReply(t, request(t, mon, "status", nil), "busy")

	mon.Publish(mon.NewMessage(TopicConfig(testID), Config{PowerMode: "medium"}, false))
	if dev.PowerMode() != sht3x.HighPower {
		t.Fatalf("mode changed mid-measurement: %v", dev.PowerMode())
	}

	select {
	case m := <-read.Channel():
		if _, ok := m.Payload.(types.EnvReading); !ok {
			t.Fatalf("read reply = %T %+v", m.Payload, m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no read reply")
	}

	select {
	case m := <-info.Channel():
		if d := m.Payload.(types.Info).Detail.(types.SensorInfo); d.Mode != "medium" {
			t.Fatalf("info mode = %q", d.Mode)
		}
	case <-time.After(time.Second):
		t.Fatal("held config never applied")
	}
	if dev.PowerMode() != sht3x.MediumPower {
		t.Fatalf("mode after sample = %v", dev.PowerMode())
	}
	if measures, reads := dev.counts(); measures != 1 || reads != 2 {
		t.Fatalf("measures=%d reads=%d, want 1 and 2", measures, reads)
	}
}
