// Package envsense runs one SHT3x sensor as a bus service: it samples on an
// interval, publishes retained values and status, and answers control
// requests. All access to the sensor happens on the Run goroutine.
package envsense

import (
	"context"
	"errors"
	"time"

	"sht3x-go/bus"
	"sht3x-go/drivers/sht3x"
	"sht3x-go/errcode"
	"sht3x-go/types"
	"sht3x-go/x/conv"
	"sht3x-go/x/mathx"
	"sht3x-go/x/timex"
)

// Sensor is the driver surface used by the service.
type Sensor interface {
	Address() uint16
	DriverVersion() string
	Probe() error
	Status() (sht3x.Status, error)
	ClearStatus() error
	Measure() error
	Read() (sht3x.Reading, error)
	ConversionHint() time.Duration
	SetPowerMode(sht3x.PowerMode)
	PowerMode() sht3x.PowerMode
	ReadSerial() (uint32, error)
	AlertThreshold(sht3x.AlertThreshold) (sht3x.AlertLimit, error)
	SetAlertThreshold(sht3x.AlertThreshold, sht3x.AlertLimit) error
	SoftReset() error
	SetHeater(bool) error
}

var _ Sensor = (*sht3x.Device)(nil)

const resetSettle = 2 * time.Millisecond

type Service struct {
	cfg  Config
	dev  Sensor
	conn *bus.Connection

	info types.SensorInfo
	link types.Link
	code errcode.Code

	// two-phase sampler
	tick     *time.Ticker
	collect  *time.Timer
	pending  bool
	retries  int
	waiters  []*bus.Message
	deferred *bus.Message // config held while pending

	logbuf [24]byte
}

// New binds dev to cfg. cfg is normalised but not validated.
func New(dev Sensor, cfg Config) *Service {
	cfg.Normalize()
	return &Service{
		cfg: cfg,
		dev: dev,
		info: types.SensorInfo{
			Sensor:  "sht3x",
			Addr:    dev.Address(),
			Bus:     cfg.Bus,
			Version: dev.DriverVersion(),
			Mode:    cfg.Mode().String(),
		},
	}
}

// Run owns the sensor until ctx is cancelled.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.conn = conn
	s.collect = time.NewTimer(time.Hour)
	if !s.collect.Stop() {
		timex.DrainTimer(s.collect)
	}
	defer s.collect.Stop()

	s.publishState("starting", "")
	s.start()

	ctrl := conn.Subscribe(ctrlWildcard(s.cfg.ID))
	defer conn.Unsubscribe(ctrl)
	cfgSub := conn.Subscribe(TopicConfig(s.cfg.ID))
	defer conn.Unsubscribe(cfgSub)

	s.tick = time.NewTicker(time.Hour)
	defer s.tick.Stop()
	s.setInterval()

	s.publishState("ready", "")
	println("[envsense]", s.cfg.ID, "ready on", s.cfg.Bus, "mode", s.info.Mode)

	for {
		select {
		case <-ctx.Done():
			s.failWaiters(errcode.Timeout)
			s.publishState("stopped", "")
			return
		case <-s.tick.C:
			s.trigger()
		case <-s.collect.C:
			s.collectSample()
		case m, ok := <-ctrl.Channel():
			if !ok {
				return
			}
			s.handleControl(m)
		case m, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			s.reconfigure(m)
		}
	}
}

// setInterval arms tick from the configured interval and takes a first
// sample straight away. An interval of 0 stops periodic sampling.
func (s *Service) setInterval() {
	if s.cfg.IntervalMs <= 0 {
		s.tick.Stop()
		return
	}
	s.tick.Reset(time.Duration(s.cfg.IntervalMs) * time.Millisecond)
	s.trigger()
}

// reconfigure applies a Config published on config/sht3x/<id>. The ID, bus
// and address are fixed for the life of the service. A config that arrives
// mid-measurement is held until the sample completes.
func (s *Service) reconfigure(m *bus.Message) {
	cfg, ok := payload[Config](m)
	if !ok {
		println("[envsense]", s.cfg.ID, "ignoring config with unexpected payload")
		return
	}
	cfg.ID, cfg.Bus, cfg.Address = s.cfg.ID, s.cfg.Bus, s.cfg.Address
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		println("[envsense]", s.cfg.ID, "rejecting config:", err.Error())
		return
	}
	if s.pending {
		s.deferred = m
		return
	}
	s.dev.SetPowerMode(cfg.Mode())
	s.cfg = cfg
	s.info.Mode = cfg.Mode().String()
	s.applySettings()
	s.publishInfo()
	s.setInterval()
	println("[envsense]", s.cfg.ID, "reconfigured, interval_ms", s.cfg.IntervalMs)
}

// start probes the sensor and applies the configured settings. A missing
// sensor leaves the link down; sampling keeps trying.
func (s *Service) start() {
	s.dev.SetPowerMode(s.cfg.Mode())
	if err := s.dev.Probe(); err != nil {
		println("[envsense]", s.cfg.ID, errcode.Wrap("probe", err).Error())
		s.setLink(types.LinkDown, errcode.UnknownDevice)
		s.publishInfo()
		return
	}
	if sn, err := s.dev.ReadSerial(); err == nil {
		s.info.Serial = sn
		println("[envsense]", s.cfg.ID, "serial", string(conv.U32Hex(s.logbuf[:8], sn)))
	} else {
		println("[envsense]", s.cfg.ID, "serial read failed:", err.Error())
	}
	s.applySettings()
	s.setLink(types.LinkUp, "")
	s.publishInfo()
}

// applySettings pushes status clear, heater and alert limits to the sensor.
// Failures are logged and do not stop the service.
func (s *Service) applySettings() {
	if s.cfg.ClearStatus {
		if err := s.dev.ClearStatus(); err != nil {
			println("[envsense]", s.cfg.ID, "clear status failed:", err.Error())
		}
	}
	if s.cfg.Heater {
		if err := s.dev.SetHeater(true); err != nil {
			println("[envsense]", s.cfg.ID, "heater failed:", err.Error())
		}
	}
	for _, a := range s.cfg.Alerts {
		t, ok := sht3x.ParseAlertThreshold(a.Threshold)
		if !ok {
			continue
		}
		l := sht3x.AlertLimit{HumidityDeciRH: a.DeciRH, TemperatureDeciC: a.DeciC}
		if err := s.dev.SetAlertThreshold(t, l); err != nil {
			println("[envsense]", s.cfg.ID, "alert", a.Threshold, "failed:", err.Error())
		}
	}
}

// trigger starts a measurement unless one is already in flight.
func (s *Service) trigger() {
	if s.pending {
		return
	}
	if err := s.dev.Measure(); err != nil {
		s.fail(err)
		return
	}
	s.pending = true
	s.retries = 0
	timex.ResetTimer(s.collect, s.dev.ConversionHint())
}

// collectSample fetches the result. Without clock stretching a busy sensor
// NACKs the read, so transport errors are retried after a backoff and
// reported as NotReady once retries run out. CRC failures are final.
func (s *Service) collectSample() {
	r, err := s.dev.Read()
	if err != nil {
		if !errors.Is(err, sht3x.ErrCRC) && s.retries < s.cfg.CollectRetries {
			s.retries++
			timex.ResetTimer(s.collect, timex.Ms(s.cfg.RetryBackoffMs, DefaultRetryBackoffMs*time.Millisecond))
			return
		}
		s.pending = false
		if !errors.Is(err, sht3x.ErrCRC) {
			err = &errcode.E{C: errcode.NotReady, Op: "collect", Err: err}
		}
		s.fail(err)
		s.applyDeferred()
		return
	}
	s.pending = false
	s.emit(r)
	s.applyDeferred()
}

func (s *Service) applyDeferred() {
	if m := s.deferred; m != nil {
		s.deferred = nil
		s.reconfigure(m)
	}
}

func (s *Service) emit(r sht3x.Reading) {
	ts := timex.NowMs()
	deciC := mathx.Clamp(r.DeciCelsius(), -32768, 32767)
	rhx100 := mathx.Clamp(r.CentiRelHumidity(), 0, 10000)
	env := types.EnvReading{MilliC: r.TemperatureMilliC, MilliRH: r.HumidityMilliRH, TSms: ts}

	id := s.cfg.ID
	s.conn.Publish(s.conn.NewMessage(TopicValue(id, string(types.KindTemperature)), types.TemperatureValue{DeciC: int16(deciC)}, true))
	s.conn.Publish(s.conn.NewMessage(TopicValue(id, string(types.KindHumidity)), types.HumidityValue{RHx100: uint16(rhx100)}, true))
	s.conn.Publish(s.conn.NewMessage(TopicValue(id, string(types.KindEnv)), env, true))
	s.setLink(types.LinkUp, "")

	for _, w := range s.waiters {
		s.conn.Reply(w, env, false)
	}
	s.waiters = s.waiters[:0]
}

func (s *Service) fail(err error) {
	code := errcode.MapDriverErr(err)
	println("[envsense]", s.cfg.ID, "sample failed:", string(code))
	s.setLink(types.LinkDegraded, code)
	s.failWaiters(code)
}

func (s *Service) failWaiters(code errcode.Code) {
	for _, w := range s.waiters {
		s.replyErr(w, code)
	}
	s.waiters = s.waiters[:0]
}

// setLink publishes the retained capability status when it changes.
func (s *Service) setLink(l types.Link, code errcode.Code) {
	if l == s.link && code == s.code {
		return
	}
	s.link, s.code = l, code
	s.conn.Publish(s.conn.NewMessage(TopicStatus(s.cfg.ID), types.CapabilityStatus{
		Link:  l,
		TSms:  timex.NowMs(),
		Error: string(code),
	}, true))
}

func (s *Service) publishInfo() {
	s.conn.Publish(s.conn.NewMessage(TopicInfo(s.cfg.ID), types.Info{
		SchemaVersion: 1,
		Driver:        "sht3x",
		Detail:        s.info,
	}, true))
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(TopicState(s.cfg.ID), types.ServiceState{
		Level:  level,
		Status: status,
		TSms:   timex.NowMs(),
	}, true))
}
