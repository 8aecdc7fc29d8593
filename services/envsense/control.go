package envsense

import (
	"time"

	"sht3x-go/bus"
	"sht3x-go/drivers/sht3x"
	"sht3x-go/errcode"
	"sht3x-go/types"
)

// handleControl serves sht3x/<id>/control/<verb>. Only "read" may overlap
// an in-flight measurement; other verbs get Busy until it completes.
func (s *Service) handleControl(m *bus.Message) {
	verb, _ := m.Topic.At(m.Topic.Len() - 1).(string)
	if s.pending && verb != "read" {
		s.replyErr(m, errcode.Busy)
		return
	}
	switch verb {
	case "read":
		if m.CanReply() {
			s.waiters = append(s.waiters, m)
		}
		s.trigger()

	case "status":
		st, err := s.dev.Status()
		if err != nil {
			s.replyErr(m, errcode.MapDriverErr(err))
			return
		}
		v := sensorStatus(st)
		s.conn.Publish(s.conn.NewMessage(TopicRegister(s.cfg.ID), v, true))
		s.conn.Reply(m, v, false)

	case "clear_status":
		s.replyResult(m, s.dev.ClearStatus())

	case "set_power_mode":
		p, ok := payload[types.PowerModeSet](m)
		if !ok {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		mode, ok := sht3x.ParsePowerMode(p.Mode)
		if !ok {
			s.replyErr(m, errcode.InvalidParams)
			return
		}
		s.dev.SetPowerMode(mode)
		s.info.Mode = mode.String()
		s.publishInfo()
		s.replyOK(m)

	case "get_alert":
		p, ok := payload[types.AlertGet](m)
		if !ok {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		t, ok := sht3x.ParseAlertThreshold(p.Threshold)
		if !ok {
			s.replyErr(m, errcode.InvalidParams)
			return
		}
		l, err := s.dev.AlertThreshold(t)
		if err != nil {
			s.replyErr(m, errcode.MapDriverErr(err))
			return
		}
		s.conn.Reply(m, types.AlertLimits{
			Threshold: t.String(),
			DeciRH:    l.HumidityDeciRH,
			DeciC:     l.TemperatureDeciC,
		}, false)

	case "set_alert":
		p, ok := payload[types.AlertLimits](m)
		if !ok {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		t, ok := sht3x.ParseAlertThreshold(p.Threshold)
		if !ok || p.DeciRH > 1000 || p.DeciC < -450 || p.DeciC > 1300 {
			s.replyErr(m, errcode.InvalidParams)
			return
		}
		l := sht3x.AlertLimit{HumidityDeciRH: p.DeciRH, TemperatureDeciC: p.DeciC}
		s.replyResult(m, s.dev.SetAlertThreshold(t, l))

	case "serial":
		sn, err := s.dev.ReadSerial()
		if err != nil {
			s.replyErr(m, errcode.MapDriverErr(err))
			return
		}
		s.info.Serial = sn
		s.conn.Reply(m, types.SerialValue{Serial: sn}, false)

	case "reset":
		if err := s.dev.SoftReset(); err != nil {
			s.replyErr(m, errcode.MapDriverErr(err))
			return
		}
		time.Sleep(resetSettle)
		s.applySettings()
		s.replyOK(m)

	case "heater":
		p, ok := payload[types.HeaterSet](m)
		if !ok {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		s.replyResult(m, s.dev.SetHeater(p.On))

	default:
		s.replyErr(m, errcode.Unsupported)
	}
}

func sensorStatus(st sht3x.Status) types.SensorStatus {
	return types.SensorStatus{
		Word:             uint16(st),
		AlertPending:     st.AlertPending(),
		HeaterOn:         st.HeaterOn(),
		HumidityAlert:    st.HumidityAlert(),
		TemperatureAlert: st.TemperatureAlert(),
		ResetDetected:    st.ResetDetected(),
		CommandFailed:    st.CommandFailed(),
		LastCRCFailed:    st.LastCRCFailed(),
	}
}

// payload accepts T or *T.
func payload[T any](m *bus.Message) (T, bool) {
	switch v := m.Payload.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

func (s *Service) replyResult(m *bus.Message, err error) {
	if err != nil {
		s.replyErr(m, errcode.MapDriverErr(err))
		return
	}
	s.replyOK(m)
}

func (s *Service) replyOK(m *bus.Message) {
	if m.CanReply() {
		s.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}
