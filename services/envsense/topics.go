package envsense

import "sht3x-go/bus"

// Topics live under sht3x/<id>/.

func TopicState(id string) bus.Topic  { return bus.T("sht3x", id, "state") }
func TopicInfo(id string) bus.Topic   { return bus.T("sht3x", id, "info") }
func TopicStatus(id string) bus.Topic { return bus.T("sht3x", id, "status") }

// TopicValue is sht3x/<id>/<kind>/value for kind temperature, humidity or env.
func TopicValue(id, kind string) bus.Topic { return bus.T("sht3x", id, kind, "value") }

// TopicRegister carries the last decoded status register.
func TopicRegister(id string) bus.Topic { return bus.T("sht3x", id, "register", "status") }

// TopicConfig is config/sht3x/<id>; publishing a Config there reconfigures
// a running service.
func TopicConfig(id string) bus.Topic { return bus.T("config", "sht3x", id) }

// TopicControl is sht3x/<id>/control/<verb>.
func TopicControl(id, verb string) bus.Topic { return bus.T("sht3x", id, "control", verb) }

func ctrlWildcard(id string) bus.Topic { return bus.T("sht3x", id, "control", bus.SingleLevel) }
