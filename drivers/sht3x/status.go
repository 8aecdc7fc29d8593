package sht3x

// Status is the sensor status register.
type Status uint16

const (
	statusAlertPending  Status = 1 << 15
	statusHeaterOn      Status = 1 << 13
	statusRHAlert       Status = 1 << 11
	statusTAlert        Status = 1 << 10
	statusResetDetected Status = 1 << 4
	statusCommandFailed Status = 1 << 1
	statusLastCRCFailed Status = 1 << 0
)

func (s Status) AlertPending() bool     { return s&statusAlertPending != 0 }
func (s Status) HeaterOn() bool         { return s&statusHeaterOn != 0 }
func (s Status) HumidityAlert() bool    { return s&statusRHAlert != 0 }
func (s Status) TemperatureAlert() bool { return s&statusTAlert != 0 }
func (s Status) ResetDetected() bool    { return s&statusResetDetected != 0 }
func (s Status) CommandFailed() bool    { return s&statusCommandFailed != 0 }

// LastCRCFailed reports that the checksum of the last write transfer failed.
func (s Status) LastCRCFailed() bool { return s&statusLastCRCFailed != 0 }
