package models

// Reading is a single pass over the environment sensor.
type Reading struct {
	TemperatureC float64 `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
	PressureHPa  float64 `json:"pressure"`
}

// Control modes as reported to clients.
const (
	ModeManual     = "MANUAL"
	ModePID        = "PID"
	ModeHysteresis = "AUTO"
)

// Snapshot is the read-only view of the controller published to the display,
// the WebSocket feed, the REST API and the telemetry topic. The JSON field
// names are the wire format consumed by existing dashboards, so they stay flat.
type Snapshot struct {
	TemperatureC float64 `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
	PressureHPa  float64 `json:"pressure"`
	SensorOK     bool    `json:"sensor_ok"`

	Device        string `json:"device"`
	UptimeSeconds uint32 `json:"timestamp"` // device uptime, seconds since boot

	Mode           string  `json:"mode"` // MANUAL | PID | AUTO
	CoolerRunning  bool    `json:"cooler_running"`
	EverStarted    bool    `json:"cooler_ever_started"`
	ManualOverride bool    `json:"manual_override"`
	RuntimeSec     uint32  `json:"cooler_runtime"`     // last continuous run, seconds
	ElapsedSec     uint32  `json:"total_elapsed_time"` // since first start, seconds
	StartC         float64 `json:"start_temp"`
	StopC          float64 `json:"stop_temp"`

	PIDEnabled  bool    `json:"pid_enabled"`
	PIDSetpoint float64 `json:"pid_setpoint"`
	PIDOutput   float64 `json:"pid_output"`
	PIDError    float64 `json:"pid_error"`
	PIDKp       float64 `json:"pid_kp"`
	PIDKi       float64 `json:"pid_ki"`
	PIDKd       float64 `json:"pid_kd"`
}
