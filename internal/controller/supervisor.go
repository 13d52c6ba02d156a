package controller

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors. Handlers and the command parser distinguish rejected
// input (ErrValidation) from a failed sensor pass (ErrSensorReading); neither
// is ever fatal and neither mutates state.
var (
	ErrValidation    = errors.New("validation failed")
	ErrSensorReading = errors.New("sensor reading rejected")
)

// BME280 operating range. Readings outside it are treated as a sensor fault,
// never as a control input.
const (
	TempPlausibleMinC = -40.0
	TempPlausibleMaxC = 85.0
)

// Accepted hysteresis threshold ranges: start in (0, 100), stop in [-20, 50).
const (
	startTempMin = 0.0
	startTempMax = 100.0
	stopTempMin  = -20.0
	stopTempMax  = 50.0
)

// Defaults from the shipped firmware tuning.
const (
	DefaultStartC    = 4.5
	DefaultStopC     = 3.5
	DefaultKp        = 8.66
	DefaultKi        = 0.0121
	DefaultKd        = 774.21
	DefaultSetpointC = 4.0
)

// Mode is the single control authority for a cycle. Manual strictly
// dominates PID, which dominates hysteresis.
type Mode int

const (
	ModeHysteresis Mode = iota
	ModePID
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "MANUAL"
	case ModePID:
		return "PID"
	default:
		return "AUTO"
	}
}

// State is the complete cooler state. It is owned by a Supervisor and mutated
// only through its operations; everything else sees value copies.
type State struct {
	Running        bool
	EverStarted    bool
	ManualOverride bool
	PIDEnabled     bool

	// StartedAt is valid only while EverStarted is set.
	StartedAt    Millis
	Runtime      time.Duration // duration of the current or last continuous run
	TotalElapsed time.Duration // wall time since first start

	StartC float64
	StopC  float64

	PID PIDState
}

// Mode derives the control authority from the override flags.
func (s State) Mode() Mode {
	switch {
	case s.ManualOverride:
		return ModeManual
	case s.PIDEnabled:
		return ModePID
	default:
		return ModeHysteresis
	}
}

// Config carries the initial thresholds and PID tuning.
type Config struct {
	StartC    float64
	StopC     float64
	Kp        float64
	Ki        float64
	Kd        float64
	SetpointC float64
}

// DefaultConfig returns the firmware default tuning.
func DefaultConfig() Config {
	return Config{
		StartC:    DefaultStartC,
		StopC:     DefaultStopC,
		Kp:        DefaultKp,
		Ki:        DefaultKi,
		Kd:        DefaultKd,
		SetpointC: DefaultSetpointC,
	}
}

// Decision is the relay command produced by one control cycle.
type Decision struct {
	Energize bool
	Changed  bool
}

// Supervisor owns the cooler state machine. It performs no I/O itself: the
// only observable effects of its operations are the returned relay decision
// and the updated state snapshot. It is not safe for concurrent use; the
// control loop serializes access.
type Supervisor struct {
	initial Config
	state   State
}

func New(cfg Config) *Supervisor {
	s := &Supervisor{initial: cfg}
	s.state = initialState(cfg)
	return s
}

func initialState(cfg Config) State {
	return State{
		StartC: cfg.StartC,
		StopC:  cfg.StopC,
		PID: PIDState{
			Kp:       cfg.Kp,
			Ki:       cfg.Ki,
			Kd:       cfg.Kd,
			Setpoint: cfg.SetpointC,
		},
	}
}

// Snapshot returns a value copy of the current state.
func (s *Supervisor) Snapshot() State {
	return s.state
}

// Evaluate runs one control cycle for the given temperature reading.
// An implausible reading skips the mode decision, holds the previous relay
// state and returns ErrSensorReading; runtime accounting still advances.
func (s *Supervisor) Evaluate(temperature float64, now Millis) (Decision, error) {
	if math.IsNaN(temperature) || temperature < TempPlausibleMinC || temperature > TempPlausibleMaxC {
		s.updateRuntime(now)
		return Decision{Energize: s.state.Running},
			fmt.Errorf("%w: %.1f°C outside [%g, %g]", ErrSensorReading, temperature, TempPlausibleMinC, TempPlausibleMaxC)
	}

	var changed bool
	switch s.state.Mode() {
	case ModeManual:
		// Operator holds the relay; nothing to decide.

	case ModePID:
		out := s.state.PID.compute(temperature, now)
		switch {
		case out > ActivationThreshold && !s.state.Running:
			s.start(now)
			changed = true
		case out <= ActivationThreshold && s.state.Running:
			s.state.Running = false
			changed = true
		}

	case ModeHysteresis:
		switch {
		case !s.state.Running && temperature >= s.state.StartC:
			s.start(now)
			changed = true
		case s.state.Running && temperature <= s.state.StopC:
			s.state.Running = false
			changed = true
		}
		// Readings strictly inside the dead-band leave the relay as is.
	}

	s.updateRuntime(now)
	return Decision{Energize: s.state.Running, Changed: changed}, nil
}

// ComputePID exposes one PID step without touching the relay decision,
// for diagnostics and tests.
func (s *Supervisor) ComputePID(temperature float64, now Millis) float64 {
	return s.state.PID.compute(temperature, now)
}

// SetManual takes manual control of the relay. If the requested state differs
// from the current one the relay toggles immediately. Reports whether the
// relay state changed.
func (s *Supervisor) SetManual(on bool, now Millis) bool {
	s.state.ManualOverride = true
	if on == s.state.Running {
		return false
	}
	if on {
		s.start(now)
	} else {
		s.state.Running = false
	}
	s.updateRuntime(now)
	return true
}

// SetAuto clears the manual override. Control authority reverts to PID or
// hysteresis depending on the PID flag.
func (s *Supervisor) SetAuto() {
	s.state.ManualOverride = false
}

// SetPIDEnabled selects or deselects PID mode. Enabling PID also clears the
// manual override: an explicit PID request takes authority back from the
// operator.
func (s *Supervisor) SetPIDEnabled(on bool) {
	s.state.PIDEnabled = on
	if on {
		s.state.ManualOverride = false
	}
}

// SetThresholds updates both hysteresis bounds. Either value out of range
// rejects the whole update with no state change.
func (s *Supervisor) SetThresholds(startC, stopC float64) error {
	if err := validateStart(startC); err != nil {
		return err
	}
	if err := validateStop(stopC); err != nil {
		return err
	}
	s.state.StartC = startC
	s.state.StopC = stopC
	return nil
}

// SetStartThreshold updates only the start bound.
func (s *Supervisor) SetStartThreshold(startC float64) error {
	if err := validateStart(startC); err != nil {
		return err
	}
	s.state.StartC = startC
	return nil
}

// SetStopThreshold updates only the stop bound.
func (s *Supervisor) SetStopThreshold(stopC float64) error {
	if err := validateStop(stopC); err != nil {
		return err
	}
	s.state.StopC = stopC
	return nil
}

// SetPIDParams updates any provided gains and the setpoint, all-or-nothing.
func (s *Supervisor) SetPIDParams(p PIDParams) error {
	return s.state.PID.apply(p)
}

// ResetPID zeroes the accumulated PID terms. Relay state and runtime
// accounting are untouched.
func (s *Supervisor) ResetPID() {
	s.state.PID.reset()
}

// Reset returns the cooler to its initial state. The caller must de-energize
// the relay.
func (s *Supervisor) Reset() {
	s.state = initialState(s.initial)
}

func (s *Supervisor) start(now Millis) {
	s.state.Running = true
	if !s.state.EverStarted {
		s.state.StartedAt = now
		s.state.EverStarted = true
	}
}

// updateRuntime recomputes elapsed time since first start. While running, the
// current run duration tracks it; once stopped, Runtime retains the last
// running value.
func (s *Supervisor) updateRuntime(now Millis) {
	if !s.state.EverStarted {
		return
	}
	s.state.TotalElapsed = now.Sub(s.state.StartedAt)
	if s.state.Running {
		s.state.Runtime = s.state.TotalElapsed
	}
}

func validateStart(v float64) error {
	if !(v > startTempMin && v < startTempMax) {
		return fmt.Errorf("%w: start temperature %.1f°C outside (%g, %g)", ErrValidation, v, startTempMin, startTempMax)
	}
	return nil
}

func validateStop(v float64) error {
	if !(v >= stopTempMin && v < stopTempMax) {
		return fmt.Errorf("%w: stop temperature %.1f°C outside [%g, %g)", ErrValidation, v, stopTempMin, stopTempMax)
	}
	return nil
}
