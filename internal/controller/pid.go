package controller

import (
	"fmt"
	"time"
)

// PID timing and clamping constants.
const (
	// PIDSampleTime is the minimum interval between PID recomputations.
	// Calls inside the window return the held output unchanged.
	PIDSampleTime = time.Second

	pidSampleSeconds = 1.0 // fixed integration step matching PIDSampleTime

	integralLimit = 100.0 // anti-windup clamp on the integral term
	outputMin     = 0.0
	outputMax     = 100.0

	// ActivationThreshold converts the continuous PID output (0–100 %) into
	// a relay decision. There is no hysteresis band of its own; the integral
	// and derivative terms are expected to prevent chatter.
	ActivationThreshold = 50.0
)

// Accepted tuning ranges for SetPIDParams.
const (
	kpMin, kpMax             = 0.0, 1000.0
	kiMin, kiMax             = 0.0, 100.0
	kdMin, kdMax             = 0.0, 10000.0
	setpointMin, setpointMax = -50.0, 100.0
)

// PIDState holds the controller gains and the internal terms that carry over
// between samples.
type PIDState struct {
	Kp         float64
	Ki         float64
	Kd         float64
	Setpoint   float64
	Integral   float64
	LastError  float64
	LastOutput float64
	LastSample Millis
}

// PIDParams carries optional tuning updates. Nil fields keep current values.
type PIDParams struct {
	Kp       *float64
	Ki       *float64
	Kd       *float64
	Setpoint *float64
}

// compute advances the controller by one sample-and-hold step. If less than
// PIDSampleTime has elapsed since the previous sample the held output is
// returned untouched.
func (p *PIDState) compute(temperature float64, now Millis) float64 {
	if now.Sub(p.LastSample) < PIDSampleTime {
		return p.LastOutput
	}

	err := p.Setpoint - temperature

	p.Integral = clamp(p.Integral+err*pidSampleSeconds, -integralLimit, integralLimit)
	derivative := (err - p.LastError) / pidSampleSeconds

	out := clamp(p.Kp*err+p.Ki*p.Integral+p.Kd*derivative, outputMin, outputMax)

	p.LastError = err
	p.LastSample = now
	p.LastOutput = out
	return out
}

// reset zeroes the accumulated terms but keeps the gains, setpoint and sample
// schedule.
func (p *PIDState) reset() {
	p.Integral = 0
	p.LastError = 0
	p.LastOutput = 0
}

// apply validates every provided field against its range before assigning any
// of them, so a rejected update leaves the state untouched.
func (p *PIDState) apply(params PIDParams) error {
	if params.Kp != nil && !within(*params.Kp, kpMin, kpMax) {
		return fmt.Errorf("%w: kp %.2f outside [%g, %g]", ErrValidation, *params.Kp, kpMin, kpMax)
	}
	if params.Ki != nil && !within(*params.Ki, kiMin, kiMax) {
		return fmt.Errorf("%w: ki %.4f outside [%g, %g]", ErrValidation, *params.Ki, kiMin, kiMax)
	}
	if params.Kd != nil && !within(*params.Kd, kdMin, kdMax) {
		return fmt.Errorf("%w: kd %.2f outside [%g, %g]", ErrValidation, *params.Kd, kdMin, kdMax)
	}
	if params.Setpoint != nil && !within(*params.Setpoint, setpointMin, setpointMax) {
		return fmt.Errorf("%w: setpoint %.1f outside [%g, %g]", ErrValidation, *params.Setpoint, setpointMin, setpointMax)
	}

	if params.Kp != nil {
		p.Kp = *params.Kp
	}
	if params.Ki != nil {
		p.Ki = *params.Ki
	}
	if params.Kd != nil {
		p.Kd = *params.Kd
	}
	if params.Setpoint != nil {
		p.Setpoint = *params.Setpoint
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
