// Package command implements the AT-style text protocol the device speaks
// over its serial console and MQTT command topic.
package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"coolerctl/internal/controller"
	"coolerctl/internal/models"
)

// Controller is the slice of the control service the interpreter drives.
type Controller interface {
	SetManual(ctx context.Context, on bool) error
	SetAuto(ctx context.Context) error
	SetPIDEnabled(ctx context.Context, on bool) error
	SetStartThreshold(ctx context.Context, startC float64) error
	SetStopThreshold(ctx context.Context, stopC float64) error
	SetPIDParams(ctx context.Context, p controller.PIDParams) error
	ResetPID(ctx context.Context) error
	Reset(ctx context.Context) error
	PublishTelemetry(ctx context.Context) error
	Snapshot(ctx context.Context) (models.Snapshot, error)
}

// Interpreter parses one command line and executes it against the controller.
// Replies follow the firmware convention: first line "OK" or "ERROR: ...",
// optionally followed by "STATUS: ..." detail lines.
type Interpreter struct {
	ctl Controller
}

func New(ctl Controller) *Interpreter {
	return &Interpreter{ctl: ctl}
}

const prefix = "AT+"

var helpLines = []string{
	"Available AT Commands:",
	"AT+HELP - Show this help",
	"AT+STATUS - Show current status",
	"AT+COOLER=ON - Turn cooler ON manually",
	"AT+COOLER=OFF - Turn cooler OFF manually",
	"AT+COOLER=AUTO - Return to automatic mode",
	"AT+SETSTART=XX.X - Set start temperature (C)",
	"AT+SETSTOP=XX.X - Set stop temperature (C)",
	"AT+GETTHRESH - Get current thresholds",
	"AT+RESET - Reset cooler timing",
	"AT+DATA - Get current sensor data",
	"AT+PID=ON - Enable PID control mode",
	"AT+PID=OFF - Disable PID control mode",
	"AT+PIDSET=XX.X - Set PID setpoint temperature",
	"AT+PIDKP=XX.X - Set PID Kp parameter",
	"AT+PIDKI=XX.X - Set PID Ki parameter",
	"AT+PIDKD=XX.X - Set PID Kd parameter",
	"AT+PIDGET - Get all PID parameters",
	"AT+PIDRESET - Reset PID integral and derivative",
}

// Execute runs one command line and returns the reply lines.
func (i *Interpreter) Execute(ctx context.Context, line string) []string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) {
		return errorf("Commands must start with AT+")
	}
	cmd := line[len(prefix):]

	switch {
	case cmd == "HELP":
		return append([]string{"OK"}, helpLines...)
	case cmd == "STATUS":
		return i.status(ctx)
	case strings.HasPrefix(cmd, "COOLER="):
		return i.cooler(ctx, cmd[len("COOLER="):])
	case strings.HasPrefix(cmd, "SETSTART="):
		return i.setStart(ctx, cmd[len("SETSTART="):])
	case strings.HasPrefix(cmd, "SETSTOP="):
		return i.setStop(ctx, cmd[len("SETSTOP="):])
	case cmd == "GETTHRESH":
		return i.thresholds(ctx)
	case cmd == "RESET":
		if err := i.ctl.Reset(ctx); err != nil {
			return errorf(err.Error())
		}
		return ok("Cooler system reset")
	case cmd == "DATA":
		return i.data(ctx)
	case strings.HasPrefix(cmd, "PID="):
		return i.pidMode(ctx, cmd[len("PID="):])
	case strings.HasPrefix(cmd, "PIDSET="):
		return i.pidParam(ctx, cmd[len("PIDSET="):], "setpoint",
			func(v float64) controller.PIDParams { return controller.PIDParams{Setpoint: &v} },
			"Invalid setpoint. Use -50 to 100C")
	case strings.HasPrefix(cmd, "PIDKP="):
		return i.pidParam(ctx, cmd[len("PIDKP="):], "Kp",
			func(v float64) controller.PIDParams { return controller.PIDParams{Kp: &v} },
			"Invalid Kp value. Use 0-1000")
	case strings.HasPrefix(cmd, "PIDKI="):
		return i.pidParam(ctx, cmd[len("PIDKI="):], "Ki",
			func(v float64) controller.PIDParams { return controller.PIDParams{Ki: &v} },
			"Invalid Ki value. Use 0-100")
	case strings.HasPrefix(cmd, "PIDKD="):
		return i.pidParam(ctx, cmd[len("PIDKD="):], "Kd",
			func(v float64) controller.PIDParams { return controller.PIDParams{Kd: &v} },
			"Invalid Kd value. Use 0-10000")
	case cmd == "PIDGET":
		return i.pidGet(ctx)
	case cmd == "PIDRESET":
		if err := i.ctl.ResetPID(ctx); err != nil {
			return errorf(err.Error())
		}
		return ok("PID parameters reset")
	default:
		return errorf("Unknown command. Use AT+HELP for available commands")
	}
}

func (i *Interpreter) status(ctx context.Context) []string {
	snap, err := i.ctl.Snapshot(ctx)
	if err != nil {
		return errorf(err.Error())
	}
	out := []string{
		"OK",
		fmt.Sprintf("STATUS: Device: %s, Uptime: %ds", snap.Device, snap.UptimeSeconds),
		fmt.Sprintf("STATUS: Cooler: %s, Mode: %s", onOff(snap.CoolerRunning), snap.Mode),
	}
	if snap.PIDEnabled {
		out = append(out, fmt.Sprintf("STATUS: PID Setpoint: %.2fC, Output: %.2f%%", snap.PIDSetpoint, snap.PIDOutput))
	}
	if snap.EverStarted {
		out = append(out, fmt.Sprintf("STATUS: Runtime: %ds, Elapsed: %ds", snap.RuntimeSec, snap.ElapsedSec))
	}
	return out
}

func (i *Interpreter) cooler(ctx context.Context, value string) []string {
	switch value {
	case "ON":
		if err := i.ctl.SetManual(ctx, true); err != nil {
			return errorf(err.Error())
		}
		return ok("Cooler turned ON manually")
	case "OFF":
		if err := i.ctl.SetManual(ctx, false); err != nil {
			return errorf(err.Error())
		}
		return ok("Cooler turned OFF manually")
	case "AUTO":
		if err := i.ctl.SetAuto(ctx); err != nil {
			return errorf(err.Error())
		}
		return ok("Cooler returned to automatic mode")
	default:
		return errorf("Invalid cooler command. Use ON, OFF, or AUTO")
	}
}

func (i *Interpreter) setStart(ctx context.Context, value string) []string {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errorf("Invalid temperature. Use 0-100C")
	}
	if err := i.ctl.SetStartThreshold(ctx, v); err != nil {
		return errorf("Invalid temperature. Use 0-100C")
	}
	return ok(fmt.Sprintf("Start temperature set to %.2fC", v))
}

func (i *Interpreter) setStop(ctx context.Context, value string) []string {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errorf("Invalid temperature. Use -20 to 50C")
	}
	if err := i.ctl.SetStopThreshold(ctx, v); err != nil {
		return errorf("Invalid temperature. Use -20 to 50C")
	}
	return ok(fmt.Sprintf("Stop temperature set to %.2fC", v))
}

func (i *Interpreter) thresholds(ctx context.Context) []string {
	snap, err := i.ctl.Snapshot(ctx)
	if err != nil {
		return errorf(err.Error())
	}
	return []string{
		"OK",
		fmt.Sprintf("STATUS: Start temperature: %.2fC", snap.StartC),
		fmt.Sprintf("STATUS: Stop temperature: %.2fC", snap.StopC),
	}
}

func (i *Interpreter) data(ctx context.Context) []string {
	snap, err := i.ctl.Snapshot(ctx)
	if err != nil {
		return errorf(err.Error())
	}
	if err := i.ctl.PublishTelemetry(ctx); err != nil {
		return errorf(err.Error())
	}
	return []string{
		"OK",
		fmt.Sprintf("STATUS: Temperature: %.2fC, Humidity: %.2f%%, Pressure: %.2f hPa",
			snap.TemperatureC, snap.HumidityPct, snap.PressureHPa),
	}
}

func (i *Interpreter) pidMode(ctx context.Context, value string) []string {
	switch value {
	case "ON":
		if err := i.ctl.SetPIDEnabled(ctx, true); err != nil {
			return errorf(err.Error())
		}
		return ok("PID control mode ENABLED")
	case "OFF":
		if err := i.ctl.SetPIDEnabled(ctx, false); err != nil {
			return errorf(err.Error())
		}
		return ok("PID control mode DISABLED")
	default:
		return errorf("Invalid PID command. Use ON or OFF")
	}
}

func (i *Interpreter) pidParam(ctx context.Context, value, name string, build func(float64) controller.PIDParams, rangeMsg string) []string {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errorf(rangeMsg)
	}
	if err := i.ctl.SetPIDParams(ctx, build(v)); err != nil {
		return errorf(rangeMsg)
	}
	return ok(fmt.Sprintf("PID %s set to %.2f", name, v))
}

func (i *Interpreter) pidGet(ctx context.Context) []string {
	snap, err := i.ctl.Snapshot(ctx)
	if err != nil {
		return errorf(err.Error())
	}
	return []string{
		"OK",
		"STATUS: PID Enabled: " + yesNo(snap.PIDEnabled),
		fmt.Sprintf("STATUS: PID Setpoint: %.2fC", snap.PIDSetpoint),
		fmt.Sprintf("STATUS: PID Kp: %.2f", snap.PIDKp),
		fmt.Sprintf("STATUS: PID Ki: %.4f", snap.PIDKi),
		fmt.Sprintf("STATUS: PID Kd: %.2f", snap.PIDKd),
		fmt.Sprintf("STATUS: PID Output: %.2f%%", snap.PIDOutput),
		fmt.Sprintf("STATUS: PID Error: %.2fC", snap.PIDError),
	}
}

func ok(status string) []string {
	return []string{"OK", "STATUS: " + status}
}

func errorf(msg string) []string {
	return []string{"ERROR: " + msg}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
