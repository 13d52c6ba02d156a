package command

import (
	"context"
	"strings"
	"testing"

	"coolerctl/internal/controller"
	"coolerctl/internal/models"
)

// fakeController records the last call and returns a canned snapshot.
type fakeController struct {
	lastCall string
	manualOn bool
	pidOn    bool
	startC   float64
	stopC    float64
	params   controller.PIDParams
	err      error
	snap     models.Snapshot
}

func (f *fakeController) SetManual(ctx context.Context, on bool) error {
	f.lastCall, f.manualOn = "SetManual", on
	return f.err
}

func (f *fakeController) SetAuto(ctx context.Context) error {
	f.lastCall = "SetAuto"
	return f.err
}

func (f *fakeController) SetPIDEnabled(ctx context.Context, on bool) error {
	f.lastCall, f.pidOn = "SetPIDEnabled", on
	return f.err
}

func (f *fakeController) SetStartThreshold(ctx context.Context, startC float64) error {
	f.lastCall, f.startC = "SetStartThreshold", startC
	return f.err
}

func (f *fakeController) SetStopThreshold(ctx context.Context, stopC float64) error {
	f.lastCall, f.stopC = "SetStopThreshold", stopC
	return f.err
}

func (f *fakeController) SetPIDParams(ctx context.Context, p controller.PIDParams) error {
	f.lastCall, f.params = "SetPIDParams", p
	return f.err
}

func (f *fakeController) ResetPID(ctx context.Context) error {
	f.lastCall = "ResetPID"
	return f.err
}

func (f *fakeController) Reset(ctx context.Context) error {
	f.lastCall = "Reset"
	return f.err
}

func (f *fakeController) PublishTelemetry(ctx context.Context) error {
	f.lastCall = "PublishTelemetry"
	return f.err
}

func (f *fakeController) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return f.snap, f.err
}

func run(t *testing.T, f *fakeController, line string) []string {
	t.Helper()
	out := New(f).Execute(context.Background(), line)
	if len(out) == 0 {
		t.Fatalf("empty reply for %q", line)
	}
	return out
}

func TestExecute_RequiresATPrefix(t *testing.T) {
	out := run(t, &fakeController{}, "COOLER=ON")
	if out[0] != "ERROR: Commands must start with AT+" {
		t.Fatalf("got %q", out[0])
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	out := run(t, &fakeController{}, "AT+BOGUS")
	if !strings.HasPrefix(out[0], "ERROR: Unknown command") {
		t.Fatalf("got %q", out[0])
	}
}

func TestExecute_CoolerCommands(t *testing.T) {
	tests := []struct {
		line     string
		call     string
		manualOn bool
	}{
		{"AT+COOLER=ON", "SetManual", true},
		{"AT+COOLER=OFF", "SetManual", false},
		{"AT+COOLER=AUTO", "SetAuto", false},
	}
	for _, tc := range tests {
		f := &fakeController{}
		out := run(t, f, tc.line)
		if out[0] != "OK" {
			t.Fatalf("%s: got %q", tc.line, out[0])
		}
		if f.lastCall != tc.call {
			t.Fatalf("%s: dispatched to %s", tc.line, f.lastCall)
		}
		if tc.call == "SetManual" && f.manualOn != tc.manualOn {
			t.Fatalf("%s: manual on=%v", tc.line, f.manualOn)
		}
	}
}

func TestExecute_CoolerInvalidValue(t *testing.T) {
	f := &fakeController{}
	out := run(t, f, "AT+COOLER=MAYBE")
	if out[0] != "ERROR: Invalid cooler command. Use ON, OFF, or AUTO" {
		t.Fatalf("got %q", out[0])
	}
	if f.lastCall != "" {
		t.Fatalf("controller must not be called: %s", f.lastCall)
	}
}

func TestExecute_SetStart(t *testing.T) {
	f := &fakeController{}
	out := run(t, f, "AT+SETSTART=5.5")
	if out[0] != "OK" || f.startC != 5.5 {
		t.Fatalf("out=%v startC=%v", out, f.startC)
	}

	f = &fakeController{err: controller.ErrValidation}
	out = run(t, f, "AT+SETSTART=150")
	if out[0] != "ERROR: Invalid temperature. Use 0-100C" {
		t.Fatalf("got %q", out[0])
	}

	out = run(t, &fakeController{}, "AT+SETSTART=abc")
	if !strings.HasPrefix(out[0], "ERROR:") {
		t.Fatalf("got %q", out[0])
	}
}

func TestExecute_SetStop(t *testing.T) {
	f := &fakeController{}
	out := run(t, f, "AT+SETSTOP=2.0")
	if out[0] != "OK" || f.stopC != 2.0 {
		t.Fatalf("out=%v stopC=%v", out, f.stopC)
	}

	f = &fakeController{err: controller.ErrValidation}
	out = run(t, f, "AT+SETSTOP=90")
	if out[0] != "ERROR: Invalid temperature. Use -20 to 50C" {
		t.Fatalf("got %q", out[0])
	}
}

func TestExecute_PIDTuningCommands(t *testing.T) {
	tests := []struct {
		line  string
		check func(p controller.PIDParams) bool
	}{
		{"AT+PIDSET=4.5", func(p controller.PIDParams) bool { return p.Setpoint != nil && *p.Setpoint == 4.5 }},
		{"AT+PIDKP=10", func(p controller.PIDParams) bool { return p.Kp != nil && *p.Kp == 10 }},
		{"AT+PIDKI=0.5", func(p controller.PIDParams) bool { return p.Ki != nil && *p.Ki == 0.5 }},
		{"AT+PIDKD=500", func(p controller.PIDParams) bool { return p.Kd != nil && *p.Kd == 500 }},
	}
	for _, tc := range tests {
		f := &fakeController{}
		out := run(t, f, tc.line)
		if out[0] != "OK" {
			t.Fatalf("%s: got %q", tc.line, out[0])
		}
		if !tc.check(f.params) {
			t.Fatalf("%s: params %+v", tc.line, f.params)
		}
	}
}

func TestExecute_PIDModeAndReset(t *testing.T) {
	f := &fakeController{}
	out := run(t, f, "AT+PID=ON")
	if out[0] != "OK" || !f.pidOn {
		t.Fatalf("out=%v pidOn=%v", out, f.pidOn)
	}

	out = run(t, f, "AT+PID=OFF")
	if out[0] != "OK" || f.pidOn {
		t.Fatalf("out=%v pidOn=%v", out, f.pidOn)
	}

	out = run(t, f, "AT+PIDRESET")
	if out[0] != "OK" || f.lastCall != "ResetPID" {
		t.Fatalf("out=%v call=%s", out, f.lastCall)
	}

	out = run(t, f, "AT+PID=HALF")
	if out[0] != "ERROR: Invalid PID command. Use ON or OFF" {
		t.Fatalf("got %q", out[0])
	}
}

func TestExecute_Status(t *testing.T) {
	f := &fakeController{snap: models.Snapshot{
		Device:        "cooler-1",
		UptimeSeconds: 120,
		CoolerRunning: true,
		EverStarted:   true,
		Mode:          models.ModePID,
		PIDEnabled:    true,
		PIDSetpoint:   4.0,
		PIDOutput:     62.5,
		RuntimeSec:    30,
		ElapsedSec:    90,
	}}
	out := run(t, f, "AT+STATUS")
	want := []string{
		"OK",
		"STATUS: Device: cooler-1, Uptime: 120s",
		"STATUS: Cooler: ON, Mode: PID",
		"STATUS: PID Setpoint: 4.00C, Output: 62.50%",
		"STATUS: Runtime: 30s, Elapsed: 90s",
	}
	if len(out) != len(want) {
		t.Fatalf("got %d lines: %v", len(out), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, out[i], want[i])
		}
	}
}

func TestExecute_StatusBeforeFirstStart(t *testing.T) {
	f := &fakeController{snap: models.Snapshot{Device: "cooler-1", Mode: models.ModeHysteresis}}
	out := run(t, f, "AT+STATUS")
	for _, line := range out {
		if strings.Contains(line, "Runtime") {
			t.Fatalf("runtime line shown before first start: %v", out)
		}
	}
}

func TestExecute_GetThresholds(t *testing.T) {
	f := &fakeController{snap: models.Snapshot{StartC: 4.5, StopC: 3.5}}
	out := run(t, f, "AT+GETTHRESH")
	if out[0] != "OK" || out[1] != "STATUS: Start temperature: 4.50C" || out[2] != "STATUS: Stop temperature: 3.50C" {
		t.Fatalf("got %v", out)
	}
}

func TestExecute_DataPublishesTelemetry(t *testing.T) {
	f := &fakeController{snap: models.Snapshot{TemperatureC: 5.25, HumidityPct: 40.5, PressureHPa: 1013.25}}
	out := run(t, f, "AT+DATA")
	if out[0] != "OK" {
		t.Fatalf("got %v", out)
	}
	if f.lastCall != "PublishTelemetry" {
		t.Fatalf("telemetry not published: %s", f.lastCall)
	}
	if out[1] != "STATUS: Temperature: 5.25C, Humidity: 40.50%, Pressure: 1013.25 hPa" {
		t.Fatalf("got %q", out[1])
	}
}

func TestExecute_Reset(t *testing.T) {
	f := &fakeController{}
	out := run(t, f, "AT+RESET")
	if out[0] != "OK" || f.lastCall != "Reset" {
		t.Fatalf("out=%v call=%s", out, f.lastCall)
	}
}

func TestExecute_Help(t *testing.T) {
	out := run(t, &fakeController{}, "AT+HELP")
	if out[0] != "OK" || len(out) < 10 {
		t.Fatalf("help reply too short: %v", out)
	}
}
