package controller

import (
	"errors"
	"math"
	"testing"
	"time"
)

func newTestSupervisor(startC, stopC float64) *Supervisor {
	cfg := DefaultConfig()
	cfg.StartC = startC
	cfg.StopC = stopC
	return New(cfg)
}

func mustEvaluate(t *testing.T, s *Supervisor, temp float64, now Millis) Decision {
	t.Helper()
	d, err := s.Evaluate(temp, now)
	if err != nil {
		t.Fatalf("Evaluate(%.1f, %d): unexpected error: %v", temp, now, err)
	}
	return d
}

func TestEvaluate_HysteresisStartStop(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)

	d := mustEvaluate(t, s, 26.0, 1000)
	if !d.Energize || !d.Changed {
		t.Fatalf("expected start at 26.0°C, got %+v", d)
	}
	if st := s.Snapshot(); !st.Running || !st.EverStarted {
		t.Fatalf("expected Running and EverStarted, got %+v", st)
	}

	d = mustEvaluate(t, s, 3.0, 2000)
	if d.Energize || !d.Changed {
		t.Fatalf("expected stop at 3.0°C, got %+v", d)
	}
	if st := s.Snapshot(); st.Running {
		t.Fatalf("expected stopped")
	}
}

func TestEvaluate_DeadBandHoldsState(t *testing.T) {
	for _, running := range []bool{false, true} {
		s := newTestSupervisor(25.0, 3.5)
		now := Millis(0)
		if running {
			now = 1000
			mustEvaluate(t, s, 30.0, now) // drive it on first
		}
		for _, temp := range []float64{3.6, 10.0, 18.2, 24.9} {
			now += 2000
			d := mustEvaluate(t, s, temp, now)
			if d.Energize != running {
				t.Fatalf("dead-band at %.1f°C flipped relay (running=%v)", temp, running)
			}
			if d.Changed {
				t.Fatalf("dead-band at %.1f°C reported a change", temp)
			}
		}
	}
}

func TestEvaluate_ManualDominates(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)

	if changed := s.SetManual(true, 500); !changed {
		t.Fatalf("expected relay change on manual ON")
	}
	// Any temperature, including well below the stop threshold, must not
	// release the relay while the override holds.
	for i, temp := range []float64{-10.0, 2.0, 3.5, 30.0, 80.0} {
		d := mustEvaluate(t, s, temp, Millis(1000*(i+1)))
		if !d.Energize {
			t.Fatalf("manual override lost at %.1f°C", temp)
		}
	}

	if changed := s.SetManual(false, 10000); !changed {
		t.Fatalf("expected relay change on manual OFF")
	}
	if s.Snapshot().Running {
		t.Fatalf("expected stopped after manual OFF")
	}
}

func TestSetManual_SameStateOnlyTakesOverride(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)
	if changed := s.SetManual(false, 100); changed {
		t.Fatalf("manual OFF while already stopped should not report a change")
	}
	st := s.Snapshot()
	if !st.ManualOverride || st.EverStarted {
		t.Fatalf("expected override set without starting, got %+v", st)
	}
}

func TestSetPIDEnabled_ClearsManualOverride(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)
	s.SetManual(true, 100)

	s.SetPIDEnabled(true)
	st := s.Snapshot()
	if st.ManualOverride {
		t.Fatalf("enabling PID should clear the manual override")
	}
	if st.Mode() != ModePID {
		t.Fatalf("expected PID mode, got %v", st.Mode())
	}

	// Disabling PID must not resurrect the override.
	s.SetPIDEnabled(false)
	if got := s.Snapshot().Mode(); got != ModeHysteresis {
		t.Fatalf("expected hysteresis mode, got %v", got)
	}
}

func TestSetAuto_RevertsToPIDWhenEnabled(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)
	s.SetPIDEnabled(true)
	s.SetManual(true, 100)
	if got := s.Snapshot().Mode(); got != ModeManual {
		t.Fatalf("expected manual after override, got %v", got)
	}
	s.SetAuto()
	if got := s.Snapshot().Mode(); got != ModePID {
		t.Fatalf("auto should fall back to PID while enabled, got %v", got)
	}
}

func TestEvaluate_PIDModeSwitchesRelayAtThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kp = 100 // proportional-only, saturates quickly
	cfg.Ki = 0
	cfg.Kd = 0
	cfg.SetpointC = 4.0
	s := New(cfg)
	s.SetPIDEnabled(true)

	// Temperature far above setpoint → negative error → output clamps to 0.
	d := mustEvaluate(t, s, 30.0, 1500)
	if d.Energize {
		t.Fatalf("output at clamp floor must not energize")
	}

	// Temperature far below setpoint → output clamps to 100 > threshold.
	d = mustEvaluate(t, s, -10.0, 3000)
	if !d.Energize || !d.Changed {
		t.Fatalf("saturated output should energize, got %+v", d)
	}

	// Back above setpoint → output drops to 0 → de-energize.
	d = mustEvaluate(t, s, 30.0, 4500)
	if d.Energize || !d.Changed {
		t.Fatalf("expected de-energize, got %+v", d)
	}
}

func TestRuntime_ZeroUntilFirstStart(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)
	for i := 1; i <= 5; i++ {
		mustEvaluate(t, s, 10.0, Millis(2000*i))
	}
	st := s.Snapshot()
	if st.TotalElapsed != 0 || st.Runtime != 0 {
		t.Fatalf("runtime accounting must stay zero before first start, got %+v", st)
	}
}

func TestRuntime_TracksWhileRunningAndHoldsAfterStop(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)

	mustEvaluate(t, s, 26.0, 1000) // start at t=1s
	mustEvaluate(t, s, 26.0, 6000)
	st := s.Snapshot()
	if st.TotalElapsed != 5*time.Second || st.Runtime != 5*time.Second {
		t.Fatalf("expected 5s/5s, got elapsed=%v runtime=%v", st.TotalElapsed, st.Runtime)
	}

	mustEvaluate(t, s, 3.0, 9000) // stop at t=9s
	mustEvaluate(t, s, 10.0, 20000)
	st = s.Snapshot()
	if st.TotalElapsed != 19*time.Second {
		t.Fatalf("expected elapsed 19s, got %v", st.TotalElapsed)
	}
	// Runtime keeps the value from the moment the relay was last energized.
	if st.Runtime != 8*time.Second {
		t.Fatalf("expected runtime held at 8s, got %v", st.Runtime)
	}
	if st.Runtime > st.TotalElapsed {
		t.Fatalf("runtime %v exceeds elapsed %v", st.Runtime, st.TotalElapsed)
	}

	// A second run resumes tracking TotalElapsed, not a per-run counter.
	mustEvaluate(t, s, 26.0, 30000)
	st = s.Snapshot()
	if st.Runtime != 29*time.Second {
		t.Fatalf("expected runtime 29s after restart, got %v", st.Runtime)
	}
}

func TestRuntime_SurvivesCounterWrap(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)

	startAt := Millis(math.MaxUint32 - 999) // 1s before wrap
	mustEvaluate(t, s, 26.0, startAt)

	// 6s later the counter has wrapped around zero.
	mustEvaluate(t, s, 26.0, Millis(5000))
	st := s.Snapshot()
	if st.TotalElapsed != 6*time.Second {
		t.Fatalf("wrap-safe elapsed: got %v, want 6s", st.TotalElapsed)
	}
}

func TestEvaluate_ImplausibleReadingHoldsRelay(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)
	mustEvaluate(t, s, 26.0, 1000) // running

	for _, temp := range []float64{math.NaN(), -80.0, 150.0} {
		d, err := s.Evaluate(temp, 3000)
		if !errors.Is(err, ErrSensorReading) {
			t.Fatalf("reading %v: expected ErrSensorReading, got %v", temp, err)
		}
		if !d.Energize || d.Changed {
			t.Fatalf("reading %v: relay must hold, got %+v", temp, d)
		}
	}
	// Accounting still advanced during the faulty cycles.
	if st := s.Snapshot(); st.TotalElapsed != 2*time.Second {
		t.Fatalf("expected elapsed 2s across faulty cycles, got %v", st.TotalElapsed)
	}
}

func TestSetThresholds_RejectsOutOfRange(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)

	cases := []struct {
		name        string
		start, stop float64
	}{
		{"start too high", 150, 3.5},
		{"start zero", 0, 3.5},
		{"stop too low", 25, -30},
		{"stop too high", 25, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.SetThresholds(tc.start, tc.stop)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			st := s.Snapshot()
			if st.StartC != 25.0 || st.StopC != 3.5 {
				t.Fatalf("rejected update must not change state, got start=%.1f stop=%.1f", st.StartC, st.StopC)
			}
		})
	}

	if err := s.SetThresholds(30.0, 5.0); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
	if st := s.Snapshot(); st.StartC != 30.0 || st.StopC != 5.0 {
		t.Fatalf("thresholds not applied: %+v", st)
	}
}

func TestSetPIDParams_PartialUpdateAndRejection(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)

	kp := 12.5
	if err := s.SetPIDParams(PIDParams{Kp: &kp}); err != nil {
		t.Fatalf("partial update rejected: %v", err)
	}
	st := s.Snapshot()
	if st.PID.Kp != 12.5 || st.PID.Ki != DefaultKi {
		t.Fatalf("expected kp updated and ki untouched, got %+v", st.PID)
	}

	// One bad field rejects the whole update.
	ki := 5.0
	badKd := 20000.0
	err := s.SetPIDParams(PIDParams{Ki: &ki, Kd: &badKd})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if st := s.Snapshot(); st.PID.Ki != DefaultKi {
		t.Fatalf("rejected update leaked a field: ki=%.4f", st.PID.Ki)
	}
}

func TestReset_RestoresInitialState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartC = 25.0
	cfg.StopC = 3.5
	s := New(cfg)

	s.SetManual(true, 1000)
	s.SetPIDEnabled(true)
	mustEvaluate(t, s, -10.0, 3000)
	_ = s.SetThresholds(40.0, 10.0)

	s.Reset()
	st := s.Snapshot()
	if st.Running || st.EverStarted || st.ManualOverride || st.PIDEnabled {
		t.Fatalf("flags survived reset: %+v", st)
	}
	if st.TotalElapsed != 0 || st.Runtime != 0 {
		t.Fatalf("timers survived reset: %+v", st)
	}
	if st.StartC != 25.0 || st.StopC != 3.5 {
		t.Fatalf("thresholds not restored to initial values: %+v", st)
	}
	if st.PID.Integral != 0 || st.PID.LastOutput != 0 {
		t.Fatalf("PID terms survived reset: %+v", st.PID)
	}
}

func TestResetPID_LeavesRelayAlone(t *testing.T) {
	s := newTestSupervisor(25.0, 3.5)
	mustEvaluate(t, s, 26.0, 1000)
	s.SetPIDEnabled(true)
	s.ComputePID(2.0, 3000)

	s.ResetPID()
	st := s.Snapshot()
	if st.PID.Integral != 0 || st.PID.LastError != 0 || st.PID.LastOutput != 0 {
		t.Fatalf("PID terms not cleared: %+v", st.PID)
	}
	if !st.Running || !st.EverStarted {
		t.Fatalf("ResetPID must not touch relay state: %+v", st)
	}
}

// Replaying the same command and reading sequence against a fresh supervisor
// must land on the same final state.
func TestReplay_Deterministic(t *testing.T) {
	run := func() State {
		s := newTestSupervisor(25.0, 3.5)
		mustEvaluate(t, s, 26.0, 1000)
		s.SetManual(false, 2500)
		mustEvaluate(t, s, 30.0, 3000)
		s.SetAuto()
		s.SetPIDEnabled(true)
		mustEvaluate(t, s, -5.0, 5000)
		_ = s.SetThresholds(20.0, 2.0)
		mustEvaluate(t, s, 10.0, 7000)
		return s.Snapshot()
	}

	first, second := run(), run()
	if first != second {
		t.Fatalf("replay diverged:\n first=%+v\nsecond=%+v", first, second)
	}
}

func TestMillis_SubWrapArithmetic(t *testing.T) {
	cases := []struct {
		now, earlier Millis
		want         time.Duration
	}{
		{5000, 1000, 4 * time.Second},
		{1000, 1000, 0},
		{500, math.MaxUint32 - 499, time.Second}, // across the wrap
	}
	for _, tc := range cases {
		if got := tc.now.Sub(tc.earlier); got != tc.want {
			t.Fatalf("Sub(%d, %d) = %v, want %v", tc.now, tc.earlier, got, tc.want)
		}
	}
}
