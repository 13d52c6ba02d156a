package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"coolerctl/internal/controller"
	"coolerctl/internal/display"
	"coolerctl/internal/logger"
	"coolerctl/internal/models"
	"coolerctl/internal/relay"
	"coolerctl/internal/repository"
	"coolerctl/internal/sensor"
)

// TelemetryPublisher receives a snapshot on the publish cadence and on
// demand. A publish failure is a connectivity concern, never a control one:
// the loop logs it and keeps evaluating.
type TelemetryPublisher interface {
	Publish(snap models.Snapshot) error
}

// DefaultPublishInterval matches the firmware's reporting cadence.
const DefaultPublishInterval = 5 * time.Second

// ControlDeps are the collaborators of the control loop. Display and
// Publisher are optional.
type ControlDeps struct {
	Supervisor   *controller.Supervisor
	Clock        controller.Clock
	Sensor       sensor.Source
	Relay        relay.Actuator
	Display      display.Renderer
	Publisher    TelemetryPublisher
	Log          *logger.Logger
	Device       string
	PublishEvery time.Duration
}

// ControlService owns the supervisor and runs the sampling loop. A single
// mutex serializes control cycles against externally arriving commands, so a
// command is always applied fully between evaluations.
type ControlService struct {
	mu sync.Mutex

	sup          *controller.Supervisor
	clock        controller.Clock
	sensor       sensor.Source
	relay        relay.Actuator
	display      display.Renderer
	publisher    TelemetryPublisher
	events       repository.EventRepo
	log          *logger.Logger
	device       string
	publishEvery time.Duration

	lastReading models.Reading
	sensorOK    bool
	lastPublish controller.Millis
}

func NewControlService(deps ControlDeps, events repository.EventRepo) *ControlService {
	every := deps.PublishEvery
	if every <= 0 {
		every = DefaultPublishInterval
	}
	return &ControlService{
		sup:          deps.Supervisor,
		clock:        deps.Clock,
		sensor:       deps.Sensor,
		relay:        deps.Relay,
		display:      deps.Display,
		publisher:    deps.Publisher,
		events:       events,
		log:          deps.Log,
		device:       deps.Device,
		publishEvery: every,
	}
}

// Run ticks at the given interval until ctx is canceled. One cycle runs to
// completion before the next begins.
func (s *ControlService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.cycle(ctx)
		}
	}
}

// cycle performs one pass: sensor read, relay decision, display repaint,
// telemetry publish when due. All failures are local to the cycle.
func (s *ControlService) cycle(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	reading, err := s.sensor.Read()
	if err != nil {
		// Hold relay state, keep the runtime accounting ticking, retry
		// next cycle.
		s.sensorOK = false
		_, _ = s.sup.Evaluate(math.NaN(), now)
		s.log.Warnw("sensor read failed", "err", err)
		s.appendEvent(ctx, models.EventError, "sensor read failed: "+err.Error(), nil)
	} else {
		s.lastReading = reading
		dec, evalErr := s.sup.Evaluate(reading.TemperatureC, now)
		switch {
		case evalErr != nil:
			s.sensorOK = false
			s.log.Warnw("sensor reading rejected", "temp_c", reading.TemperatureC, "err", evalErr)
			s.appendEvent(ctx, models.EventError, "sensor reading rejected", map[string]any{
				"temp_c": reading.TemperatureC,
			})
		default:
			s.sensorOK = true
			if dec.Changed {
				s.relay.SetEnergized(dec.Energize)
				s.logTransition(ctx, dec.Energize, reading.TemperatureC)
			}
		}
	}

	snap := s.snapshotLocked(now)
	if s.display != nil {
		s.display.Render(snap)
	}
	if s.publisher != nil && now.Sub(s.lastPublish) >= s.publishEvery {
		s.publishLocked(snap, now)
	}
}

// --- Cooler commands ---
// Each takes the loop mutex, so it lands fully before or after a cycle.

func (s *ControlService) SetManual(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.sup.SetManual(on, s.clock.Now())
	if changed {
		s.relay.SetEnergized(on)
		s.logTransition(ctx, on, s.lastReading.TemperatureC)
	}
	s.appendEvent(ctx, models.EventModeChange, fmt.Sprintf("manual override engaged (cooler %s)", onOff(on)), nil)
	s.log.Infow("manual override", "on", on, "relay_changed", changed)
	return nil
}

func (s *ControlService) SetAuto(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sup.SetAuto()
	mode := s.sup.Snapshot().Mode().String()
	s.appendEvent(ctx, models.EventModeChange, "returned to automatic control", map[string]any{"mode": mode})
	s.log.Infow("automatic control restored", "mode", mode)
	return nil
}

func (s *ControlService) SetPIDEnabled(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sup.SetPIDEnabled(on)
	s.appendEvent(ctx, models.EventModeChange, fmt.Sprintf("PID control %sabled", enDis(on)), nil)
	s.log.Infow("pid mode set", "enabled", on)
	return nil
}

func (s *ControlService) SetThresholds(ctx context.Context, startC, stopC float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sup.SetThresholds(startC, stopC); err != nil {
		return err
	}
	s.appendEvent(ctx, models.EventConfig, "hysteresis thresholds updated", map[string]any{
		"start_c": startC, "stop_c": stopC,
	})
	return nil
}

func (s *ControlService) SetStartThreshold(ctx context.Context, startC float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sup.SetStartThreshold(startC); err != nil {
		return err
	}
	s.appendEvent(ctx, models.EventConfig, "start threshold updated", map[string]any{"start_c": startC})
	return nil
}

func (s *ControlService) SetStopThreshold(ctx context.Context, stopC float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sup.SetStopThreshold(stopC); err != nil {
		return err
	}
	s.appendEvent(ctx, models.EventConfig, "stop threshold updated", map[string]any{"stop_c": stopC})
	return nil
}

func (s *ControlService) SetPIDParams(ctx context.Context, p controller.PIDParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sup.SetPIDParams(p); err != nil {
		return err
	}
	pid := s.sup.Snapshot().PID
	s.appendEvent(ctx, models.EventConfig, "PID tuning updated", map[string]any{
		"kp": pid.Kp, "ki": pid.Ki, "kd": pid.Kd, "setpoint_c": pid.Setpoint,
	})
	return nil
}

func (s *ControlService) ResetPID(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sup.ResetPID()
	s.appendEvent(ctx, models.EventReset, "PID terms reset", nil)
	return nil
}

func (s *ControlService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sup.Reset()
	s.relay.SetEnergized(false)
	s.appendEvent(ctx, models.EventReset, "cooler system reset", nil)
	s.log.Infow("cooler system reset")
	return nil
}

// PublishTelemetry pushes a snapshot out of cadence.
func (s *ControlService) PublishTelemetry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.publisher == nil {
		return fmt.Errorf("no telemetry publisher configured")
	}
	now := s.clock.Now()
	if err := s.publisher.Publish(s.snapshotLocked(now)); err != nil {
		return err
	}
	s.lastPublish = now
	return nil
}

// Snapshot returns the current read-only status view.
func (s *ControlService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.clock.Now()), nil
}

// --- internals (caller holds s.mu) ---

func (s *ControlService) snapshotLocked(now controller.Millis) models.Snapshot {
	st := s.sup.Snapshot()
	return models.Snapshot{
		TemperatureC: s.lastReading.TemperatureC,
		HumidityPct:  s.lastReading.HumidityPct,
		PressureHPa:  s.lastReading.PressureHPa,
		SensorOK:     s.sensorOK,

		Device:        s.device,
		UptimeSeconds: now.Seconds(),

		Mode:           st.Mode().String(),
		CoolerRunning:  st.Running,
		EverStarted:    st.EverStarted,
		ManualOverride: st.ManualOverride,
		RuntimeSec:     uint32(st.Runtime / time.Second),
		ElapsedSec:     uint32(st.TotalElapsed / time.Second),
		StartC:         st.StartC,
		StopC:          st.StopC,

		PIDEnabled:  st.PIDEnabled,
		PIDSetpoint: st.PID.Setpoint,
		PIDOutput:   st.PID.LastOutput,
		PIDError:    st.PID.LastError,
		PIDKp:       st.PID.Kp,
		PIDKi:       st.PID.Ki,
		PIDKd:       st.PID.Kd,
	}
}

func (s *ControlService) publishLocked(snap models.Snapshot, now controller.Millis) {
	if err := s.publisher.Publish(snap); err != nil {
		// Stale telemetry is acceptable; missed samples are not replayed.
		s.log.Warnw("telemetry publish failed", "err", err)
		return
	}
	s.lastPublish = now
}

func (s *ControlService) logTransition(ctx context.Context, energized bool, tempC float64) {
	typ, msg := models.EventStop, "cooler stopped"
	if energized {
		typ, msg = models.EventStart, "cooler started"
	}
	s.log.Infow(msg, "temp_c", tempC, "mode", s.sup.Snapshot().Mode().String())
	s.appendEvent(ctx, typ, msg, map[string]any{
		"temp_c": tempC,
		"mode":   s.sup.Snapshot().Mode().String(),
	})
}

func (s *ControlService) appendEvent(ctx context.Context, typ, msg string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ev := models.CoolerEvent{Type: typ, Description: msg}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Warnw("event append failed", "type", typ, "err", err)
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func enDis(on bool) string {
	if on {
		return "en"
	}
	return "dis"
}
