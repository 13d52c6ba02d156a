package sensor

import (
	"sync"

	"coolerctl/internal/controller"
	"coolerctl/internal/models"
)

// Simulation constants.
const (
	AmbientC        = 25.0 // chamber drifts here with the cooler off
	ColdPlateC      = -5.0 // coldest the cooler can pull the chamber
	CoolCPerSec     = 0.8  // °C per second while energized
	WarmCPerSec     = 0.3  // °C per second drifting back to ambient
	BaseHumidityPct = 45.0
	HumiditySwing   = 0.02 // % per °C away from ambient
	BasePressureHPa = 1013.2
)

// Simulator is a closed-loop stand-in for the BME280 and the cooling
// hardware. It implements Source, and its SetEnergized method satisfies the
// relay actuator interface, so wiring it as both closes the thermal loop:
// energizing the relay pulls the simulated chamber temperature down.
type Simulator struct {
	mu        sync.Mutex
	clock     controller.Clock
	lastRead  controller.Millis
	primed    bool
	energized bool
	tempC     float64
}

func NewSimulator(clock controller.Clock, startC float64) *Simulator {
	return &Simulator{clock: clock, tempC: startC}
}

// SetEnergized records the relay state driving the thermal model.
func (s *Simulator) SetEnergized(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.energized = on
}

// Energized reports the last commanded relay state.
func (s *Simulator) Energized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.energized
}

// Read advances the thermal model by the time elapsed since the previous read
// and returns the resulting reading. It never fails.
func (s *Simulator) Read() (models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.primed {
		s.step(now.Sub(s.lastRead).Seconds())
	}
	s.lastRead = now
	s.primed = true

	return models.Reading{
		TemperatureC: s.tempC,
		HumidityPct:  BaseHumidityPct + HumiditySwing*(AmbientC-s.tempC),
		PressureHPa:  BasePressureHPa,
	}, nil
}

// step moves the chamber temperature toward the cold plate while energized,
// or back toward ambient otherwise, clamping at either end.
func (s *Simulator) step(elapsedSec float64) {
	if elapsedSec <= 0 {
		return
	}
	if s.energized {
		if s.tempC > ColdPlateC {
			s.tempC = maxFloat(s.tempC-CoolCPerSec*elapsedSec, ColdPlateC)
		}
		return
	}
	if s.tempC < AmbientC {
		s.tempC = minFloat(s.tempC+WarmCPerSec*elapsedSec, AmbientC)
	}
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}
