// Package relay is the actuator boundary for the cooling relay.
package relay

import (
	"sync"

	"coolerctl/internal/logger"
)

// Actuator energizes or releases the cooling relay. Writes are
// fire-and-forget: the hardware line has no read-back.
type Actuator interface {
	SetEnergized(on bool)
}

// Pin is an in-memory actuator standing in for a GPIO line. It remembers the
// last commanded state and logs transitions.
type Pin struct {
	mu  sync.Mutex
	on  bool
	log *logger.Logger
}

func NewPin(log *logger.Logger) *Pin {
	return &Pin{log: log}
}

func (p *Pin) SetEnergized(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.on == on {
		return
	}
	p.on = on
	if p.log != nil {
		p.log.Infow("relay switched", "energized", on)
	}
}

// Energized reports the last commanded state.
func (p *Pin) Energized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}
