// Package sensor provides the environment sensor boundary: the Source
// interface consumed by the control loop and a hardware-free simulator used
// when no BME280 is attached.
package sensor

import "coolerctl/internal/models"

// Source provides one environment reading per control cycle. Implementations
// return an error when the hardware read fails; the control loop holds relay
// state and retries next cycle.
type Source interface {
	Read() (models.Reading, error)
}
