package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"coolerctl/internal/logger"
	"coolerctl/internal/models"
)

// Publisher pushes telemetry snapshots to the broker as JSON. It satisfies
// the control service's TelemetryPublisher.
type Publisher struct {
	client *Client
	topic  string // e.g. "cooler/{device}/telemetry"
	log    *logger.Logger
}

func NewPublisher(client *Client, topic string, log *logger.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, log: log}
}

// Publish sends the snapshot at QoS 1, unretained. Errors are returned to the
// caller; the control loop treats them as transient.
func (p *Publisher) Publish(snap models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	topic := formatTopic(p.topic, snap.Device)
	token := p.client.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish telemetry to %s: %w", topic, token.Error())
	}
	p.log.Debugw("telemetry published", "topic", topic, "temp_c", snap.TemperatureC)
	return nil
}

// formatTopic substitutes the {device} placeholder with the device name.
func formatTopic(pattern, device string) string {
	return strings.ReplaceAll(pattern, "{device}", device)
}
