// Package sources provides live event sources as operators. Sources are
// continuous, not logs: a source subscribed again after recovery delivers
// what arrives from then on and never replays what was missed.
package sources

import (
	"errors"
	"fmt"

	"github.com/tarungka/ripple/stream"
)

var (
	// ErrMissingConfig is returned when a required config value is empty.
	ErrMissingConfig = errors.New("sources: missing config value")

	// ErrUnknownSource is returned by New for an unsupported source type.
	ErrUnknownSource = errors.New("sources: unknown source type")
)

// SourceConfig describes one source of a query.
type SourceConfig struct {
	// Type is "hub" or "kafka".
	Type  string `koanf:"type" json:"type"`
	Topic string `koanf:"topic" json:"topic"`
	// Kafka only.
	Brokers []string `koanf:"brokers" json:"brokers"`
	Group   string   `koanf:"group" json:"group"`
}

// New creates the source operator described by config. Hub sources attach
// to hub.
func New(config SourceConfig, hub *Hub) (stream.Operator, error) {
	switch config.Type {
	case "hub", "":
		if config.Topic == "" {
			return nil, fmt.Errorf("%w: topic", ErrMissingConfig)
		}
		if hub == nil {
			return nil, fmt.Errorf("%w: hub", ErrMissingConfig)
		}
		return hub.Topic(config.Topic), nil
	case "kafka":
		kc := KafkaConfig{Brokers: config.Brokers, Topic: config.Topic, Group: config.Group}
		if err := kc.Validate(); err != nil {
			return nil, err
		}
		return Kafka(kc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, config.Type)
	}
}
