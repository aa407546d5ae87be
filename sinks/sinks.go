// Package sinks delivers query output. A sink is shared by every query that
// writes to it and hands out one observer per subscription URI.
package sinks

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarungka/ripple/stream"
)

var (
	// ErrMissingConfig is returned when a required config value is empty.
	ErrMissingConfig = errors.New("sinks: missing config value")

	// ErrUnknownSink is returned by New for an unsupported sink type.
	ErrUnknownSink = errors.New("sinks: unknown sink type")
)

// Sink builds observers writing to a shared destination.
type Sink interface {
	// Observer returns the observer for the query subscribed under uri.
	Observer(uri string) stream.Observer
	Close() error
}

// SinkConfig describes the output of a query.
type SinkConfig struct {
	// Type is "log", "file" or "kafka".
	Type     string `koanf:"type" json:"type"`
	FilePath string `koanf:"file_path" json:"file_path"`
	// Kafka only.
	Brokers []string `koanf:"brokers" json:"brokers"`
	Topic   string   `koanf:"topic" json:"topic"`
}

// New opens the sink described by config.
func New(config SinkConfig) (Sink, error) {
	switch config.Type {
	case "log", "":
		return NewLogSink(), nil
	case "file":
		return NewFileSink(config.FilePath)
	case "kafka":
		return NewKafkaSink(config.Brokers, config.Topic)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, config.Type)
	}
}

// Record is the serialized form of one notification.
type Record struct {
	URI   string       `json:"uri"`
	Kind  string       `json:"kind"`
	Value stream.Event `json:"value,omitempty"`
	Error string       `json:"error,omitempty"`
	Time  time.Time    `json:"time"`
}

func newRecord(uri string, n stream.Notification, at time.Time) Record {
	r := Record{URI: uri, Kind: n.Kind.String(), Time: at}
	switch n.Kind {
	case stream.KindNext:
		r.Value = n.Value
	case stream.KindError:
		r.Error = n.Err.Error()
	}
	return r
}

// writerFunc adapts a record writer to stream.Observer.
type writerFunc struct {
	uri   string
	now   func() time.Time
	write func(Record)
}

func (w writerFunc) OnNext(value stream.Event) {
	w.write(newRecord(w.uri, stream.Next(value), w.now()))
}

func (w writerFunc) OnError(err error) {
	w.write(newRecord(w.uri, stream.Error(err), w.now()))
}

func (w writerFunc) OnCompleted() {
	w.write(newRecord(w.uri, stream.Completed(), w.now()))
}
