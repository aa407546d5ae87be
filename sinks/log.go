package sinks

import (
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/stream"
)

// LogSink logs every notification.
type LogSink struct{}

// NewLogSink creates a LogSink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

func (LogSink) Observer(uri string) stream.Observer {
	return stream.NewLogObserver(logger.GetLogger("sink").With().Str("uri", uri).Logger(), "log")
}

func (LogSink) Close() error { return nil }
