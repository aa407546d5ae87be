package stream

import (
	"github.com/rs/zerolog"
)

// LogObserver is a simple sink that logs every notification it receives.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates a LogObserver writing to logger under name.
func NewLogObserver(logger zerolog.Logger, name string) *LogObserver {
	return &LogObserver{
		logger: logger.With().Str("sink", name).Logger(),
	}
}

func (s *LogObserver) OnNext(value Event) {
	s.logger.Info().Interface("value", value).Msg("OnNext")
}

func (s *LogObserver) OnError(err error) {
	s.logger.Warn().Err(err).Msg("OnError")
}

func (s *LogObserver) OnCompleted() {
	s.logger.Info().Msg("OnCompleted")
}
