package sinks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/stream"
)

// FileSink appends one JSON document per notification to a file.
type FileSink struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
	enc      *json.Encoder
	logger   zerolog.Logger
	// overridable for tests
	now func() time.Time
}

// NewFileSink opens filePath for appending, creating parent directories as
// needed.
func NewFileSink(filePath string) (*FileSink, error) {
	if filePath == "" {
		return nil, fmt.Errorf("%w: file_path", ErrMissingConfig)
	}
	l := logger.GetLogger("file-sink")

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		l.Err(err).Str("directory", dir).Msg("failed to create parent directories")
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}
	if _, err := os.Stat(filePath); err == nil {
		l.Warn().Str("file_path", filePath).Msg("file already exists; appending to it")
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		l.Err(err).Str("file_path", filePath).Msg("failed to open file")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &FileSink{
		filePath: filePath,
		file:     file,
		enc:      json.NewEncoder(file),
		logger:   l,
		now:      time.Now,
	}, nil
}

// Observer returns an observer writing the notifications of uri.
func (f *FileSink) Observer(uri string) stream.Observer {
	return writerFunc{uri: uri, now: f.now, write: f.write}
}

func (f *FileSink) write(r Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return
	}
	if err := f.enc.Encode(r); err != nil {
		f.logger.Err(err).Str("uri", r.URI).Msg("failed to write to file")
	}
}

// Close closes the file. Later notifications are dropped.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	f.logger.Info().Str("file_path", f.filePath).Msg("closing file sink")
	err := f.file.Close()
	f.file = nil
	return err
}
