package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	isDevelopment = false // if running in debug mode

	logFile *os.File = nil

	AdHocLogger zerolog.Logger

	mu sync.Mutex

	// root is built once, every service logger derives from it
	root     zerolog.Logger
	rootOnce sync.Once
)

func init() {
	// Create a general logger that can be easily accessed for
	// when you do not want to create a new logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	AdHocLogger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "ad-hoc-logger").Caller().Logger()
}

func buildRoot() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if !isDevelopment {
		var out io.Writer = os.Stderr
		if logFile != nil {
			out = zerolog.MultiLevelWriter(os.Stderr, logFile)
		}
		return zerolog.New(out).With().Timestamp().Logger()
	}

	// Set up zerolog for development mode (human-readable logs)
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("[%5s]", i))
		},
		FormatMessage: func(i any) string {
			return fmt.Sprintf("| %s |", i)
		},
		FormatCaller: func(i any) string {
			return filepath.Base(fmt.Sprintf("%s", i))
		},
		PartsExclude: []string{
			zerolog.TimestampFieldName,
		}}
	var out io.Writer = consoleWriter
	if logFile != nil {
		// Use multi-writer for file and readable console output
		out = zerolog.MultiLevelWriter(consoleWriter, logFile)
	}
	return zerolog.New(out).Level(zerolog.TraceLevel).With().Timestamp().Caller().Logger()
}

// GetLogger returns a logger tagged with the given service name. The
// underlying writer is configured on first use, so SetDevelopment and
// SetLogFile must be called before any logger is requested.
func GetLogger(serviceName string) zerolog.Logger {
	rootOnce.Do(func() {
		root = buildRoot()
	})
	return root.With().Str("service", serviceName).Logger()
}

// Nop returns a disabled logger, mostly for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func SetDevelopment(value bool) {
	mu.Lock()
	defer mu.Unlock()
	isDevelopment = value
}

func SetLogFile(file *os.File) {
	mu.Lock()
	defer mu.Unlock()
	logFile = file
}
