package telemetry

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger *zerolog.Logger
)

// Init installs the process logger. Output is a console writer on stderr:
// [2026-02-21 5:10:39 PM PST] INF message component=scorer
func Init(level zerolog.Level) {
	InitWithWriter(level, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 3:04:05 PM MST",
		NoColor:    true,
	})
}

// InitWithWriter is Init with a caller-supplied sink. Tests pass a buffer.
func InitWithWriter(level zerolog.Level, w io.Writer) {
	l := zerolog.New(w).Level(level).With().Timestamp().Logger()
	mu.Lock()
	logger = &l
	mu.Unlock()
}

func L() *zerolog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init(zerolog.InfoLevel)
		return L()
	}
	return l
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// WithMatch returns a child logger tagged with component and match id.
func WithMatch(component, matchID string) zerolog.Logger {
	return L().With().Str("component", component).Str("match", matchID).Logger()
}

func Infof(format string, args ...any)  { L().Info().Msg(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { L().Warn().Msg(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { L().Error().Msg(fmt.Sprintf(format, args...)) }
func Debugf(format string, args ...any) { L().Debug().Msg(fmt.Sprintf(format, args...)) }
func Plainf(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

// ParseLogLevel converts a string level name to a zerolog level.
func ParseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
