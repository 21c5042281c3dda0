// Package logging builds the zerolog loggers shared by the commands and the
// launch controller.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level. Unknown names
// fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a timestamped logger writing to w. Console output uses the
// human readable writer; otherwise lines are JSON.
func New(level string, w io.Writer, console bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if console {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Sampled thins out per-tick logging: a burst of entries per period, then
// one in n.
func Sampled(log zerolog.Logger, burst uint32, period time.Duration, n uint32) zerolog.Logger {
	return log.Sample(&zerolog.BurstSampler{
		Burst:       burst,
		Period:      period,
		NextSampler: &zerolog.BasicSampler{N: n},
	})
}
