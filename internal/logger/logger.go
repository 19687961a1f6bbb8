// Package logger wires log/slog for the whole bot. Components receive child
// loggers carrying a "component" attribute so log lines stay greppable.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/aquabot/internal/config"
)

var (
	initOnce sync.Once

	// L is the base logger.
	L = slog.Default()

	// DB logs database events.
	DB = L.With("component", "db")
	// MIG logs database migration events.
	MIG = L.With("component", "db.migrate")
	// TG logs Telegram transport events.
	TG = L.With("component", "tg")
	// GEO logs reverse-geocoding events.
	GEO = L.With("component", "geocoder")
	// FLOW logs order flow transitions.
	FLOW = L.With("component", "flow")
	// NTF logs manager notification events.
	NTF = L.With("component", "notify")
)

// Init configures the global structured logger. It may be called only once.
func Init(cfg config.LoggingConfig) error {
	var initErr error
	initOnce.Do(func() {
		level, err := parseLevel(cfg.Level)
		if err != nil {
			initErr = err
			return
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
		case "", "text", "kv":
			handler = slog.NewTextHandler(os.Stderr, opts)
		case "json":
			handler = slog.NewJSONHandler(os.Stderr, opts)
		default:
			initErr = fmt.Errorf("invalid logging.format %q; allowed: text, json", cfg.Format)
			return
		}

		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()
	})
	return initErr
}

func wireComponents() {
	DB = L.With("component", "db")
	MIG = L.With("component", "db.migrate")
	TG = L.With("component", "tg")
	GEO = L.With("component", "geocoder")
	FLOW = L.With("component", "flow")
	NTF = L.With("component", "notify")
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid logging.level %q; allowed: debug, info, warn, error", raw)
}

// RoundMS rounds a duration to whole milliseconds for log output.
func RoundMS(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
