package logger

import (
	"fmt"
	"os"
	"strings"
	"time"
	"uptimeline/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Init(cfg *config.Config) *zerolog.Logger {

	zerolog.SetGlobalLevel(level(cfg))

	var baseLogger zerolog.Logger

	if cfg.IsProduction() {
		baseLogger = zerolog.New(os.Stdout)
	} else {
		baseLogger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    false,
			PartsOrder: []string{
				"time", "level", "caller", "service", "env", "message", "err",
			},
			FormatLevel: func(i any) string {
				return strings.ToUpper(fmt.Sprintf("[%s]", i))
			},
			FormatCaller: func(caller any) string {
				return fmt.Sprintf("(%s)", caller)
			},
		})
	}

	baseLogger = baseLogger.With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("env", cfg.Env).
		Logger()

	// Add caller info for dev
	if !cfg.IsProduction() {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	log.Logger = baseLogger

	return &baseLogger
}

// level honours an explicit log.level and otherwise falls back to info in
// production and debug everywhere else.
func level(cfg *config.Config) zerolog.Level {
	if cfg.Log.Level != "" {
		if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			return lvl
		}
	}
	if cfg.IsProduction() {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}
