// Package extensions provides optional registry extensions for
// cross-cutting concerns: structured logging and prometheus metrics.
package extensions

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	reactive "github.com/JhonaCodes/reactive-notifier-sub001"
)

// LoggingExtension logs cell lifecycle events through zerolog.
type LoggingExtension struct {
	reactive.BaseExtension
	logger zerolog.Logger
}

// NewLoggingExtension creates a logging extension writing to logger.
func NewLoggingExtension(logger zerolog.Logger) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: reactive.NewBaseExtension("logging"),
		logger:        logger,
	}
}

// NewConsoleLogger builds a human-readable zerolog logger suitable for
// examples and development.
func NewConsoleLogger(app string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", app).Logger()
}

func (e *LoggingExtension) OnCreate(cell reactive.AnyCell) {
	e.logger.Debug().
		Str("cell", cell.TypeName()).
		Str("key", cell.Key()).
		Msg("cell created")
}

func (e *LoggingExtension) OnChange(cell reactive.AnyCell, kind reactive.OperationKind) {
	e.logger.Debug().
		Str("cell", cell.TypeName()).
		Str("key", cell.Key()).
		Str("op", string(kind)).
		Msg("cell changed")
}

func (e *LoggingExtension) OnDispose(cell reactive.AnyCell) {
	e.logger.Debug().
		Str("cell", cell.TypeName()).
		Str("key", cell.Key()).
		Msg("cell disposed")
}
