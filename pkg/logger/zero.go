package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// ZeroLogger adapts a zerolog.Logger to the Logger interface.
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewZero builds a ZeroLogger writing to w with timestamps attached.
func NewZero(w io.Writer) *ZeroLogger {
	return &ZeroLogger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{logger: l}
}

func (z *ZeroLogger) Error(msg string, args ...any) { z.emit(z.logger.Error(), msg, args) }
func (z *ZeroLogger) Warn(msg string, args ...any)  { z.emit(z.logger.Warn(), msg, args) }
func (z *ZeroLogger) Info(msg string, args ...any)  { z.emit(z.logger.Info(), msg, args) }
func (z *ZeroLogger) Debug(msg string, args ...any) { z.emit(z.logger.Debug(), msg, args) }

func (z *ZeroLogger) emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
