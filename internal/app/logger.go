package app

import (
	"io"

	charmLog "github.com/charmbracelet/log"
)

// Logger is the structured logging surface used by the core; *log.Logger satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// orDiscard returns logger, or a silent logger when nil.
func orDiscard(logger Logger) Logger {
	if logger == nil {
		return charmLog.New(io.Discard)
	}
	return logger
}
