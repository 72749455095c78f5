package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Logger es la interfaz que usan servicios y adapters. Los campos van como map
// para que ningún paquete de dominio importe zerolog directamente.
type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// ZeroLogger implementa Logger sobre zerolog.
type ZeroLogger struct {
	zl zerolog.Logger
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output por defecto es os.Stdout.
	Output io.Writer
}

func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var w io.Writer = out
	if opts.Format != FormatJSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	zctx := zerolog.New(w).Level(opts.Level.zerolog()).With().Timestamp()
	if app := strings.TrimSpace(opts.App); app != "" {
		zctx = zctx.Str("app", app)
	}

	return &ZeroLogger{zl: zctx.Logger()}
}

// NewFromEnv crea logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=text|json (default text)
// - APP_NAME=treatment-cases (opcional)
func NewFromEnv() Logger {
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    os.Getenv("APP_NAME"),
	})
}

// Nop descarta todo. Útil en tests y como default cuando no se inyecta logger.
func Nop() Logger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

// Zerolog expone el logger subyacente para middlewares que lo necesiten.
func (l *ZeroLogger) Zerolog() zerolog.Logger { return l.zl }

func (l *ZeroLogger) With(fields map[string]any) Logger {
	clean := cleanFields(fields)
	if len(clean) == 0 {
		return l
	}
	return &ZeroLogger{zl: l.zl.With().Fields(clean).Logger()}
}

func (l *ZeroLogger) Debug(msg string, fields map[string]any) { l.log(l.zl.Debug(), msg, fields) }
func (l *ZeroLogger) Info(msg string, fields map[string]any)  { l.log(l.zl.Info(), msg, fields) }
func (l *ZeroLogger) Warn(msg string, fields map[string]any)  { l.log(l.zl.Warn(), msg, fields) }
func (l *ZeroLogger) Error(msg string, fields map[string]any) { l.log(l.zl.Error(), msg, fields) }

func (l *ZeroLogger) log(evt *zerolog.Event, msg string, fields map[string]any) {
	// evt es nil si el nivel está deshabilitado
	if evt == nil {
		return
	}
	if clean := cleanFields(fields); len(clean) > 0 {
		if err, ok := clean["error"].(error); ok {
			evt = evt.Err(err)
			delete(clean, "error")
		}
		evt = evt.Fields(clean)
	}
	evt.Msg(msg)
}

func cleanFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
