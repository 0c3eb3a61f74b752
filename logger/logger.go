package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the service name and per-component level
// overrides. A nil *Logger is usable and writes through the global logger.
type Logger struct {
	zl        zerolog.Logger
	service   string
	overrides map[string]zerolog.Level
}

// New creates a logger writing to the configured output.
func New(cfg *Config, serviceName string) *Logger {
	return NewWithWriter(cfg, serviceName, outputWriter(cfg.Output))
}

// NewWithWriter creates a logger writing to w. Unknown levels fall back to info.
func NewWithWriter(cfg *Config, serviceName string, w io.Writer) *Logger {
	var zl zerolog.Logger
	if strings.EqualFold(cfg.Format, FormatConsole) {
		zl = zerolog.New(consoleWriter(w, serviceName, cfg.NoColor)).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(w)
		if cfg.Timestamp {
			zl = zl.With().Timestamp().Logger()
		}
		if serviceName != "" {
			zl = zl.With().Str(FieldService, serviceName).Logger()
		}
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}

	overrides := make(map[string]zerolog.Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		overrides[name] = parseLevel(lvl)
	}
	return &Logger{zl: zl.Level(parseLevel(cfg.Level)), service: serviceName, overrides: overrides}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) orGlobal() *Logger {
	if l == nil {
		return GetGlobalLogger()
	}
	return l
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, service: l.service, overrides: l.overrides}
}

// WithComponent returns a logger tagged with a component name. A level
// override configured for the component replaces the inherited level.
func (l *Logger) WithComponent(name string) *Logger {
	l = l.orGlobal()
	zl := l.zl.With().Str(FieldComponent, name).Logger()
	if lvl, ok := l.overrides[name]; ok {
		zl = zl.Level(lvl)
	}
	return l.derive(zl)
}

// WithAccount returns a logger tagged with the account kind.
func (l *Logger) WithAccount(kind string) *Logger {
	l = l.orGlobal()
	return l.derive(l.zl.With().Str(FieldAccount, kind).Logger())
}

// WithFields returns a logger carrying fields on every line.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l = l.orGlobal()
	return l.derive(l.zl.With().Fields(fields).Logger())
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	l = l.orGlobal()
	return l.derive(l.zl.With().Err(err).Logger())
}

type ctxKey string

// ContextWithSessionID stores the analytics session id on ctx for WithContext.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey(FieldSessionID), id)
}

// ContextWithAccount stores the account kind on ctx for WithContext.
func ContextWithAccount(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, ctxKey(FieldAccount), kind)
}

// WithContext returns a logger enriched with identifiers carried by ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	l = l.orGlobal()
	zc := l.zl.With()
	for _, key := range []string{FieldSessionID, FieldAccount} {
		if v, ok := ctx.Value(ctxKey(key)).(string); ok && v != "" {
			zc = zc.Str(key, v)
		}
	}
	return l.derive(zc.Logger())
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.orGlobal().zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.orGlobal().zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.orGlobal().zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.orGlobal().zl.Error(), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	if ev == nil {
		return
	}
	for _, fm := range fields {
		ev = ev.Fields(fm)
	}
	ev.Msg(msg)
}

var global atomic.Pointer[Logger]

// Init builds the global logger from cfg.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	SetGlobalLogger(New(&cfg, cfg.ServiceName))
}

// SetGlobalLogger replaces the global logger and drops cached component loggers.
func SetGlobalLogger(l *Logger) {
	global.Store(l)
	resetComponents()
}

// GetGlobalLogger returns the global logger, building a console logger at
// info level on first use.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	cfg := Config{}
	cfg.ApplyDefaults()
	global.CompareAndSwap(nil, New(&cfg, ""))
	return global.Load()
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

var levelColors = map[string]string{
	"TRC": "\033[90m",
	"DBG": "\033[36m",
	"INF": "\033[32m",
	"WRN": "\033[33m",
	"ERR": "\033[31m",
}

func consoleWriter(w io.Writer, serviceName string, noColor bool) zerolog.ConsoleWriter {
	paint := func(color, s string) string {
		if noColor || color == "" {
			return s
		}
		return color + s + "\033[0m"
	}
	prefix := ""
	if serviceName != "" {
		prefix = paint("\033[34m", "["+serviceName+"]") + " "
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			tag := strings.ToUpper(fmt.Sprint(i))
			if len(tag) > 3 {
				tag = tag[:3]
			}
			tag = strings.NewReplacer("DEB", "DBG", "WAR", "WRN", "TRA", "TRC").Replace(tag)
			return prefix + paint(levelColors[tag], tag)
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + "=" },
	}
}
