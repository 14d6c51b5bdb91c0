package gologger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	LevelTrace = slog.LevelDebug - 4
	// LevelOff is above every level a logger emits.
	LevelOff = slog.Level(1 << 20)
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	case "off", "none", "silent":
		return LevelOff
	default:
		return slog.LevelInfo
	}
}

// ConsoleProvider hands out text loggers writing to a single stream. Each
// logger carries its name as the "logger" attribute.
type ConsoleProvider struct {
	handler slog.Handler
	exit    func(int)
}

func NewConsoleProvider(w io.Writer, level string) *ConsoleProvider {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &ConsoleProvider{handler: handler, exit: os.Exit}
}

func (p *ConsoleProvider) GetLogger(name string) glog.Logger {
	if p == nil || p.handler == nil {
		return glog.Nop()
	}
	base := slog.New(p.handler)
	if name = strings.TrimSpace(name); name != "" {
		base = base.With("logger", name)
	}
	return &consoleLogger{base: base, ctx: context.Background(), exit: p.exit}
}

type consoleLogger struct {
	base *slog.Logger
	ctx  context.Context
	exit func(int)
}

func (l *consoleLogger) Trace(msg string, args ...any) { l.base.Log(l.ctx, LevelTrace, msg, args...) }
func (l *consoleLogger) Debug(msg string, args ...any) { l.base.DebugContext(l.ctx, msg, args...) }
func (l *consoleLogger) Info(msg string, args ...any)  { l.base.InfoContext(l.ctx, msg, args...) }
func (l *consoleLogger) Warn(msg string, args ...any)  { l.base.WarnContext(l.ctx, msg, args...) }
func (l *consoleLogger) Error(msg string, args ...any) { l.base.ErrorContext(l.ctx, msg, args...) }

func (l *consoleLogger) Fatal(msg string, args ...any) {
	l.base.ErrorContext(l.ctx, msg, args...)
	if l.exit != nil {
		l.exit(1)
	}
}

func (l *consoleLogger) WithContext(ctx context.Context) glog.Logger {
	if ctx == nil {
		return l
	}
	return &consoleLogger{base: l.base, ctx: ctx, exit: l.exit}
}

var (
	_ glog.Logger         = (*consoleLogger)(nil)
	_ glog.LoggerProvider = (*ConsoleProvider)(nil)
)
