package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storekit/pkg/observability"
)

// envLogLevel names the environment variable holding the default log level.
const envLogLevel = "STOREKIT_LOG_LEVEL"

// newLogger creates a logger with timestamps formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// LevelFromEnv returns the level named by STOREKIT_LOG_LEVEL, or fallback
// when it is unset or unparseable.
func LevelFromEnv(fallback log.Level) log.Level {
	return parseLevel(os.Getenv(envLogLevel), fallback)
}

func parseLevel(s string, fallback log.Level) log.Level {
	if s == "" {
		return fallback
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return fallback
	}
	return level
}

// progress logs how long an operation took once it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Loaded 42 brands (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// traceHooks turns cache and HTTP events into debug log lines. It is
// installed while the CLI runs at debug level.
type traceHooks struct {
	logger *log.Logger
}

func (h traceHooks) OnLoadStart(_ context.Context, resource string) {
	h.logger.Debug("load start", "resource", resource)
}

func (h traceHooks) OnPage(_ context.Context, resource string, offset, items int) {
	h.logger.Debug("page", "resource", resource, "offset", offset, "items", items)
}

func (h traceHooks) OnLoadComplete(_ context.Context, resource string, items, pages int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("load stopped", "resource", resource, "items", items, "pages", pages, "err", err)
		return
	}
	h.logger.Debug("load done", "resource", resource, "items", items, "pages", pages, "took", d.Round(time.Millisecond))
}

func (h traceHooks) OnLookup(_ context.Context, resource, lookup string, found bool) {
	h.logger.Debug("lookup", "resource", resource, "via", lookup, "found", found)
}

func (h traceHooks) OnRequest(context.Context, string, string, string) {}

func (h traceHooks) OnResponse(_ context.Context, method, _, path string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h traceHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("http failed", "method", method, "host", host, "path", path, "err", err)
}

// installTrace routes observability events to l when l logs at debug
// level, and restores the no-op hooks otherwise.
func installTrace(l *log.Logger) {
	if l.GetLevel() > log.DebugLevel {
		observability.Reset()
		return
	}
	h := traceHooks{logger: l}
	observability.SetResourceHooks(h)
	observability.SetHTTPHooks(h)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
