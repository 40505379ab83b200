package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storekit/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("brands loaded") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("page") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("page") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("retry") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"":      log.InfoLevel,
		"debug": log.DebugLevel,
		"WARN":  log.WarnLevel,
		"error": log.ErrorLevel,
		"loud":  log.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in, log.InfoLevel); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(envLogLevel, "debug")
	if got := LevelFromEnv(log.InfoLevel); got != log.DebugLevel {
		t.Errorf("LevelFromEnv() = %v, want debug", got)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.DebugLevel))
	time.Sleep(10 * time.Millisecond)
	prog.done("Loaded 3 brands")
	if !strings.Contains(buf.String(), "Loaded 3 brands") {
		t.Errorf("progress output = %q", buf.String())
	}

	buf.Reset()
	newProgress(newLogger(&buf, log.InfoLevel)).done("Loaded 3 brands")
	if buf.Len() != 0 {
		t.Errorf("progress should log at debug level, got %q", buf.String())
	}
}

func TestInstallTrace(t *testing.T) {
	t.Cleanup(observability.Reset)
	ctx := context.Background()

	var buf bytes.Buffer
	installTrace(newLogger(&buf, log.DebugLevel))
	observability.Resource().OnLoadComplete(ctx, "brands", 25, 3, time.Second, nil)
	observability.Resource().OnLookup(ctx, "brands", "+path", true)
	observability.HTTP().OnResponse(ctx, "GET", "shop.test", "/api/v1/brands", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"load done", "resource=brands", "items=25", "via=+path", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	installTrace(newLogger(&buf, log.InfoLevel))
	observability.Resource().OnLoadComplete(ctx, "brands", 10, 1, time.Second, errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("hooks should be no-ops above debug level, got %q", buf.String())
	}
}

func TestTraceHooksWarnOnFailure(t *testing.T) {
	var buf bytes.Buffer
	h := traceHooks{logger: newLogger(&buf, log.WarnLevel)}
	h.OnLoadComplete(context.Background(), "products", 10, 1, time.Second, errors.New("offset 10: 502"))
	h.OnError(context.Background(), "GET", "shop.test", "/api/v1/products", errors.New("refused"))
	out := buf.String()
	if !strings.Contains(out, "load stopped") || !strings.Contains(out, "http failed") {
		t.Errorf("warnings missing:\n%s", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext should fall back to the default logger")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	if got != custom {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	got.Info("cart synced")
	if buf.Len() == 0 {
		t.Error("attached logger should write to its buffer")
	}
}
