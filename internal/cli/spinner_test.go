package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func quietSpinner(ctx context.Context, msg string) (*Spinner, *syncBuffer) {
	var out syncBuffer
	s := newSpinner(ctx, msg)
	s.w = &out
	s.tty = true
	return s, &out
}

func TestSpinnerRenders(t *testing.T) {
	s, out := quietSpinner(context.Background(), "Loading brands")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("Loading brands (%d)", 1000)
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Loading brands") {
		t.Errorf("output %q should contain the message", got)
	}
	if !strings.Contains(got, "Loading brands (1000)") {
		t.Errorf("output %q should contain the updated message", got)
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := quietSpinner(ctx, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s, _ := quietSpinner(ctx, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := quietSpinner(context.Background(), "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s, _ := quietSpinner(context.Background(), "never started")
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked on a spinner that never started")
	}
}

func TestSpinnerStopWithMessage(t *testing.T) {
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	s, _ := quietSpinner(context.Background(), "Working")
	s.Start()
	s.StopWithSuccess("Done %d", 3)
	s2, _ := quietSpinner(context.Background(), "Working")
	s2.Start()
	s2.StopWithError("Failed")

	if !strings.Contains(buf.String(), "Done 3") || !strings.Contains(buf.String(), "Failed") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinnerSilentWithoutTerminal(t *testing.T) {
	s, out := quietSpinner(context.Background(), "Loading brands")
	s.tty = false
	s.Start()
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	if got := out.String(); got != "" {
		t.Errorf("output = %q, want nothing when not a terminal", got)
	}
}
