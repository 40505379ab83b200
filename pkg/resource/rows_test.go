package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"
)

func TestRows_Freshness(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{respond: func(string, url.Values) (any, error) {
		return []any{map[string]any{"id": 1, "quantity": 2}}, nil
	}}
	r := NewRows(src, RowsConfig{Name: "cart", Path: "v1/cart/", Now: func() time.Time { return now }})
	ctx := context.Background()

	if _, err := r.List(ctx, false); err != nil {
		t.Fatal(err)
	}
	r.List(ctx, false)
	if len(src.Calls()) != 1 {
		t.Errorf("calls within window = %d, want 1", len(src.Calls()))
	}
	r.List(ctx, true)
	if len(src.Calls()) != 2 {
		t.Errorf("forced list calls = %d, want 2", len(src.Calls()))
	}
	now = now.Add(6 * time.Second)
	items, _ := r.List(ctx, false)
	if len(src.Calls()) != 3 || len(items) != 1 {
		t.Errorf("stale list: calls %d items %d", len(src.Calls()), len(items))
	}
}

func TestRows_EmptyIsRefetched(t *testing.T) {
	src := &fakeSource{respond: func(string, url.Values) (any, error) { return []any{}, nil }}
	ctx := context.Background()

	cart := NewRows(src, RowsConfig{Name: "cart", Path: "v1/cart/"})
	cart.List(ctx, false)
	cart.List(ctx, false)
	if len(src.Calls()) != 2 {
		t.Errorf("empty cart calls = %d, want 2", len(src.Calls()))
	}

	src2 := &fakeSource{respond: src.respond}
	wl := NewRows(src2, RowsConfig{Name: "wishlist", Path: "w", FreshWhenEmpty: true})
	wl.List(ctx, false)
	wl.List(ctx, false)
	if len(src2.Calls()) != 1 {
		t.Errorf("empty wishlist calls = %d, want 1", len(src2.Calls()))
	}
}

func TestRows_NonArrayIsEmpty(t *testing.T) {
	src := &fakeSource{respond: func(string, url.Values) (any, error) {
		return map[string]any{"message": "empty"}, nil
	}}
	r := NewRows(src, RowsConfig{Name: "wishlist", Path: "w"})
	items, err := r.List(context.Background(), false)
	if err != nil || len(items) != 0 {
		t.Errorf("List() = %v, %v", items, err)
	}
}

func TestRows_Errors(t *testing.T) {
	fail := false
	src := &fakeSource{respond: func(string, url.Values) (any, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []any{map[string]any{"id": 1}}, nil
	}}
	ctx := context.Background()

	keep := NewRows(src, RowsConfig{Name: "cart", Path: "c"})
	drop := NewRows(src, RowsConfig{Name: "wishlist", Path: "w", ClearOnError: true})
	keep.List(ctx, false)
	drop.List(ctx, false)

	fail = true
	if _, err := keep.List(ctx, true); err == nil {
		t.Error("expected error")
	}
	if keep.Len() != 1 || keep.Err() == nil {
		t.Errorf("keep: len %d err %v", keep.Len(), keep.Err())
	}
	drop.List(ctx, true)
	if drop.Len() != 0 || drop.Err() == nil {
		t.Errorf("drop: len %d err %v", drop.Len(), drop.Err())
	}

	fail = false
	keep.List(ctx, true)
	if keep.Err() != nil {
		t.Errorf("Err() = %v after recovery", keep.Err())
	}
}

func TestRows_Coalesces(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{}), respond: func(string, url.Values) (any, error) {
		return []any{map[string]any{"id": 1}}, nil
	}}
	r := NewRows(src, RowsConfig{Name: "cart", Path: "c"})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.List(context.Background(), false)
		}()
	}
	for len(src.Calls()) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	// Late arrivals may start a second fetch after the first completes.
	if n := len(src.Calls()); n > 2 {
		t.Errorf("calls = %d, want at most 2", n)
	}
}

func TestRows_RemoveAndReset(t *testing.T) {
	src := &fakeSource{respond: func(string, url.Values) (any, error) {
		return []any{map[string]any{"id": 1}, map[string]any{"id": 2}}, nil
	}}
	r := NewRows(src, RowsConfig{Name: "wishlist", Path: "w", FreshWhenEmpty: true})
	r.List(context.Background(), false)

	r.Remove(func(e Entry) bool { return e.ID() == "1" })
	if r.Len() != 1 {
		t.Fatalf("Len() = %d after Remove", r.Len())
	}
	if _, ok := r.Find(func(e Entry) bool { return e.ID() == "2" }); !ok {
		t.Error("remaining row not found")
	}
	r.Reset()
	r.List(context.Background(), false)
	if r.Len() != 0 || len(src.Calls()) != 1 {
		t.Errorf("after Reset: len %d calls %d", r.Len(), len(src.Calls()))
	}
}

// serverRows is a list endpoint whose response is decided when the request
// arrives, then held until gate is closed.
type serverRows struct {
	mu    sync.Mutex
	rows  []any
	calls int
	gate  chan struct{}
}

func (s *serverRows) Get(ctx context.Context, _ string, _ url.Values, v any) error {
	s.mu.Lock()
	rows := append([]any{}, s.rows...)
	s.calls++
	s.mu.Unlock()

	select {
	case <-s.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *serverRows) set(rows ...any) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
}

func (s *serverRows) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRows_CallerCancelDoesNotFailOthers(t *testing.T) {
	src := &serverRows{rows: []any{map[string]any{"id": 1}}, gate: make(chan struct{})}
	r := NewRows(src, RowsConfig{Name: "wishlist", Path: "w", ClearOnError: true})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := r.List(ctxA, true)
		errA <- err
	}()
	for src.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		rows []Entry
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		rows, err := r.List(context.Background(), false)
		resB <- result{rows, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}
	close(src.gate)

	b := <-resB
	if b.err != nil || len(b.rows) != 1 {
		t.Errorf("live caller got %d rows, err %v; want 1 row", len(b.rows), b.err)
	}
	if r.Len() != 1 || r.Err() != nil {
		t.Errorf("held rows = %d, err %v", r.Len(), r.Err())
	}
	if src.Calls() != 1 {
		t.Errorf("calls = %d, want 1", src.Calls())
	}
}

func TestRows_ForcedListSeesChangesAfterInflightRead(t *testing.T) {
	src := &serverRows{rows: []any{}, gate: make(chan struct{})}
	r := NewRows(src, RowsConfig{Name: "cart", Path: "c"})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.List(ctx, false)
	}()
	for src.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}

	// The row is added after the read above was sent.
	src.set(map[string]any{"id": 7, "quantity": 1})

	forced := make(chan []Entry, 1)
	go func() {
		rows, _ := r.List(ctx, true)
		forced <- rows
	}()
	for src.Calls() < 2 {
		time.Sleep(time.Millisecond)
	}
	close(src.gate)
	<-done

	if rows := <-forced; len(rows) != 1 {
		t.Fatalf("forced list returned %d rows, want 1", len(rows))
	}
	if r.Len() != 1 {
		t.Errorf("held rows = %d, want 1; the older read must not overwrite", r.Len())
	}
}

func TestRows_ResetDiscardsInflightFetch(t *testing.T) {
	src := &serverRows{rows: []any{map[string]any{"id": 1}}, gate: make(chan struct{})}
	r := NewRows(src, RowsConfig{Name: "cart", Path: "c", FreshWhenEmpty: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.List(context.Background(), false)
	}()
	for src.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}
	r.Reset()
	close(src.gate)
	<-done

	if r.Len() != 0 {
		t.Errorf("held rows = %d after Reset, want 0", r.Len())
	}
}
