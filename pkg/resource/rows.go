package resource

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// DefaultFreshness is how long a Rows result is reused without refetching.
const DefaultFreshness = 5 * time.Second

// RowsConfig describes a small, unpaginated per-customer list such as the
// cart or the wishlist.
type RowsConfig struct {
	Name string
	Path string // endpoint returning a JSON array

	// Freshness is the reuse window after a successful fetch. Zero means
	// DefaultFreshness; negative disables reuse.
	Freshness time.Duration

	// FreshWhenEmpty lets an empty result be reused within the window.
	// When false an empty list is always refetched.
	FreshWhenEmpty bool

	// ClearOnError drops the held rows when a fetch fails. When false the
	// previous rows stay visible next to the error.
	ClearOnError bool

	Logger *log.Logger
	Now    func() time.Time
}

// Rows holds the last fetched copy of a list endpoint. Concurrent fetches
// are coalesced, except that a forced List never joins a fetch whose request
// has already gone out. It is safe for concurrent use.
type Rows struct {
	cfg    RowsConfig
	src    Getter
	logger *log.Logger
	sf     singleflight.Group

	mu        sync.RWMutex
	items     []Entry
	err       error
	fetchedAt time.Time
	gen       uint64 // fetch generation; only the newest one writes
	sent      bool   // a request of gen has been issued
}

// NewRows creates an empty Rows reading from src.
func NewRows(src Getter, cfg RowsConfig) *Rows {
	if cfg.Freshness == 0 {
		cfg.Freshness = DefaultFreshness
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Rows{cfg: cfg, src: src, logger: logger.With("resource", cfg.Name)}
}

// List returns the rows, fetching them unless force is false and the last
// fetch is within the freshness window. A response that is not an array
// yields no rows. Callers arriving while a fetch is in flight share its
// result; a forced call only shares a fetch that has not sent its request
// yet, so it observes every change made before it was called.
//
// The fetch is not cancelled by ctx, since other callers may be waiting on
// it; ctx only bounds how long this caller waits. A caller that gives up
// gets the held rows and ctx.Err().
func (r *Rows) List(ctx context.Context, force bool) ([]Entry, error) {
	if !force && r.fresh() {
		return r.Items(), nil
	}
	r.mu.Lock()
	if force && r.sent {
		r.gen++
		r.sent = false
	}
	gen := r.gen
	r.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(rowsKey(gen), func() (any, error) {
		return r.fetch(fetchCtx, gen)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return r.Items(), res.Err
		}
		return append([]Entry(nil), res.Val.([]Entry)...), nil
	case <-ctx.Done():
		return r.Items(), ctx.Err()
	}
}

func rowsKey(gen uint64) string { return "list:" + strconv.FormatUint(gen, 10) }

func (r *Rows) fresh() bool {
	if r.cfg.Freshness < 0 {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fetchedAt.IsZero() || (len(r.items) == 0 && !r.cfg.FreshWhenEmpty) {
		return false
	}
	return r.cfg.Now().Sub(r.fetchedAt) < r.cfg.Freshness
}

func (r *Rows) fetch(ctx context.Context, gen uint64) ([]Entry, error) {
	r.mu.Lock()
	if r.gen == gen {
		r.sent = true
	}
	r.mu.Unlock()

	var raw json.RawMessage
	err := r.src.Get(ctx, r.cfg.Path, nil, &raw)

	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.gen == gen
	if err != nil {
		r.logger.Debug("list fetch failed", "err", err, "superseded", !current)
		if current {
			r.err = err
			if r.cfg.ClearOnError {
				r.items = nil
			}
		}
		return nil, err
	}
	items, ok := decodeEntries(raw)
	if !ok {
		items = nil
	}
	if current {
		r.items = items
		r.err = nil
		r.fetchedAt = r.cfg.Now()
	}
	return items, nil
}

// Items returns a copy of the held rows.
func (r *Rows) Items() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.items...)
}

// Len returns the number of held rows.
func (r *Rows) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Err returns the error of the last fetch, or nil if it succeeded.
func (r *Rows) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Find returns the first row matching fn.
func (r *Rows) Find(fn func(Entry) bool) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if fn(e) {
			return e, true
		}
	}
	return nil, false
}

// Remove drops every row matching fn without refetching.
func (r *Rows) Remove(fn func(Entry) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0:0]
	for _, e := range r.items {
		if !fn(e) {
			kept = append(kept, e)
		}
	}
	r.items = kept
}

// Reset replaces the rows with an empty list and marks it fresh. A fetch
// in flight no longer updates the rows.
func (r *Rows) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.sent = false
	r.items = nil
	r.err = nil
	r.fetchedAt = r.cfg.Now()
}

// SetErr records err as the last error.
func (r *Rows) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}
