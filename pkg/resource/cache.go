package resource

import (
	"context"
	"encoding/json"
	"maps"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/storekit/pkg/observability"
)

// DefaultPageSize is large enough that most collections load in one page.
const DefaultPageSize = 1000

// State is the lifecycle state of a [Cache].
type State int

const (
	Empty State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Getter performs a GET against the storefront API and decodes the JSON
// response into v. [*api.Client] satisfies it.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, v any) error
}

// Config describes one cached collection.
type Config struct {
	Name     string // plural resource name, also the list envelope key ("brands")
	Singular string // single-item envelope key ("brand")
	Path     string // list endpoint ("v1/brands")

	// PageSize is the limit sent with each page request. Zero means
	// DefaultPageSize.
	PageSize int

	// PageTimeout bounds each page request. Expiry is a fetch error.
	// Zero means no per-page timeout.
	PageTimeout time.Duration

	// Lookups are the single-item fallbacks tried in order by EnsureItem.
	// Nil means StandardLookups(Path).
	Lookups []Lookup

	// Nil extractor lists select DefaultListExtractors and
	// DefaultItemExtractors.
	ListExtractors []ListExtractor
	ItemExtractors []ItemExtractor

	Logger *log.Logger
	Now    func() time.Time
}

// Snapshot is a consistent view of a Cache delivered to subscribers.
type Snapshot struct {
	Items     []Entry
	State     State
	Err       error
	FetchedAt time.Time
}

// Cache is a coalesced, paginated, in-process cache of one collection.
// It is safe for concurrent use.
type Cache struct {
	cfg    Config
	src    Getter
	logger *log.Logger
	sf     singleflight.Group

	mu        sync.RWMutex
	items     []Entry
	index     map[string]int
	state     State
	err       error
	fetchedAt time.Time
	seq       uint64           // bumped on every load start and invalidation
	epoch     uint64           // bumped on invalidation only
	found     map[string]Entry // lookup results, kept across page publishes

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates an empty Cache reading from src.
func New(src Getter, cfg Config) *Cache {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Lookups == nil {
		cfg.Lookups = StandardLookups(cfg.Path)
	}
	if cfg.ListExtractors == nil {
		cfg.ListExtractors = DefaultListExtractors(cfg.Name)
	}
	if cfg.ItemExtractors == nil {
		cfg.ItemExtractors = DefaultItemExtractors(cfg.Singular, cfg.Name)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		cfg:    cfg,
		src:    src,
		logger: logger.With("resource", cfg.Name),
		index:  make(map[string]int),
		found:  make(map[string]Entry),
		subs:   make(map[int]func(Snapshot)),
	}
}

// Name returns the resource name.
func (c *Cache) Name() string { return c.cfg.Name }

// Ensure loads the whole collection unless it is already Ready. Concurrent
// calls share one fetch sequence. Failures are recorded on the cache, not
// returned; see [Cache.Err].
//
// The fetch itself is not cancelled by ctx, since other callers may be
// waiting on it; ctx only bounds how long this caller waits.
func (c *Cache) Ensure(ctx context.Context) {
	c.mu.RLock()
	ready := c.state == Ready
	c.mu.RUnlock()
	if ready {
		return
	}

	c.mu.Lock()
	if c.state == Ready {
		c.mu.Unlock()
		return
	}
	started := false
	if c.state != Loading {
		c.seq++
		c.state = Loading
		c.err = nil
		started = true
	}
	seq := c.seq
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(loadKey(seq), func() (any, error) {
		return nil, c.load(fetchCtx, seq)
	})
	c.mu.Unlock()

	if started {
		c.notify()
	}
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func loadKey(seq uint64) string { return "load:" + strconv.FormatUint(seq, 10) }

func (c *Cache) load(ctx context.Context, seq uint64) error {
	start := c.cfg.Now()
	hooks := observability.Resource()
	hooks.OnLoadStart(ctx, c.cfg.Name)
	c.logger.Debug("loading collection", "page_size", c.cfg.PageSize)

	var (
		acc    []Entry
		seen   = make(map[string]int)
		offset int
		pages  int
		total  int
	)
	for {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			ferr := &FetchError{Resource: c.cfg.Name, Offset: offset, Err: err}
			c.fail(seq, pages, ferr)
			hooks.OnLoadComplete(ctx, c.cfg.Name, len(acc), pages, c.cfg.Now().Sub(start), ferr)
			return ferr
		}
		pages++
		hooks.OnPage(ctx, c.cfg.Name, offset, len(page.Items))
		if pages == 1 {
			total = len(page.Items)
			if page.Known {
				total = page.Total
			}
		}
		for _, e := range page.Items {
			id := e.ID()
			if id != "" {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = len(acc)
			}
			acc = append(acc, e)
		}
		offset += len(page.Items)
		c.publish(seq, acc, seen)

		if len(page.Items) == 0 || offset >= total {
			break
		}
	}

	c.mu.Lock()
	if c.seq == seq {
		c.state = Ready
		c.err = nil
		c.fetchedAt = c.cfg.Now()
	}
	c.mu.Unlock()
	c.notify()

	elapsed := c.cfg.Now().Sub(start)
	hooks.OnLoadComplete(ctx, c.cfg.Name, len(acc), pages, elapsed, nil)
	c.logger.Debug("loaded collection",
		"items", len(acc),
		"pages", pages,
		"elapsed", elapsed.Round(time.Millisecond))
	return nil
}

func (c *Cache) fetchPage(ctx context.Context, offset int) (Page, error) {
	if c.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.PageTimeout)
		defer cancel()
	}
	query := url.Values{
		"limit":  {strconv.Itoa(c.cfg.PageSize)},
		"offset": {strconv.Itoa(offset)},
	}
	var raw json.RawMessage
	if err := c.src.Get(ctx, c.cfg.Path, query, &raw); err != nil {
		return Page{}, err
	}
	page, ok := extractList(c.cfg.ListExtractors, raw)
	if !ok {
		c.logger.Warn("unrecognised list response, treating as empty page", "offset", offset)
		return Page{}, nil
	}
	return page, nil
}

// publish replaces the visible items with the accumulator of the running
// sequence, followed by any looked-up entries the pages have not delivered.
// A sequence superseded by Invalidate or a newer load is ignored.
func (c *Cache) publish(seq uint64, acc []Entry, seen map[string]int) {
	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		return
	}
	c.items = acc[:len(acc):len(acc)]
	c.index = maps.Clone(seen)
	for id, e := range c.found {
		if _, ok := c.index[id]; !ok {
			c.items = append(c.items, e)
			c.index[id] = len(c.items) - 1
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Cache) fail(seq uint64, pages int, ferr *FetchError) {
	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		return
	}
	c.state = Failed
	c.err = &PartialLoadError{Resource: c.cfg.Name, Pages: pages, Retained: len(c.items), Err: ferr}
	retained := len(c.items)
	c.mu.Unlock()
	c.notify()

	c.logger.Warn("collection load failed", "offset", ferr.Offset, "pages", pages, "retained", retained, "err", ferr.Err)
}

// EnsureItem makes sure the entry with id is cached. It ensures the
// collection first, then tries each configured lookup in order until one
// returns a usable entry, which is appended. A usable entry carries the
// requested id. Lookup failures are logged at debug level; if every lookup
// fails the cache is left unchanged.
//
// As with Ensure, the lookups are shared with concurrent callers and are
// not cancelled by ctx. A lookup that completes after Invalidate is
// discarded.
func (c *Cache) EnsureItem(ctx context.Context, id any) {
	c.Ensure(ctx)

	key := IDString(id)
	if key == "" || c.ByID(key) != nil {
		return
	}
	c.mu.RLock()
	epoch := c.epoch
	c.mu.RUnlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan("item:"+strconv.FormatUint(epoch, 10)+":"+key, func() (any, error) {
		c.lookup(fetchCtx, epoch, key)
		return nil, nil
	})
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func (c *Cache) lookup(ctx context.Context, epoch uint64, key string) {
	if c.ByID(key) != nil {
		return
	}
	hooks := observability.Resource()
	for _, lk := range c.cfg.Lookups {
		path, query := lk.Build(key)
		var raw json.RawMessage
		if err := c.src.Get(ctx, path, query, &raw); err != nil {
			c.logger.Debug("item lookup failed", "lookup", lk.Name, "id", key, "err", err)
			hooks.OnLookup(ctx, c.cfg.Name, lk.Name, false)
			continue
		}
		e, ok := extractItem(c.cfg.ItemExtractors, raw)
		if !ok || e.ID() != key {
			c.logger.Debug("item lookup unusable", "lookup", lk.Name, "id", key, "got", e.ID())
			hooks.OnLookup(ctx, c.cfg.Name, lk.Name, false)
			continue
		}
		hooks.OnLookup(ctx, c.cfg.Name, lk.Name, true)
		c.merge(epoch, e)
		return
	}
	c.logger.Debug("item not found by any lookup", "id", key)
}

// merge appends e unless an entry with the same id exists. The entry is
// remembered so a later page publish keeps it. Entries looked up before the
// last Invalidate are dropped.
func (c *Cache) merge(epoch uint64, e Entry) {
	id := e.ID()
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("dropping lookup result from before invalidation", "id", id)
		return
	}
	c.found[id] = e
	if _, ok := c.index[id]; ok {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items, e)
	c.index[id] = len(c.items) - 1
	c.mu.Unlock()
	c.notify()
}

// ByID returns the entry whose id equals id when both are compared as
// strings, so ByID(42) and ByID("42") are equivalent. It returns nil for a
// falsy id or a missing entry.
func (c *Cache) ByID(id any) Entry {
	key := IDString(id)
	if key == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[key]; ok {
		return c.items[i]
	}
	return nil
}

// FieldOf returns the value at the dotted path of the entry with id, or def
// when the entry or field is missing.
func (c *Cache) FieldOf(id any, path string, def any) any {
	e := c.ByID(id)
	if e == nil {
		return def
	}
	if v, ok := e.Field(path); ok {
		return v
	}
	return def
}

// Items returns a copy of the cached entries in fetch order.
func (c *Cache) Items() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.items...)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// State returns the current lifecycle state.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the error of the last failed load, or nil. A non-nil error
// is a [*PartialLoadError].
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// LastFetchedAt returns when the collection last finished loading, or the
// zero time if it never has.
func (c *Cache) LastFetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Fresh reports whether the cache is Ready and was loaded within maxAge.
func (c *Cache) Fresh(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Ready && c.cfg.Now().Sub(c.fetchedAt) < maxAge
}

// Snapshot returns the current items, state, and error together.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Items:     append([]Entry(nil), c.items...),
		State:     c.state,
		Err:       c.err,
		FetchedAt: c.fetchedAt,
	}
}

// Invalidate clears the cache so the next Ensure refetches from scratch.
// A load in flight keeps running but its results are discarded.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.seq++
	c.epoch++
	c.items = nil
	c.index = make(map[string]int)
	c.found = make(map[string]Entry)
	c.state = Empty
	c.err = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn to receive a Snapshot after every change. The
// returned function unregisters it. fn runs on the goroutine that made the
// change and must not call back into Subscribe.
func (c *Cache) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify() {
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	if len(fns) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
