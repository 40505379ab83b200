// Package compare keeps the shopper's product comparison list. The list
// lives in a [storage.Store] under the compare_items key and holds at most
// a few products.
package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
	"github.com/matzehuels/storekit/pkg/storage"
)

// DefaultMaxItems is the comparison capacity.
const DefaultMaxItems = 4

// ProductID is a product id that round-trips as a JSON number when numeric
// and as a string otherwise.
type ProductID string

func (id ProductID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ProductID) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*id = ProductID(resource.IDString(v))
	return nil
}

// Item is the stored summary of a compared product.
type Item struct {
	ID             ProductID      `json:"id"`
	Name           string         `json:"name"`
	Price          float64        `json:"price"`
	Image          string         `json:"image"`
	Slug           string         `json:"slug"`
	Brand          string         `json:"brand"`
	Category       string         `json:"category"`
	Rating         float64        `json:"rating"`
	ReviewsCount   int            `json:"reviews_count"`
	Description    string         `json:"description"`
	Features       []any          `json:"features"`
	Specifications map[string]any `json:"specifications"`
	AddedAt        time.Time      `json:"added_at"`
}

// normalize fills defaults for fields missing from older stored items.
func (it *Item) normalize(now time.Time) {
	if it.Features == nil {
		it.Features = []any{}
	}
	if it.Specifications == nil {
		it.Specifications = map[string]any{}
	}
	if it.AddedAt.IsZero() {
		it.AddedAt = now
	}
}

// Options configures a List.
type Options struct {
	MaxItems  int    // zero means DefaultMaxItems
	AssetBase string // image root, see AssetBase; "" means DefaultAssetBase
	Logger    *log.Logger
	Now       func() time.Time
}

// List is the comparison list. It is safe for concurrent use.
type List struct {
	store  storage.Store
	opts   Options
	logger *log.Logger

	mu    sync.RWMutex
	items []Item
}

// New creates an empty List persisted to store. Call Load to restore the
// stored items.
func New(store storage.Store, opts Options) *List {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.AssetBase == "" {
		opts.AssetBase = DefaultAssetBase
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &List{store: store, opts: opts, logger: logger}
}

// Load restores the stored items, normalises them, and writes the
// normalised form back. An unreadable stored value is discarded.
func (l *List) Load(ctx context.Context) error {
	data, ok, err := l.store.Get(ctx, storage.KeyCompareItems)
	if err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInternal, err, "load compare items")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	if !ok {
		return nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		l.logger.Warn("discarding unreadable compare items", "err", err)
		return nil
	}
	now := l.opts.Now().UTC()
	kept := items[:0]
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		it.normalize(now)
		kept = append(kept, it)
	}
	l.items = kept
	return l.saveLocked(ctx)
}

// Add appends a summary of product. It fails with INVALID_INPUT when the
// product has no id, ALREADY_EXISTS when it is already compared, and
// COMPARE_FULL when the list is at capacity.
func (l *List) Add(ctx context.Context, product resource.Entry) (Item, error) {
	id := ProductID(product.ID())
	if id == "" {
		return Item{}, skerrors.New(skerrors.ErrCodeInvalidInput, "invalid product")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexLocked(id) >= 0 {
		return Item{}, skerrors.New(skerrors.ErrCodeAlreadyExists, "product already in comparison")
	}
	if len(l.items) >= l.opts.MaxItems {
		return Item{}, skerrors.New(skerrors.ErrCodeCompareFull, "maximum %d items can be compared", l.opts.MaxItems)
	}

	it := l.summarize(id, product)
	l.items = append(l.items, it)
	if err := l.saveLocked(ctx); err != nil {
		l.items = l.items[:len(l.items)-1]
		return Item{}, err
	}
	return it, nil
}

func (l *List) summarize(id ProductID, p resource.Entry) Item {
	specs, _ := p["specifications"].(map[string]any)
	features, _ := p["features"].([]any)
	it := Item{
		ID:             id,
		Name:           p.String("name"),
		Price:          firstNumber(p, "price", "unit_price", "selling_price"),
		Image:          ImageURL(l.opts.AssetBase, firstString(p, "thumbnail", "image", "thumbnail_full_url")),
		Slug:           p.String("slug"),
		Brand:          firstString(p, "brand.name", "brand_name"),
		Category:       firstString(p, "category.name", "category_name"),
		Rating:         firstNumber(p, "rating"),
		ReviewsCount:   int(firstNumber(p, "reviews_count")),
		Description:    p.String("description"),
		Features:       features,
		Specifications: specs,
	}
	it.normalize(l.opts.Now().UTC())
	return it
}

// Remove drops the product with id. It fails with NOT_FOUND when absent.
func (l *List) Remove(ctx context.Context, id any) error {
	pid := ProductID(resource.IDString(id))
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(pid)
	if i < 0 {
		return skerrors.New(skerrors.ErrCodeNotFound, "product not found in comparison")
	}
	removed := l.items[i]
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	if err := l.saveLocked(ctx); err != nil {
		l.items = append(l.items[:i:i], append([]Item{removed}, l.items[i:]...)...)
		return err
	}
	return nil
}

// Contains reports whether the product with id is compared.
func (l *List) Contains(id any) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexLocked(ProductID(resource.IDString(id))) >= 0
}

// Clear empties the list and stores the empty list.
func (l *List) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	return l.saveLocked(ctx)
}

// Reset deletes the stored list entirely.
func (l *List) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	if err := l.store.Delete(ctx, storage.KeyCompareItems); err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInternal, err, "reset compare items")
	}
	return nil
}

// Items returns a copy of the compared items in insertion order.
func (l *List) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Item(nil), l.items...)
}

func (l *List) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List) Full() bool  { return l.Count() >= l.opts.MaxItems }
func (l *List) Empty() bool { return l.Count() == 0 }

// MaxItems returns the capacity.
func (l *List) MaxItems() int { return l.opts.MaxItems }

func (l *List) indexLocked(id ProductID) int {
	if id == "" {
		return -1
	}
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (l *List) saveLocked(ctx context.Context) error {
	items := l.items
	if items == nil {
		items = []Item{}
	}
	if err := storage.SetJSON(ctx, l.store, storage.KeyCompareItems, items); err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInternal, err, "save compare items")
	}
	return nil
}

func firstString(e resource.Entry, paths ...string) string {
	for _, p := range paths {
		if s := e.String(p); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(e resource.Entry, paths ...string) float64 {
	for _, p := range paths {
		v, _ := e.Field(p)
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		case json.Number:
			f, _ = n.Float64()
		case string:
			f, _ = strconv.ParseFloat(n, 64)
		}
		if f != 0 {
			return f
		}
	}
	return 0
}
