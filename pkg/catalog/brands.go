package catalog

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storekit/pkg/resource"
)

// BrandsPath is the brand list endpoint.
const BrandsPath = "v1/brands"

// BrandOptions tunes the brand cache.
type BrandOptions struct {
	PageSize    int           // zero means resource.DefaultPageSize
	PageTimeout time.Duration // zero means none
	Logger      *log.Logger
}

// Brands is the shared brand collection.
type Brands struct {
	cache *resource.Cache
}

// NewBrands creates the brand cache over src.
func NewBrands(src resource.Getter, opts BrandOptions) *Brands {
	return &Brands{cache: resource.New(src, resource.Config{
		Name:        "brands",
		Singular:    "brand",
		Path:        BrandsPath,
		PageSize:    opts.PageSize,
		PageTimeout: opts.PageTimeout,
		Logger:      opts.Logger,
	})}
}

// Ensure loads every brand unless already loaded.
func (b *Brands) Ensure(ctx context.Context) { b.cache.Ensure(ctx) }

// EnsureBrand makes sure the brand with id is cached, falling back to the
// single-brand endpoints when the list does not contain it.
func (b *Brands) EnsureBrand(ctx context.Context, id any) { b.cache.EnsureItem(ctx, id) }

// List returns the cached brands in fetch order.
func (b *Brands) List() []resource.Entry { return b.cache.Items() }

// ByID returns the cached brand with id, or nil.
func (b *Brands) ByID(id any) resource.Entry { return b.cache.ByID(id) }

// NameOf returns the brand's name, falling back to its translated name, or
// "" when the brand is unknown.
func (b *Brands) NameOf(id any) string {
	e := b.cache.ByID(id)
	if e == nil {
		return ""
	}
	if name := e.String("name"); name != "" {
		return name
	}
	return e.String("translation.name")
}

// Ready reports whether the full list has loaded.
func (b *Brands) Ready() bool { return b.cache.State() == resource.Ready }

// Err returns the last load error, or nil.
func (b *Brands) Err() error { return b.cache.Err() }

// Cache exposes the underlying resource cache for subscriptions and
// invalidation.
func (b *Brands) Cache() *resource.Cache { return b.cache }
