package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/matzehuels/storekit/pkg/api"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
)

// Requester is the subset of the API client the catalog helpers need.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, v any) error
	Post(ctx context.Context, path string, body, v any) error
}

// ListKind names one of the storefront's curated product lists.
type ListKind string

const (
	Latest       ListKind = "latest"
	Featured     ListKind = "featured"
	TopRated     ListKind = "top-rated"
	BestSellings ListKind = "best-sellings"
	NewArrival   ListKind = "new-arrival"
	Discounted   ListKind = "discounted-product"
	JustForYou   ListKind = "just-for-you"
	Clearance    ListKind = "clearance-sale"
)

// ListKinds returns every curated list in display order.
func ListKinds() []ListKind {
	return []ListKind{Latest, Featured, TopRated, BestSellings, NewArrival, Discounted, JustForYou, Clearance}
}

// Search defaults.
const (
	DefaultSearchLimit  = 24
	DefaultSearchOffset = 1
)

// Products fetches product data. Responses are returned as raw JSON.
type Products struct {
	c Requester
}

// NewProducts creates product helpers over c.
func NewProducts(c Requester) *Products { return &Products{c: c} }

// List fetches one curated list.
func (p *Products) List(ctx context.Context, kind ListKind) (json.RawMessage, error) {
	return p.get(ctx, "v1/products/"+string(kind), nil)
}

func (p *Products) Latest(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, Latest)
}

func (p *Products) Featured(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, Featured)
}

func (p *Products) TopRated(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, TopRated)
}

func (p *Products) BestSellings(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, BestSellings)
}

func (p *Products) NewArrival(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, NewArrival)
}

func (p *Products) Discounted(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, Discounted)
}

func (p *Products) JustForYou(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, JustForYou)
}

func (p *Products) Clearance(ctx context.Context) (json.RawMessage, error) {
	return p.List(ctx, Clearance)
}

// ByCategory lists the products of a category.
func (p *Products) ByCategory(ctx context.Context, categoryID any) (json.RawMessage, error) {
	id, err := requireID(categoryID)
	if err != nil {
		return nil, err
	}
	return p.get(ctx, "v1/categories/products/"+id, nil)
}

// ByBrand lists the products of a brand.
func (p *Products) ByBrand(ctx context.Context, brandID any) (json.RawMessage, error) {
	id, err := requireID(brandID)
	if err != nil {
		return nil, err
	}
	return p.get(ctx, "v1/brands/products/"+id, nil)
}

// Search finds products by name. Non-positive limit and offset select the
// defaults (24 and 1; offsets are 1-based page numbers on this endpoint).
func (p *Products) Search(ctx context.Context, q string, limit, offset int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if offset <= 0 {
		offset = DefaultSearchOffset
	}
	return p.get(ctx, "v1/products/search", url.Values{
		"name":   {q},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	})
}

// Filter posts a filter body and returns the matching products.
func (p *Products) Filter(ctx context.Context, body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := p.c.Post(ctx, "v1/products/filter", body, &out); err != nil {
		return nil, api.ToError(err, "filter products")
	}
	return out, nil
}

// Details fetches one product by slug.
func (p *Products) Details(ctx context.Context, slug string) (json.RawMessage, error) {
	if err := skerrors.ValidateSlug(slug); err != nil {
		return nil, err
	}
	return p.get(ctx, "v1/products/details/"+url.PathEscape(slug), nil)
}

// Related lists products related to productID.
func (p *Products) Related(ctx context.Context, productID any) (json.RawMessage, error) {
	id, err := requireID(productID)
	if err != nil {
		return nil, err
	}
	return p.get(ctx, "v1/products/related-products/"+id, nil)
}

func (p *Products) get(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := p.c.Get(ctx, path, q, &out); err != nil {
		return nil, api.ToError(err, "get %s", path)
	}
	return out, nil
}

func requireID(id any) (string, error) {
	s := resource.IDString(id)
	if err := skerrors.ValidateID(s); err != nil {
		return "", err
	}
	return url.PathEscape(s), nil
}
