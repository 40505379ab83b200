// Package cart manages the customer's shopping cart on the storefront
// backend.
//
// The cart is a short list reloaded from v1/cart/ after every mutation.
// Reads within a few seconds of the last fetch are served from memory, and
// concurrent reloads share one request.
package cart

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storekit/pkg/api"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/resource"
)

// Endpoints.
const (
	ListPath      = "v1/cart/"
	AddPath       = "v1/cart/add"
	UpdatePath    = "v1/cart/update"
	RemovePath    = "v1/cart/remove"
	RemoveAllPath = "v1/cart/remove-all"
)

// Requester is the subset of the API client the cart needs.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, v any) error
	Post(ctx context.Context, path string, body, v any) error
	Put(ctx context.Context, path string, body, v any) error
	Delete(ctx context.Context, path string, body, v any) error
}

// Options configures a Cart.
type Options struct {
	Freshness time.Duration // zero means resource.DefaultFreshness
	Logger    *log.Logger
	Now       func() time.Time
}

// Cart is the customer's cart. It is safe for concurrent use.
type Cart struct {
	c      Requester
	rows   *resource.Rows
	logger *log.Logger
}

// New creates a Cart over c.
func New(c Requester, opts Options) *Cart {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Cart{
		c:      c,
		logger: logger,
		rows: resource.NewRows(c, resource.RowsConfig{
			Name:      "cart",
			Path:      ListPath,
			Freshness: opts.Freshness,
			Logger:    logger,
			Now:       opts.Now,
		}),
	}
}

// List returns the cart rows. Unless force is set, a non-empty cart
// fetched within the freshness window is returned without a request.
func (c *Cart) List(ctx context.Context, force bool) ([]resource.Entry, error) {
	items, err := c.rows.List(ctx, force)
	if err != nil {
		return items, api.ToError(err, "load cart")
	}
	return items, nil
}

// Items returns the rows from the last fetch.
func (c *Cart) Items() []resource.Entry { return c.rows.Items() }

// Count returns the number of cart rows.
func (c *Cart) Count() int { return c.rows.Len() }

// Err returns the error of the last operation, or nil.
func (c *Cart) Err() error { return c.rows.Err() }

// AddRequest describes a product to add. Zero-valued optional fields are
// not sent.
type AddRequest struct {
	ProductID any
	Quantity  int

	Variant      string
	Color        string
	Size         string
	VariantType  string
	SKU          string
	Price        float64
	BasePrice    float64
	Discount     float64
	DiscountType string
}

// body builds the add payload. The backend has accepted the unit price
// under several names over time, so Price is sent under each of them.
func (r AddRequest) body() map[string]any {
	b := map[string]any{
		"id":       wireID(resource.IDString(r.ProductID)),
		"quantity": r.Quantity,
	}
	set := func(k, v string) {
		if v != "" {
			b[k] = v
		}
	}
	setNum := func(k string, v float64) {
		if v != 0 {
			b[k] = v
		}
	}
	set("variant", r.Variant)
	set("color", r.Color)
	set("size", r.Size)
	set("variant_type", r.VariantType)
	set("sku", r.SKU)
	setNum("price", r.Price)
	setNum("base_price", r.BasePrice)
	setNum("discount", r.Discount)
	set("discount_type", r.DiscountType)
	for _, alias := range []string{"final_price", "unit_price", "selling_price"} {
		setNum(alias, r.Price)
	}
	return b
}

// Add adds a product and returns the refreshed cart.
func (c *Cart) Add(ctx context.Context, req AddRequest) ([]resource.Entry, error) {
	if err := skerrors.ValidateID(resource.IDString(req.ProductID)); err != nil {
		return nil, err
	}
	if err := skerrors.ValidateQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := c.c.Post(ctx, AddPath, req.body(), nil); err != nil {
		return nil, c.fail(err, "add product %v to cart", req.ProductID)
	}
	c.logger.Debug("added to cart", "product", req.ProductID, "quantity", req.Quantity)
	return c.List(ctx, true)
}

// Update sets the quantity of the row with key.
func (c *Cart) Update(ctx context.Context, key int64, quantity int) ([]resource.Entry, error) {
	if key <= 0 {
		return nil, skerrors.New(skerrors.ErrCodeInvalidID, "invalid cart key %d", key)
	}
	if err := skerrors.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	body := map[string]any{"key": key, "quantity": quantity}
	if err := c.c.Put(ctx, UpdatePath, body, nil); err != nil {
		return nil, c.fail(err, "update cart row %d", key)
	}
	return c.List(ctx, true)
}

// UpdateByProduct sets the quantity of product's row, adding the product
// when it is not in the cart yet.
func (c *Cart) UpdateByProduct(ctx context.Context, product resource.Entry, quantity int) ([]resource.Entry, error) {
	if key, ok := c.KeyFor(product); ok {
		return c.Update(ctx, key, quantity)
	}
	pid := productID(product)
	if pid == "" {
		return c.List(ctx, false)
	}
	return c.Add(ctx, AddRequest{ProductID: pid, Quantity: quantity})
}

// Remove deletes the row with key.
func (c *Cart) Remove(ctx context.Context, key int64) ([]resource.Entry, error) {
	if key <= 0 {
		return nil, skerrors.New(skerrors.ErrCodeInvalidID, "invalid cart key %d", key)
	}
	if err := c.c.Delete(ctx, RemovePath, map[string]any{"key": key}, nil); err != nil {
		return nil, c.fail(err, "remove cart row %d", key)
	}
	return c.List(ctx, true)
}

// RemoveByProduct deletes product's row. A product not in the cart is a
// no-op.
func (c *Cart) RemoveByProduct(ctx context.Context, product resource.Entry) ([]resource.Entry, error) {
	key, ok := c.KeyFor(product)
	if !ok {
		return c.Items(), nil
	}
	return c.Remove(ctx, key)
}

// ClearAll empties the cart.
func (c *Cart) ClearAll(ctx context.Context) ([]resource.Entry, error) {
	// The endpoint requires a key but ignores its value.
	if err := c.c.Delete(ctx, RemoveAllPath, map[string]any{"key": "all"}, nil); err != nil {
		return nil, c.fail(err, "clear cart")
	}
	return c.List(ctx, true)
}

func (c *Cart) fail(err error, format string, args ...any) error {
	err = api.ToError(err, format, args...)
	c.rows.SetErr(err)
	return err
}

// KeyFor returns the cart key of the row holding product. The product id
// is read from id, product_id, or product.id. When both the product and a
// row carry a variant they must match.
func (c *Cart) KeyFor(product resource.Entry) (int64, bool) {
	pid := productID(product)
	if pid == "" {
		return 0, false
	}
	variant := firstString(product, "variant", "current_variant", "chosen_variant")
	row, ok := c.rows.Find(func(row resource.Entry) bool {
		if rowProductID(row) != pid {
			return false
		}
		rv := firstString(row, "variant")
		return variant == "" || rv == "" || rv == variant
	})
	if !ok {
		return 0, false
	}
	for _, field := range []string{"id", "key"} {
		if key, err := strconv.ParseInt(resource.IDString(row[field]), 10, 64); err == nil && key > 0 {
			return key, true
		}
	}
	return 0, false
}

// QtyOf returns the quantity of product in the cart, or 0.
func (c *Cart) QtyOf(product resource.Entry) int {
	pid := productID(product)
	if pid == "" {
		return 0
	}
	row, ok := c.rows.Find(func(row resource.Entry) bool { return rowProductID(row) == pid })
	if !ok {
		return 0
	}
	for _, field := range []string{"quantity", "qty"} {
		// Quantities may arrive as 2, "2", or 2.0.
		f, err := strconv.ParseFloat(resource.IDString(row[field]), 64)
		if n := int(f); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func productID(product resource.Entry) string {
	for _, path := range []string{"id", "product_id", "product.id"} {
		v, _ := product.Field(path)
		if id := resource.IDString(v); id != "" {
			return id
		}
	}
	return ""
}

func rowProductID(row resource.Entry) string {
	for _, path := range []string{"product_id", "product.id"} {
		v, _ := row.Field(path)
		if id := resource.IDString(v); id != "" {
			return id
		}
	}
	return ""
}

func firstString(e resource.Entry, fields ...string) string {
	for _, f := range fields {
		if s := resource.IDString(e[f]); s != "" {
			return s
		}
	}
	return ""
}

// wireID sends numeric ids as numbers, as the backend expects.
func wireID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
