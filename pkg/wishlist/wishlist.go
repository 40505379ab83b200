// Package wishlist manages the logged-in customer's wishlist.
//
// The backend answers 409 when adding a product already on the list and
// 404 when removing one that is not. Both mean the local copy is stale, so
// they trigger a refresh and are not reported as errors.
package wishlist

import (
	"context"
	"errors"
	"net/http"
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
	ListPath   = "v1/customer/wish-list"
	AddPath    = "v1/customer/wish-list/add"
	RemovePath = "v1/customer/wish-list/remove"
	ClearPath  = "v1/customer/wish-list/clear"
)

// Requester is the subset of the API client the wishlist needs.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, v any) error
	Post(ctx context.Context, path string, body, v any) error
	Delete(ctx context.Context, path string, body, v any) error
}

// Options configures a Wishlist.
type Options struct {
	Freshness time.Duration // zero means resource.DefaultFreshness
	Logger    *log.Logger
	Now       func() time.Time
}

// Wishlist is the customer's wishlist. It is safe for concurrent use.
type Wishlist struct {
	c      Requester
	rows   *resource.Rows
	logger *log.Logger
}

// New creates a Wishlist over c.
func New(c Requester, opts Options) *Wishlist {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Wishlist{
		c:      c,
		logger: logger,
		rows: resource.NewRows(c, resource.RowsConfig{
			Name:           "wishlist",
			Path:           ListPath,
			Freshness:      opts.Freshness,
			FreshWhenEmpty: true,
			ClearOnError:   true,
			Logger:         logger,
			Now:            opts.Now,
		}),
	}
}

// List returns the wishlist rows, reusing a fetch within the freshness
// window unless force is set. On failure the rows are cleared.
func (wl *Wishlist) List(ctx context.Context, force bool) ([]resource.Entry, error) {
	items, err := wl.rows.List(ctx, force)
	if err != nil {
		return items, authError(err, "load wishlist")
	}
	return items, nil
}

// Items returns the rows from the last fetch.
func (wl *Wishlist) Items() []resource.Entry { return wl.rows.Items() }

// Count returns the number of rows.
func (wl *Wishlist) Count() int { return wl.rows.Len() }

// Err returns the error of the last fetch, or nil.
func (wl *Wishlist) Err() error { return wl.rows.Err() }

// Contains reports whether a row refers to productID through product_id,
// id, or product.id.
func (wl *Wishlist) Contains(productID any) bool {
	pid := resource.IDString(productID)
	if pid == "" {
		return false
	}
	_, ok := wl.rows.Find(matches(pid))
	return ok
}

// Add puts productID on the wishlist. A product already present, locally
// or according to the backend, is not an error.
func (wl *Wishlist) Add(ctx context.Context, productID any) error {
	pid, err := validID(productID)
	if err != nil {
		return err
	}
	if wl.Contains(pid) {
		wl.logger.Debug("already in wishlist, skipping add", "product", pid)
		return nil
	}
	if err := wl.c.Post(ctx, AddPath, map[string]any{"product_id": wireID(pid)}, nil); err != nil {
		if alreadyPresent(err) {
			wl.refresh(ctx)
			return nil
		}
		return authError(err, "add product %s to wishlist", pid)
	}
	wl.refresh(ctx)
	return nil
}

// Remove takes productID off the wishlist. A product the backend does not
// have is not an error.
func (wl *Wishlist) Remove(ctx context.Context, productID any) error {
	pid, err := validID(productID)
	if err != nil {
		return err
	}
	// The backend does not accept a body on DELETE for this route.
	if err := wl.c.Post(ctx, RemovePath, map[string]any{"product_id": wireID(pid)}, nil); err != nil {
		if absent(err) {
			wl.refresh(ctx)
			return nil
		}
		return authError(err, "remove product %s from wishlist", pid)
	}
	wl.rows.Remove(matches(pid))
	return nil
}

// Toggle adds productID when absent and removes it when present. It
// reports whether the product is on the list afterwards. 401 and 403
// responses yield an UNAUTHORIZED error.
func (wl *Wishlist) Toggle(ctx context.Context, productID any) (bool, error) {
	if wl.Contains(productID) {
		if err := wl.Remove(ctx, productID); err != nil {
			return true, err
		}
		return wl.Contains(productID), nil
	}
	if err := wl.Add(ctx, productID); err != nil {
		return false, err
	}
	return wl.Contains(productID), nil
}

// ClearAll empties the wishlist.
func (wl *Wishlist) ClearAll(ctx context.Context) error {
	if err := wl.c.Delete(ctx, ClearPath, nil, nil); err != nil {
		return authError(err, "clear wishlist")
	}
	wl.rows.Reset()
	return nil
}

func (wl *Wishlist) refresh(ctx context.Context) {
	if _, err := wl.rows.List(ctx, true); err != nil {
		wl.logger.Debug("wishlist refresh failed", "err", err)
	}
}

func matches(pid string) func(resource.Entry) bool {
	return func(row resource.Entry) bool {
		for _, path := range []string{"product_id", "id", "product.id"} {
			if v, ok := row.Field(path); ok && resource.IDString(v) == pid {
				return true
			}
		}
		return false
	}
}

func alreadyPresent(err error) bool {
	return api.StatusOf(err) == http.StatusConflict || api.MessageContains(err, "already in your wishlist")
}

func absent(err error) bool {
	return api.StatusOf(err) == http.StatusNotFound ||
		api.MessageContains(err, "not in your wishlist") ||
		api.MessageContains(err, "no such data found")
}

func authError(err error, format string, args ...any) error {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return skerrors.Wrap(skerrors.ErrCodeUnauthorized, err, "login required to "+format, args...)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return api.ToError(err, format, args...)
}

func validID(id any) (string, error) {
	pid := resource.IDString(id)
	if err := skerrors.ValidateID(pid); err != nil {
		return "", err
	}
	return pid, nil
}

func wireID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
