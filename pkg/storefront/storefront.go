// Package storefront wires the storekit client components together: one
// API client, one identity session, and one instance of each shared
// collection, so every caller in a process sees the same caches.
package storefront

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storekit/pkg/api"
	"github.com/matzehuels/storekit/pkg/cart"
	"github.com/matzehuels/storekit/pkg/catalog"
	"github.com/matzehuels/storekit/pkg/compare"
	"github.com/matzehuels/storekit/pkg/config"
	"github.com/matzehuels/storekit/pkg/httputil"
	"github.com/matzehuels/storekit/pkg/identity"
	"github.com/matzehuels/storekit/pkg/storage"
	"github.com/matzehuels/storekit/pkg/wishlist"
)

// Storefront holds the wired components.
type Storefront struct {
	Config   config.Config
	Store    storage.Store
	Session  *identity.Session
	API      *api.Client
	Brands   *catalog.Brands
	Products *catalog.Products
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Compare  *compare.List

	logger *log.Logger
}

// Option customises New.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP transport, e.g. for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New wires a Storefront from cfg. store persists identity and the
// compare list; logger may be nil.
func New(cfg config.Config, store storage.Store, logger *log.Logger, opts ...Option) (*Storefront, error) {
	if logger == nil {
		logger = log.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	session := identity.New(store, logger)
	client, err := api.NewClient(api.Options{
		BaseURL:    cfg.APIBase,
		Identity:   session,
		HTTPClient: o.httpClient,
		Timeout:    cfg.RequestTimeout.Duration,
		Retry: httputil.Policy{
			Attempts: cfg.RetryAttempts,
			Delay:    httputil.DefaultPolicy.Delay,
			MaxDelay: httputil.DefaultPolicy.MaxDelay,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return &Storefront{
		Config:  cfg,
		Store:   store,
		Session: session,
		API:     client,
		Brands: catalog.NewBrands(client, catalog.BrandOptions{
			PageSize:    cfg.PageSize,
			PageTimeout: cfg.PageTimeout.Duration,
			Logger:      logger,
		}),
		Products: catalog.NewProducts(client),
		Cart:     cart.New(client, cart.Options{Freshness: cfg.Freshness.Duration, Logger: logger}),
		Wishlist: wishlist.New(client, wishlist.Options{Freshness: cfg.Freshness.Duration, Logger: logger}),
		Compare: compare.New(store, compare.Options{
			MaxItems:  cfg.Compare.MaxItems,
			AssetBase: compare.AssetBase(client.BaseURL()),
			Logger:    logger,
		}),
		logger: logger,
	}, nil
}

// Bootstrap restores the persisted identity and compare list, obtains a
// guest id when none is known, and loads the customer profile when a token
// is present. A rejected token is cleared rather than reported.
func (s *Storefront) Bootstrap(ctx context.Context) error {
	if err := s.Session.Restore(ctx); err != nil {
		return err
	}
	if s.Session.Locale() != s.Config.Locale && !s.restoredLocale(ctx) {
		if err := s.Session.SetLocale(ctx, s.Config.Locale); err != nil {
			return err
		}
	}
	if err := s.Compare.Load(ctx); err != nil {
		s.logger.Warn("could not restore compare list", "err", err)
	}
	s.Session.EnsureGuest(ctx, s.API)
	if s.Session.LoggedIn() {
		if _, err := s.Session.LoadProfile(ctx, s.API); err != nil {
			s.logger.Info("stored login is no longer valid", "err", err)
		}
	}
	s.logger.Debug("storefront ready",
		"api", s.API.BaseURL(),
		"guest_id", s.Session.GuestID(),
		"locale", s.Session.Locale(),
		"logged_in", s.Session.LoggedIn())
	return nil
}

// restoredLocale reports whether a locale was persisted, in which case it
// wins over the configured default.
func (s *Storefront) restoredLocale(ctx context.Context) bool {
	_, ok, err := s.Store.Get(ctx, storage.KeyLocale)
	return ok && err == nil
}

// Close releases the store.
func (s *Storefront) Close() error { return s.Store.Close() }
