// Package pkg provides the core libraries for storekit, a client for the
// storefront API.
//
// # Overview
//
// storekit keeps client-side copies of storefront collections (brands,
// cart rows, wishlist rows) in sync with the backend and exposes them as
// simple query methods. The pkg directory is organized into three areas:
//
//  1. [resource] - The coalesced, paginated collection cache everything else builds on
//  2. Domain packages - [catalog], [cart], [wishlist], [compare], [identity]
//  3. Infrastructure - [api], [storage], [config], [errors], [httputil], [observability]
//
// [storefront] wires them together for a configured backend.
//
// # Architecture
//
// The typical data flow:
//
//	storefront API
//	       ↓
//	  [api] client (identity headers, locale, retries)
//	       ↓
//	  [resource] cache (single shared fetch, pages, lookups)
//	       ↓
//	  [catalog] / [cart] / [wishlist] views
//	       ↓
//	  CLI or TUI
//
// # Quick Start
//
//	cfg, _ := config.Load("")
//	store, _ := storage.Open(ctx, cfg.Store)
//	sf, _ := storefront.New(cfg, store, log.Default())
//	defer sf.Close()
//
//	if err := sf.Bootstrap(ctx); err != nil {
//	    return err
//	}
//
//	sf.Brands.Ensure(ctx)
//	fmt.Println(sf.Brands.NameOf(7))
//
//	sf.Brands.EnsureBrand(ctx, 31) // not in the list; tries single-item endpoints
//
// # Caching Semantics
//
// A [resource.Cache] loads its whole collection at most once per
// invalidation. Concurrent Ensure calls join the same fetch; pages are
// published as they arrive so readers see a growing prefix. A failed page
// keeps what was already fetched and records a [resource.PartialLoadError].
//
// # Persistence
//
// [storage] persists the session (token, guest id, locale) and the compare
// list. The CLI uses the file backend; redis, mongo, and postgres serve shared
// deployments, and the memory backend serves tests.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/resource/...           # Specific package
//	go test -tags integration ./pkg/...  # Include database-backed store tests
//
// [resource]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/resource
// [catalog]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/catalog
// [cart]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/cart
// [wishlist]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/wishlist
// [compare]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/compare
// [identity]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/identity
// [api]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/api
// [storage]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/storage
// [config]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/observability
// [storefront]: https://pkg.go.dev/github.com/matzehuels/storekit/pkg/storefront
package pkg
