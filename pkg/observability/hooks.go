// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hooks at startup to receive events about collection
// loads and API calls without storekit depending on any particular
// metrics or tracing backend. The defaults are no-ops.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResourceHooks(&myResourceHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resource().OnLoadStart(ctx, "brands")
//	// ... fetch pages ...
//	observability.Resource().OnLoadComplete(ctx, "brands", items, pages, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resource Hooks
// =============================================================================

// ResourceHooks receives events from resource caches.
type ResourceHooks interface {
	// OnLoadStart records the start of a full collection load.
	OnLoadStart(ctx context.Context, resource string)

	// OnPage records one fetched page.
	OnPage(ctx context.Context, resource string, offset, items int)

	// OnLoadComplete records the end of a load. err is non-nil when the
	// load stopped early; items is what the cache retained.
	OnLoadComplete(ctx context.Context, resource string, items, pages int, duration time.Duration, err error)

	// OnLookup records a single-item lookup attempt.
	OnLookup(ctx context.Context, resource, lookup string, found bool)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API client.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a transport failure (network error, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResourceHooks is a no-op implementation of ResourceHooks.
type NoopResourceHooks struct{}

func (NoopResourceHooks) OnLoadStart(context.Context, string)      {}
func (NoopResourceHooks) OnPage(context.Context, string, int, int) {}
func (NoopResourceHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopResourceHooks) OnLookup(context.Context, string, string, bool) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resourceHooks ResourceHooks = NoopResourceHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetResourceHooks registers custom resource hooks. A nil h is ignored.
func SetResourceHooks(h ResourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resourceHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Resource returns the registered resource hooks.
func Resource() ResourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resourceHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resourceHooks = NoopResourceHooks{}
	httpHooks = NoopHTTPHooks{}
}
