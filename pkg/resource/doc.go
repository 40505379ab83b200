// Package resource implements a coalesced, paginated, in-process cache for
// storefront collections such as brands.
//
// A [Cache] loads an entire collection with [Cache.Ensure], fetching pages
// of [Config.PageSize] items in increasing offset order until the declared
// total is reached or a page comes back empty. Concurrent callers share a
// single fetch sequence: while one is in flight, every other Ensure waits
// for it instead of starting another.
//
// # States
//
//	Empty ──Ensure──▶ Loading ──ok──▶ Ready
//	                     │
//	                     └──error──▶ Failed ──Ensure──▶ Loading
//
// Ready is terminal until [Cache.Invalidate]. Failed keeps whatever pages
// arrived before the error; the next Ensure restarts from offset 0.
//
// # Best-effort loading
//
// Ensure and EnsureItem never return errors. A UI can render partial or
// empty data instead of failing; callers that need strict behaviour check
// [Cache.State] and [Cache.Err].
//
// # Response shapes
//
// List and single-item responses are decoded by ordered extractor lists
// ([ListExtractor], [ItemExtractor]). The first extractor that recognises a
// response wins, so new envelopes can be supported by prepending an
// extractor without touching the loader.
//
// # Visibility
//
// Items are published after every page, so readers observe partial progress
// while the cache is Loading. Subscribers registered with [Cache.Subscribe]
// are notified after each publish. Entries found by EnsureItem stay visible
// across later publishes until the next Invalidate.
//
// # Cancellation
//
// Shared fetches run detached from any one caller's context. A caller's ctx
// only bounds its own wait, so one caller giving up never fails the others.
//
// # Rows
//
// [Rows] holds a small unpaginated list such as the cart. A forced
// [Rows.List] never joins a fetch whose request was sent before it was
// called, so a refresh after a mutation always observes that mutation.
package resource
