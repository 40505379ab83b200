// Package api is the shared HTTP client for the storefront REST API.
//
// Every resource package (catalog, cart, wishlist, identity) talks to the
// backend through a single [Client], which owns the cross-cutting request
// details the storefront backend expects:
//
//   - guest_id and locale query parameters on every request
//   - Authorization: Bearer <token> once the customer has logged in
//   - a lang header carrying the backend locale code
//   - X-Request-ID for correlating client and server logs
//   - retries with exponential backoff for transient failures
//
// The current token, guest id, and locale are read from an [Identity] at
// call time, so logging in or switching language takes effect on the next
// request without rebuilding the client.
//
// # Errors
//
// Non-2xx responses are returned as [*HTTPError]. 404 responses also match
// [ErrNotFound] and transport failures match [ErrNetwork] via errors.Is.
// Use [StatusOf] to read the status code from an error chain.
//
// # Locales
//
// The storefront uses "ar" and "en" while the backend stores Arabic under
// "sa". [BackendLocale] performs the mapping and defaults to "sa".
package api
