// Package catalog exposes the storefront's read-only catalog: the cached
// brand collection plus thin helpers for product lists, search, product
// details, categories, and paged brand listings.
//
// [Brands] is the only cached resource; it wraps a [resource.Cache] so
// every caller in the process shares one brand list. Product and category
// helpers return the backend's JSON unchanged.
package catalog
