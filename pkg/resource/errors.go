package resource

import "fmt"

// FetchError is a failed page request.
type FetchError struct {
	Resource string
	Offset   int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s page at offset %d: %v", e.Resource, e.Offset, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PartialLoadError records a fetch sequence that failed after zero or more
// pages succeeded. Retained is the number of items kept from those pages.
type PartialLoadError struct {
	Resource string
	Pages    int
	Retained int
	Err      error
}

func (e *PartialLoadError) Error() string {
	return fmt.Sprintf("load %s: failed after %d page(s), %d item(s) retained: %v",
		e.Resource, e.Pages, e.Retained, e.Err)
}

func (e *PartialLoadError) Unwrap() error { return e.Err }
