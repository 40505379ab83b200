package catalog

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/matzehuels/storekit/pkg/api"
)

// BrandPage defaults, used by filter sidebars.
const (
	BrandPageLimit  = "200"
	BrandPageOffset = "1"
)

// Categories fetches the category tree. params are passed as query
// parameters.
func Categories(ctx context.Context, c Requester, params url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.Get(ctx, "v1/categories", params, &out); err != nil {
		return nil, api.ToError(err, "get categories")
	}
	return out, nil
}

// BrandPage fetches one uncached page of brands. limit and offset default
// to 200 and 1; params override them.
func BrandPage(ctx context.Context, c Requester, params url.Values) (json.RawMessage, error) {
	q := url.Values{"limit": {BrandPageLimit}, "offset": {BrandPageOffset}}
	for k, vs := range params {
		q[k] = vs
	}
	var out json.RawMessage
	if err := c.Get(ctx, BrandsPath, q, &out); err != nil {
		return nil, api.ToError(err, "get brand page")
	}
	return out, nil
}
