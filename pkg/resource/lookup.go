package resource

import (
	"net/url"
	"strings"
)

// Lookup builds the request for one single-item fallback endpoint.
type Lookup struct {
	Name  string // used in logs, e.g. "details"
	Build func(id string) (path string, query url.Values)
}

// PathLookup substitutes {id} in template, e.g. "v1/brands/details/{id}".
func PathLookup(name, template string) Lookup {
	return Lookup{
		Name: name,
		Build: func(id string) (string, url.Values) {
			return strings.ReplaceAll(template, "{id}", url.PathEscape(id)), nil
		},
	}
}

// QueryLookup passes the id as a query parameter, e.g. "v1/brands?id=7".
func QueryLookup(name, path, param string) Lookup {
	return Lookup{
		Name: name,
		Build: func(id string) (string, url.Values) {
			return path, url.Values{param: {id}}
		},
	}
}

// StandardLookups returns the three fallbacks the storefront exposes for a
// collection at path: detail-by-id, path-param-by-id, and query-param-by-id.
func StandardLookups(path string) []Lookup {
	path = strings.TrimRight(path, "/")
	return []Lookup{
		PathLookup("details", path+"/details/{id}"),
		PathLookup("path", path+"/{id}"),
		QueryLookup("query", path, "id"),
	}
}
