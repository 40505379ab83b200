package compare

import (
	"regexp"
	"strings"
)

// DefaultAssetBase is used when no API base is configured.
const DefaultAssetBase = "http://127.0.0.1:8000"

var (
	absoluteURL = regexp.MustCompile(`(?i)^(https?:|data:|blob:)`)
	apiSuffix   = regexp.MustCompile(`/api(/v\d+)?/?$`)
	slashes     = regexp.MustCompile(`/+`)
)

// AssetBase derives the public asset root from an API base by dropping a
// trailing /api or /api/vN: "https://shop.test/api/v1" becomes
// "https://shop.test".
func AssetBase(apiBase string) string {
	if apiBase == "" {
		return DefaultAssetBase
	}
	return strings.TrimRight(apiBase[:len(apiBase)-len(apiSuffix.FindString(apiBase))], "/")
}

// ImageURL resolves a product image path stored by the backend into an
// absolute URL under assetBase. Absolute, data:, and blob: URLs are
// returned unchanged. Laravel storage prefixes are normalised and bare
// file names are placed under the product thumbnail directory.
func ImageURL(assetBase, path string) string {
	if path == "" {
		return ""
	}
	if absoluteURL.MatchString(path) {
		return path
	}
	p := strings.ReplaceAll(path, `\`, "/")
	for _, prefix := range []string{"public/", "app/public/", "storage/app/public/"} {
		p = strings.TrimPrefix(p, prefix)
	}
	p = strings.TrimPrefix(slashes.ReplaceAllString(p, "/"), "/")
	if !strings.HasPrefix(p, "storage/") {
		p = "storage/app/public/product/thumbnail/" + p
	}
	return strings.TrimRight(assetBase, "/") + "/" + p
}
