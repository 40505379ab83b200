package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateID validates a resource identifier (product, brand, cart key)
// before it is interpolated into an API path.
//
// The rules are conservative:
//   - No empty ids
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidID, "id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "id contains invalid characters")
		}
	}
	for _, pattern := range []string{"/", "\\", ".."} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "id contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateQuantity validates a cart line quantity.
func ValidateQuantity(qty int) error {
	if qty < 1 {
		return New(ErrCodeInvalidQuantity, "quantity must be at least 1, got %d", qty)
	}
	if qty > 10000 {
		return New(ErrCodeInvalidQuantity, "quantity too large (max 10000), got %d", qty)
	}
	return nil
}

// ValidateLocale validates a storefront locale. Only the locales the
// storefront ships translations for are accepted.
func ValidateLocale(locale string) error {
	switch locale {
	case "ar", "en":
		return nil
	case "":
		return New(ErrCodeInvalidLocale, "locale cannot be empty")
	default:
		return New(ErrCodeInvalidLocale, "unsupported locale %q (want ar or en)", locale)
	}
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

var slugRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}._-]*$`)

// ValidateSlug validates a product slug as used by the details endpoint.
// Slugs may contain letters from any script, since product names are
// frequently Arabic.
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidInput, "slug cannot be empty")
	}
	if len(slug) > 256 {
		return New(ErrCodeInvalidInput, "slug too long (max 256 characters)")
	}
	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidInput, "invalid slug: %q", slug)
	}
	return nil
}
