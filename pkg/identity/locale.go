package identity

import (
	"strings"

	"golang.org/x/text/language"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
)

var (
	locales       = []string{Arabic, English}
	localeMatcher = language.NewMatcher([]language.Tag{language.Arabic, language.English})
)

// NormalizeLocale maps a BCP 47 tag such as "en-US" or "ar_SA" to the
// storefront locale it selects. Tags matching neither Arabic nor English
// return an INVALID_LOCALE error.
func NormalizeLocale(tag string) (string, error) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return "", skerrors.ValidateLocale("")
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", skerrors.Wrap(skerrors.ErrCodeInvalidLocale, err, "unsupported locale %q (want ar or en)", tag)
	}
	_, idx, conf := localeMatcher.Match(parsed)
	if conf == language.No {
		return "", skerrors.New(skerrors.ErrCodeInvalidLocale, "unsupported locale %q (want ar or en)", tag)
	}
	return locales[idx], nil
}
