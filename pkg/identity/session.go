// Package identity tracks who the storefront client is acting as: the
// bearer token and profile of a logged-in customer, the guest id the
// backend issues to anonymous visitors, and the selected locale.
//
// A [Session] implements [api.Identity], so the API client reads the
// current values on every request. Changes are persisted to a
// [storage.Store] and restored with [Session.Restore].
package identity

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storekit/pkg/api"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/storage"
)

// Locales.
const (
	Arabic  = "ar"
	English = "en"

	DefaultLocale = Arabic
)

// Endpoints.
const (
	GuestPath   = "v1/get-guest-id"
	ProfilePath = "v1/customer/info"
)

// Getter performs a GET against the storefront API.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values, v any) error
}

// Session is the client identity. It is safe for concurrent use.
type Session struct {
	store  storage.Store
	logger *log.Logger

	mu      sync.RWMutex
	token   string
	guestID int64
	locale  string
	user    map[string]any
}

// New creates a Session backed by store with the default locale. A nil
// store keeps state in memory only.
func New(store storage.Store, logger *log.Logger) *Session {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Session{store: store, logger: logger, locale: DefaultLocale}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) GuestID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guestID
}

func (s *Session) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// User returns the loaded customer profile, or nil.
func (s *Session) User() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// LoggedIn reports whether a token is set.
func (s *Session) LoggedIn() bool { return s.Token() != "" }

// Restore loads the persisted token, guest id, and locale. Values already
// set on the session are kept. Unreadable or invalid values are ignored.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.read(ctx, storage.KeyAuthToken)
	if err != nil {
		return err
	}
	guest, err := s.read(ctx, storage.KeyGuestID)
	if err != nil {
		return err
	}
	locale, err := s.read(ctx, storage.KeyLocale)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" && token != "" {
		s.token = token
	}
	if s.guestID == 0 {
		if id, ok := parseGuestID(guest); ok {
			s.guestID = id
		}
	}
	if locale == Arabic || locale == English {
		s.locale = locale
	}
	return nil
}

func (s *Session) read(ctx context.Context, key string) (string, error) {
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", skerrors.Wrap(skerrors.ErrCodeInternal, err, "restore %s", key)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}

// EnsureGuest obtains a guest id from the backend when none is known and
// persists it. Backend failures are logged and otherwise ignored, since
// requests still work without one. It returns the current guest id.
func (s *Session) EnsureGuest(ctx context.Context, c Getter) int64 {
	if id := s.GuestID(); id != 0 {
		return id
	}
	var raw json.RawMessage
	if err := c.Get(ctx, GuestPath, nil, &raw); err != nil {
		s.logger.Debug("guest id request failed", "err", err)
		return 0
	}
	id, ok := guestFromResponse(raw)
	if !ok {
		s.logger.Debug("guest id response not understood", "body", string(raw))
		return 0
	}
	if err := s.SetGuestID(ctx, id); err != nil {
		s.logger.Warn("could not persist guest id", "err", err)
	}
	return id
}

// SetGuestID replaces and persists the guest id. Zero clears it.
func (s *Session) SetGuestID(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.guestID = id
	s.mu.Unlock()
	if id == 0 {
		return s.store.Delete(ctx, storage.KeyGuestID)
	}
	return s.store.Set(ctx, storage.KeyGuestID, []byte(strconv.FormatInt(id, 10)))
}

// SetToken replaces and persists the bearer token. An empty token logs
// out. The cached profile is dropped either way.
func (s *Session) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()
	if token == "" {
		return s.store.Delete(ctx, storage.KeyAuthToken)
	}
	return s.store.Set(ctx, storage.KeyAuthToken, []byte(token))
}

// Logout clears the token and profile.
func (s *Session) Logout(ctx context.Context) error {
	return s.SetToken(ctx, "")
}

// LoadProfile fetches the customer profile for the current token. Any
// failure means the token is no longer valid, so the token and profile are
// cleared and an UNAUTHORIZED error is returned.
func (s *Session) LoadProfile(ctx context.Context, c Getter) (map[string]any, error) {
	if !s.LoggedIn() {
		return nil, skerrors.New(skerrors.ErrCodeUnauthorized, "not logged in")
	}
	var me map[string]any
	if err := c.Get(ctx, ProfilePath, nil, &me); err != nil {
		s.logger.Debug("profile request failed, clearing token", "err", err)
		if lerr := s.Logout(ctx); lerr != nil {
			s.logger.Warn("could not clear token", "err", lerr)
		}
		return nil, skerrors.Wrap(skerrors.ErrCodeUnauthorized, err, "load profile")
	}
	s.mu.Lock()
	s.user = me
	s.mu.Unlock()
	return me, nil
}

// SetLocale selects Arabic or English and persists it. Regional tags
// such as "en-GB" are accepted; see [NormalizeLocale].
func (s *Session) SetLocale(ctx context.Context, locale string) error {
	locale, err := NormalizeLocale(locale)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()
	return s.store.Set(ctx, storage.KeyLocale, []byte(locale))
}

// Toggle switches between Arabic and English and returns the new locale.
func (s *Session) Toggle(ctx context.Context) (string, error) {
	next := Arabic
	if s.Locale() == Arabic {
		next = English
	}
	return next, s.SetLocale(ctx, next)
}

// Dir returns the text direction of the locale: "rtl" or "ltr".
func (s *Session) Dir() string {
	if s.Locale() == Arabic {
		return "rtl"
	}
	return "ltr"
}

// IsRTL reports whether the locale is written right to left.
func (s *Session) IsRTL() bool { return s.Dir() == "rtl" }

var _ api.Identity = (*Session)(nil)

// guestFromResponse accepts {"guest_id": N}, {"id": N}, or a bare N, where
// N is a number or numeric string.
func guestFromResponse(raw json.RawMessage) (int64, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"guest_id", "id"} {
			if v, ok := obj[key]; ok {
				if id, ok := guestValue(v); ok {
					return id, true
				}
			}
		}
		return 0, false
	}
	return guestValue(raw)
}

func guestValue(raw json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return parseGuestID(string(n))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseGuestID(s)
	}
	return 0, false
}

func parseGuestID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return id, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}
