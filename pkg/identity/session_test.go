package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/storekit/pkg/api"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/httputil"
	"github.com/matzehuels/storekit/pkg/storage"
)

func client(t *testing.T, h http.HandlerFunc, id api.Identity) *api.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := api.NewClient(api.Options{BaseURL: server.URL + "/api", Identity: id, Retry: httputil.NoRetry})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return c
}

func TestSession_Defaults(t *testing.T) {
	s := New(nil, nil)
	if s.Locale() != "ar" || s.Dir() != "rtl" || !s.IsRTL() {
		t.Errorf("defaults: locale %q dir %q", s.Locale(), s.Dir())
	}
	if s.LoggedIn() || s.GuestID() != 0 {
		t.Error("new session should be anonymous")
	}
}

func TestSession_RestorePersisted(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, storage.KeyAuthToken, []byte("tok\n"))
	store.Set(ctx, storage.KeyGuestID, []byte("1234"))
	store.Set(ctx, storage.KeyLocale, []byte("en"))

	s := New(store, nil)
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if s.Token() != "tok" || s.GuestID() != 1234 || s.Locale() != "en" {
		t.Errorf("restored token %q guest %d locale %q", s.Token(), s.GuestID(), s.Locale())
	}
	if s.Dir() != "ltr" {
		t.Errorf("Dir() = %q, want ltr", s.Dir())
	}
}

func TestSession_RestoreIgnoresInvalid(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, storage.KeyGuestID, []byte("abc"))
	store.Set(ctx, storage.KeyLocale, []byte("fr"))

	s := New(store, nil)
	if err := s.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if s.GuestID() != 0 || s.Locale() != "ar" {
		t.Errorf("guest %d locale %q, want 0 ar", s.GuestID(), s.Locale())
	}
}

func TestSession_EnsureGuest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"guest_id field", `{"guest_id": 501}`, 501},
		{"id field", `{"id": "502"}`, 502},
		{"bare number", `503`, 503},
		{"bare string", `"504"`, 504},
		{"unusable", `{"message":"ok"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			s := New(store, nil)
			c := client(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/get-guest-id" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}, s)

			if got := s.EnsureGuest(ctx, c); got != tt.want {
				t.Fatalf("EnsureGuest() = %d, want %d", got, tt.want)
			}
			data, ok, _ := store.Get(ctx, storage.KeyGuestID)
			if tt.want == 0 {
				if ok {
					t.Errorf("persisted %q for unusable response", data)
				}
				return
			}
			if !ok || string(data) != strconv.FormatInt(tt.want, 10) || s.GuestID() != tt.want {
				t.Errorf("persisted %q, session %d", data, s.GuestID())
			}
		})
	}
}

func TestSession_EnsureGuestKnownMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	s := New(nil, nil)
	s.SetGuestID(context.Background(), 9)
	c := client(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) }, s)

	if got := s.EnsureGuest(context.Background(), c); got != 9 {
		t.Errorf("EnsureGuest() = %d, want 9", got)
	}
	if calls.Load() != 0 {
		t.Errorf("requests = %d, want 0", calls.Load())
	}
}

func TestSession_EnsureGuestFailureIgnored(t *testing.T) {
	s := New(nil, nil)
	c := client(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, s)
	if got := s.EnsureGuest(context.Background(), c); got != 0 {
		t.Errorf("EnsureGuest() = %d, want 0", got)
	}
}

func TestSession_LoadProfile(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := New(store, nil)
	s.SetToken(ctx, "good")

	c := client(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":1,"f_name":"Sara"}`))
	}, s)

	me, err := s.LoadProfile(ctx, c)
	if err != nil {
		t.Fatalf("LoadProfile() failed: %v", err)
	}
	if me["f_name"] != "Sara" || s.User()["f_name"] != "Sara" {
		t.Errorf("profile = %v", me)
	}

	s.SetToken(ctx, "expired")
	if _, err := s.LoadProfile(ctx, c); !skerrors.Is(err, skerrors.ErrCodeUnauthorized) {
		t.Fatalf("LoadProfile() error = %v, want UNAUTHORIZED", err)
	}
	if s.LoggedIn() || s.User() != nil {
		t.Error("failed profile load should clear token and user")
	}
	if _, ok, _ := store.Get(ctx, storage.KeyAuthToken); ok {
		t.Error("persisted token should be removed")
	}
}

func TestSession_LoadProfileRequiresToken(t *testing.T) {
	s := New(nil, nil)
	if _, err := s.LoadProfile(context.Background(), nil); !skerrors.Is(err, skerrors.ErrCodeUnauthorized) {
		t.Errorf("error = %v, want UNAUTHORIZED", err)
	}
}

func TestSession_Locale(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := New(store, nil)

	if got, err := s.Toggle(ctx); err != nil || got != "en" {
		t.Fatalf("Toggle() = %q, %v", got, err)
	}
	if got, _ := s.Toggle(ctx); got != "ar" {
		t.Errorf("second Toggle() = %q, want ar", got)
	}
	if err := s.SetLocale(ctx, "de"); !skerrors.Is(err, skerrors.ErrCodeInvalidLocale) {
		t.Errorf("SetLocale(de) = %v, want INVALID_LOCALE", err)
	}
	data, _, _ := store.Get(ctx, storage.KeyLocale)
	if string(data) != "ar" {
		t.Errorf("persisted locale = %q, want ar", data)
	}
}

func TestSession_RequestsCarryIdentity(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	s.SetGuestID(ctx, 77)
	s.SetLocale(ctx, "en")
	s.SetToken(ctx, "abc")

	var q, auth, lang string
	c := client(t, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.RawQuery
		auth = r.Header.Get("Authorization")
		lang = r.Header.Get("lang")
	}, s)
	if err := c.Get(ctx, "v1/cart/", nil, nil); err != nil {
		t.Fatal(err)
	}
	if q != "guest_id=77&locale=en" || auth != "Bearer abc" || lang != "en" {
		t.Errorf("query %q auth %q lang %q", q, auth, lang)
	}
}
