package storefront

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/storekit/internal/mockapi"
	"github.com/matzehuels/storekit/pkg/config"
	"github.com/matzehuels/storekit/pkg/storage"
)

func setup(t *testing.T, store storage.Store) (*Storefront, *mockapi.Server) {
	t.Helper()
	backend := mockapi.New(mockapi.Options{Brands: 30, HiddenBrands: 2})
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.APIBase = server.URL + "/api"
	cfg.PageSize = 10
	sf, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return sf, backend
}

func TestBootstrap_Guest(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sf, backend := setup(t, store)

	if err := sf.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	if sf.Session.GuestID() == 0 {
		t.Fatal("guest id should be issued")
	}
	if sf.Session.Locale() != "ar" {
		t.Errorf("locale = %q", sf.Session.Locale())
	}

	// A second process restores the guest id instead of asking again.
	again, fresh := setup(t, store)
	if err := again.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	if again.Session.GuestID() != sf.Session.GuestID() {
		t.Errorf("restored guest %d, want %d", again.Session.GuestID(), sf.Session.GuestID())
	}
	if backend.Hits("GET /api/v1/get-guest-id") != 1 || fresh.Hits("GET /api/v1/get-guest-id") != 0 {
		t.Error("a persisted guest id should not be requested again")
	}
}

func TestBootstrap_Token(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, storage.KeyAuthToken, []byte("demo-token"))
	sf, _ := setup(t, store)

	if err := sf.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	if !sf.Session.LoggedIn() || sf.Session.User()["f_name"] != "Demo" {
		t.Errorf("profile = %v", sf.Session.User())
	}

	store.Set(ctx, storage.KeyAuthToken, []byte("revoked"))
	stale, _ := setup(t, store)
	if err := stale.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() with a rejected token = %v, want nil", err)
	}
	if stale.Session.LoggedIn() {
		t.Error("rejected token should be cleared")
	}
}

func TestBrandsEndToEnd(t *testing.T) {
	ctx := context.Background()
	sf, backend := setup(t, storage.NewMemoryStore())

	sf.Brands.Ensure(ctx)
	if len(sf.Brands.List()) != 30 || !sf.Brands.Ready() {
		t.Fatalf("brands = %d ready %v", len(sf.Brands.List()), sf.Brands.Ready())
	}
	if got := backend.Hits("GET /api/v1/brands"); got != 3 {
		t.Errorf("page requests = %d, want 3", got)
	}
	if sf.Brands.NameOf("7") != "Brand 7" {
		t.Errorf("NameOf(7) = %q", sf.Brands.NameOf("7"))
	}

	sf.Brands.EnsureBrand(ctx, 31)
	if sf.Brands.ByID(31) == nil {
		t.Error("hidden brand should be fetched by its detail endpoint")
	}
	if backend.Hits("GET /api/v1/brands/details/31") != 1 {
		t.Error("detail endpoint should be tried first")
	}
	if backend.Hits("GET /api/v1/brands") != 3 {
		t.Error("ensuring a brand should not reload the list")
	}
}

func TestBootstrap_PersistedLocaleWins(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, storage.KeyLocale, []byte("en"))
	sf, _ := setup(t, store)
	if err := sf.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	if sf.Session.Locale() != "en" || sf.Session.Dir() != "ltr" {
		t.Errorf("locale = %q dir = %q", sf.Session.Locale(), sf.Session.Dir())
	}
}

func TestCompareUsesAssetBase(t *testing.T) {
	ctx := context.Background()
	sf, _ := setup(t, storage.NewMemoryStore())
	it, err := sf.Compare.Add(ctx, map[string]any{"id": 1, "thumbnail": "a.png"})
	if err != nil {
		t.Fatal(err)
	}
	want := sf.API.BaseURL()[:len(sf.API.BaseURL())-len("/api")] + "/storage/app/public/product/thumbnail/a.png"
	if it.Image != want {
		t.Errorf("Image = %q, want %q", it.Image, want)
	}
}
