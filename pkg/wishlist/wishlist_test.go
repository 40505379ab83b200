package wishlist

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/storekit/internal/mockapi"
	"github.com/matzehuels/storekit/pkg/api"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
	"github.com/matzehuels/storekit/pkg/httputil"
)

type token string

func (t token) Token() string  { return string(t) }
func (t token) GuestID() int64 { return 0 }
func (t token) Locale() string { return "en" }

func setup(t *testing.T, tok string) (*Wishlist, *mockapi.Server) {
	t.Helper()
	backend := mockapi.New(mockapi.Options{})
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	c, err := api.NewClient(api.Options{BaseURL: server.URL + "/api", Identity: token(tok), Retry: httputil.NoRetry})
	if err != nil {
		t.Fatal(err)
	}
	return New(c, Options{}), backend
}

func TestWishlist_AddRemove(t *testing.T) {
	ctx := context.Background()
	wl, backend := setup(t, "demo-token")

	if err := wl.Add(ctx, 101); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if !wl.Contains("101") || wl.Count() != 1 {
		t.Fatalf("after Add: contains %v count %d", wl.Contains("101"), wl.Count())
	}
	if err := wl.Add(ctx, "101"); err != nil {
		t.Errorf("second Add() = %v, want nil", err)
	}
	if backend.Hits("POST /api/v1/customer/wish-list/add") != 1 {
		t.Error("Add of a present product should not hit the backend")
	}

	if err := wl.Remove(ctx, 101); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if wl.Contains(101) || wl.Count() != 0 {
		t.Error("product still present after Remove")
	}
}

func TestWishlist_ConflictRefreshes(t *testing.T) {
	ctx := context.Background()
	wl, backend := setup(t, "demo-token")
	// Put the product on the backend list without the local copy knowing.
	wl.Add(ctx, 102)
	wl.rows.Reset()
	if wl.Contains(102) {
		t.Fatal("local copy should be stale")
	}
	before := backend.Hits("GET /api/v1/customer/wish-list")

	if err := wl.Add(ctx, 102); err != nil {
		t.Fatalf("Add() on conflict = %v, want nil", err)
	}
	if backend.Hits("GET /api/v1/customer/wish-list") != before+1 {
		t.Error("conflict should refresh the list")
	}
	if !wl.Contains(102) {
		t.Error("refreshed list should contain the product")
	}
}

func TestWishlist_RemoveAbsentRefreshes(t *testing.T) {
	ctx := context.Background()
	wl, _ := setup(t, "demo-token")
	if err := wl.Remove(ctx, 103); err != nil {
		t.Errorf("Remove() of absent product = %v, want nil", err)
	}
}

func TestWishlist_Toggle(t *testing.T) {
	ctx := context.Background()
	wl, _ := setup(t, "demo-token")

	on, err := wl.Toggle(ctx, 104)
	if err != nil || !on {
		t.Fatalf("Toggle() = %v, %v, want true", on, err)
	}
	on, err = wl.Toggle(ctx, 104)
	if err != nil || on {
		t.Fatalf("second Toggle() = %v, %v, want false", on, err)
	}
}

func TestWishlist_Unauthorized(t *testing.T) {
	ctx := context.Background()
	wl, _ := setup(t, "")

	if _, err := wl.Toggle(ctx, 105); !skerrors.Is(err, skerrors.ErrCodeUnauthorized) {
		t.Errorf("Toggle() error = %v, want UNAUTHORIZED", err)
	}
	if _, err := wl.List(ctx, true); !skerrors.Is(err, skerrors.ErrCodeUnauthorized) {
		t.Errorf("List() error = %v, want UNAUTHORIZED", err)
	}
	if wl.Count() != 0 || wl.Err() == nil {
		t.Errorf("failed list: count %d err %v", wl.Count(), wl.Err())
	}
}

func TestWishlist_ClearAll(t *testing.T) {
	ctx := context.Background()
	wl, backend := setup(t, "demo-token")
	wl.Add(ctx, 106)
	wl.Add(ctx, 107)

	if err := wl.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}
	if wl.Count() != 0 {
		t.Errorf("Count() = %d after ClearAll", wl.Count())
	}
	before := backend.Hits("GET /api/v1/customer/wish-list")
	wl.List(ctx, false)
	if backend.Hits("GET /api/v1/customer/wish-list") != before {
		t.Error("cleared list should be fresh")
	}
}

func TestWishlist_InvalidID(t *testing.T) {
	wl, _ := setup(t, "demo-token")
	if err := wl.Add(context.Background(), ""); !skerrors.Is(err, skerrors.ErrCodeInvalidID) {
		t.Errorf("Add(\"\") = %v, want INVALID_ID", err)
	}
}
