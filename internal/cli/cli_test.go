package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/storekit/internal/mockapi"
	skerrors "github.com/matzehuels/storekit/pkg/errors"
)

// harness runs storekit commands against a mock API with state kept in a
// temporary config directory.
type harness struct {
	t       *testing.T
	api     string
	backend *mockapi.Server
	home    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	for _, name := range []string{"STOREKIT_API_BASE", "STOREKIT_LOCALE", "STOREKIT_STORE", "STOREKIT_STORE_DIR", "STOREKIT_POSTGRES_DSN"} {
		t.Setenv(name, "")
	}

	backend := mockapi.New(mockapi.Options{Brands: 30, HiddenBrands: 1, Logger: newLogger(io.Discard, LogInfo)})
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	return &harness{t: t, api: server.URL + "/api", backend: backend, home: home}
}

// run executes one command and returns what it printed.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(append([]string{"--api-base", h.api}, args...))
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("storekit %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestBrandsCommands(t *testing.T) {
	h := newHarness(t)

	var brands []map[string]any
	if err := json.Unmarshal([]byte(h.mustRun("brands", "list", "--json")), &brands); err != nil {
		t.Fatalf("brands list --json is not JSON: %v", err)
	}
	if len(brands) != 30 {
		t.Errorf("listed %d brands, want 30", len(brands))
	}

	if out := h.mustRun("brands", "list"); !strings.Contains(out, "Brand 17") || !strings.Contains(out, "30 brands") {
		t.Errorf("brands list output = %q", out)
	}

	if out := h.mustRun("brands", "name", "31"); strings.TrimSpace(out) != "Brand 31" {
		t.Errorf("brands name 31 = %q, want Brand 31", out)
	}

	_, err := h.run("brands", "get", "999")
	if !skerrors.Is(err, skerrors.ErrCodeNotFound) {
		t.Errorf("brands get 999 error = %v, want NOT_FOUND", err)
	}
}

func TestGuestIsRemembered(t *testing.T) {
	h := newHarness(t)
	first := strings.TrimSpace(h.mustRun("guest"))
	second := strings.TrimSpace(h.mustRun("guest"))
	if first == "" || first != second {
		t.Errorf("guest ids %q and %q should match", first, second)
	}
	if got := h.backend.Hits("GET /api/v1/get-guest-id"); got != 1 {
		t.Errorf("guest id requested %d times, want 1", got)
	}
}

func TestCartCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("cart", "add", "101", "--qty", "2"); !strings.Contains(out, "Product 1") {
		t.Errorf("cart add output = %q", out)
	}
	h.mustRun("cart", "update", "101", "5")
	if out := h.mustRun("cart", "list"); !strings.Contains(out, "5") || !strings.Contains(out, "1 rows") {
		t.Errorf("cart list output = %q", out)
	}
	if out := h.mustRun("cart", "remove", "101"); !strings.Contains(out, "empty") {
		t.Errorf("cart remove output = %q", out)
	}
	if out := h.mustRun("cart", "remove", "101"); !strings.Contains(out, "not in the cart") {
		t.Errorf("second remove output = %q", out)
	}

	if _, err := h.run("cart", "update", "101", "many"); !skerrors.Is(err, skerrors.ErrCodeInvalidQuantity) {
		t.Errorf("non-numeric quantity error = %v", err)
	}
}

func TestAuthAndWishlist(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run("wishlist", "list"); !skerrors.Is(err, skerrors.ErrCodeUnauthorized) {
		t.Fatalf("wishlist without login error = %v, want UNAUTHORIZED", err)
	}
	if _, err := h.run("auth", "login", "wrong-token"); !skerrors.Is(err, skerrors.ErrCodeUnauthorized) {
		t.Fatalf("login with a bad token error = %v, want UNAUTHORIZED", err)
	}

	if out := h.mustRun("auth", "login", "demo-token"); !strings.Contains(out, "Demo Customer") {
		t.Errorf("login output = %q", out)
	}
	if out := h.mustRun("auth", "whoami"); !strings.Contains(out, "Demo Customer") || !strings.Contains(out, "demo@example.com") {
		t.Errorf("whoami output = %q", out)
	}

	if out := h.mustRun("wishlist", "toggle", "102"); !strings.Contains(out, "on the wishlist") {
		t.Errorf("toggle on output = %q", out)
	}
	if out := h.mustRun("wishlist", "list"); !strings.Contains(out, "Product 2") {
		t.Errorf("wishlist list output = %q", out)
	}
	if out := h.mustRun("wishlist", "toggle", "102"); !strings.Contains(out, "off the wishlist") {
		t.Errorf("toggle off output = %q", out)
	}

	h.mustRun("auth", "logout")
	if out := h.mustRun("auth", "whoami"); !strings.Contains(out, "not logged in") {
		t.Errorf("whoami after logout = %q", out)
	}
}

func TestCompareCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("compare", "add", "product-1"); !strings.Contains(out, "Comparing Product 1") {
		t.Errorf("compare add output = %q", out)
	}
	if _, err := h.run("compare", "add", "product-1"); !skerrors.Is(err, skerrors.ErrCodeAlreadyExists) {
		t.Errorf("duplicate add error = %v, want ALREADY_EXISTS", err)
	}
	out := h.mustRun("compare", "list")
	if !strings.Contains(out, "Product 1") || !strings.Contains(out, "Brand 2") {
		t.Errorf("compare list output = %q", out)
	}
	h.mustRun("compare", "clear")
	if out := h.mustRun("compare", "list"); !strings.Contains(out, "Nothing to compare") {
		t.Errorf("compare list after clear = %q", out)
	}
}

func TestProductsCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("products", "list", "latest"); !strings.Contains(out, "product-12") {
		t.Errorf("products list output = %q", out)
	}
	if _, err := h.run("products", "list", "bogus"); err == nil {
		t.Error("unknown list kind should be rejected")
	}
	if out := h.mustRun("products", "search", "product 1"); !strings.Contains(out, "4 of 4 products") {
		t.Errorf("search output = %q", out)
	}
	if out := h.mustRun("products", "details", "product-3"); !strings.Contains(out, `"name": "Product 3"`) {
		t.Errorf("details output = %q", out)
	}
	if out := h.mustRun("products", "filter", "--body", `{"brand":[3]}`); !strings.Contains(out, "product-2") {
		t.Errorf("filter output = %q", out)
	}
}

func TestLocaleCommand(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun("locale"); !strings.HasPrefix(out, "ar") {
		t.Errorf("default locale output = %q", out)
	}
	h.mustRun("locale", "toggle")
	if out := h.mustRun("locale"); !strings.HasPrefix(out, "en") {
		t.Errorf("locale after toggle = %q", out)
	}
	if out := h.mustRun("--locale", "ar", "locale"); !strings.HasPrefix(out, "ar") {
		t.Errorf("--locale output = %q", out)
	}
}

func TestConfigAndStoreCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("config", "show"); !strings.Contains(out, `api_base = "`+h.api+`"`) {
		t.Errorf("config show output = %q", out)
	}
	if out := h.mustRun("config", "path"); strings.TrimSpace(out) != filepath.Join(h.home, "storekit", "config.toml") {
		t.Errorf("config path = %q", out)
	}
	if out := h.mustRun("store", "path"); strings.TrimSpace(out) != filepath.Join(h.home, "storekit", "store") {
		t.Errorf("store path = %q", out)
	}
	if out := h.mustRun("--store", "memory", "store", "path"); !strings.Contains(out, "memory") {
		t.Errorf("memory store path = %q", out)
	}

	h.mustRun("guest")
	if out := h.mustRun("store", "clear"); !strings.Contains(out, "Cleared 1 stored entries") {
		t.Errorf("store clear output = %q", out)
	}

	if _, err := h.run("--store", "cassandra", "guest"); !skerrors.Is(err, skerrors.ErrCodeInvalidConfig) {
		t.Errorf("unknown backend error = %v, want INVALID_CONFIG", err)
	}
}

func TestConfigFormatsAndEnvFile(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("config", "show", "--format", "yaml"); !strings.Contains(out, "api_base: ") || !strings.Contains(out, "backend: file") {
		t.Errorf("config show --format yaml output = %q", out)
	}
	if _, err := h.run("config", "show", "--format", "xml"); !skerrors.Is(err, skerrors.ErrCodeInvalidInput) {
		t.Errorf("unknown format error = %v, want INVALID_INPUT", err)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	body := "STOREKIT_STORE=postgres\nSTOREKIT_POSTGRES_DSN=postgres://shop:secret@db:5432/shop\n"
	if err := os.WriteFile(envFile, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	out := h.mustRun("--env-file", envFile, "store", "path")
	if strings.TrimSpace(out) != "postgres://shop:xxxxx@db:5432/shop (table storekit_values)" {
		t.Errorf("postgres store path = %q", out)
	}
	if strings.Contains(out, "secret") {
		t.Error("store path leaked the password")
	}
}

func TestCompletionCommand(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun("completion", "bash"); !strings.Contains(out, "storekit") {
		t.Errorf("bash completion does not mention storekit:\n%.200s", out)
	}
	if _, err := h.run("completion", "tcsh"); !skerrors.Is(err, skerrors.ErrCodeInvalidInput) {
		t.Errorf("completion tcsh error = %v, want INVALID_INPUT", err)
	}
}
