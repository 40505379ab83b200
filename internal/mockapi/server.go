// Package mockapi is an in-memory stand-in for the storefront backend. It
// serves the catalog, cart, wishlist, guest, and profile endpoints the
// storekit packages use, under /api.
//
// It backs `storekit mock` and the package tests.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Options configures a Server.
type Options struct {
	// Brands is the number of brands served by the list endpoint.
	Brands int

	// HiddenBrands are served by the detail endpoints only, so clients
	// must fall back to a single-brand lookup to see them.
	HiddenBrands int

	// MaxPageSize caps the limit parameter of the brand list. Zero means
	// no cap.
	MaxPageSize int

	// Tokens maps accepted bearer tokens to customer names.
	Tokens map[string]string

	// Latency is added to every response.
	Latency time.Duration

	Logger *log.Logger
}

// Server is the mock backend. It is safe for concurrent use.
type Server struct {
	opts   Options
	logger *log.Logger
	router chi.Router

	brands   []map[string]any
	hidden   []map[string]any
	products []map[string]any

	guestSeq atomic.Int64

	mu       sync.Mutex
	hits     map[string]int
	failures map[string]int
	cart     []map[string]any
	cartKey  int64
	wishlist []int64
}

// New builds a Server with seeded data.
func New(opts Options) *Server {
	if opts.Brands == 0 {
		opts.Brands = 25
	}
	if opts.Tokens == nil {
		opts.Tokens = map[string]string{"demo-token": "Demo Customer"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		opts:     opts,
		logger:   logger,
		hits:     make(map[string]int),
		failures: make(map[string]int),
	}
	s.guestSeq.Store(1000)
	s.seed()
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hits returns how many requests matched the route pattern, e.g.
// "GET /api/v1/brands".
func (s *Server) Hits(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[pattern]
}

// FailNext makes the next n requests matching pattern fail with 500.
func (s *Server) FailNext(pattern string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[pattern] = n
}

func (s *Server) seed() {
	for i := 1; i <= s.opts.Brands+s.opts.HiddenBrands; i++ {
		b := map[string]any{
			"id":             i,
			"name":           fmt.Sprintf("Brand %d", i),
			"image":          fmt.Sprintf("brand/%d.png", i),
			"status":         1,
			"brand_products": i % 7,
			"translation":    map[string]any{"name": fmt.Sprintf("علامة %d", i)},
		}
		if i > s.opts.Brands {
			s.hidden = append(s.hidden, b)
		} else {
			s.brands = append(s.brands, b)
		}
	}
	for i := 1; i <= 12; i++ {
		s.products = append(s.products, map[string]any{
			"id":            100 + i,
			"name":          fmt.Sprintf("Product %d", i),
			"slug":          fmt.Sprintf("product-%d", i),
			"brand_id":      (i % max(s.opts.Brands, 1)) + 1,
			"category_ids":  []any{map[string]any{"id": (i % 3) + 1, "position": 1}},
			"unit_price":    float64(10 * i),
			"thumbnail":     fmt.Sprintf("product-%d.webp", i),
			"current_stock": 50,
		})
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.trace)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/get-guest-id", s.guestID)

		r.Get("/brands", s.listBrands)
		r.Get("/brands/details/{id}", s.brandDetail)
		r.Get("/brands/products/{id}", s.productsByBrand)
		r.Get("/brands/{id}", s.brandDetail)

		r.Get("/categories", s.categories)
		r.Get("/categories/products/{id}", s.productsByCategory)

		r.Get("/products/search", s.searchProducts)
		r.Post("/products/filter", s.filterProducts)
		r.Get("/products/details/{slug}", s.productDetail)
		r.Get("/products/related-products/{id}", s.relatedProducts)
		r.Get("/products/{kind}", s.productList)

		r.Get("/cart/", s.listCart)
		r.Post("/cart/add", s.addCart)
		r.Put("/cart/update", s.updateCart)
		r.Delete("/cart/remove", s.removeCart)
		r.Delete("/cart/remove-all", s.clearCart)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/customer/info", s.profile)
			r.Get("/customer/wish-list", s.listWishlist)
			r.Post("/customer/wish-list/add", s.addWishlist)
			r.Post("/customer/wish-list/remove", s.removeWishlist)
			r.Delete("/customer/wish-list/clear", s.clearWishlist)
		})
	})
	return r
}

// trace counts hits, injects configured failures and latency, and logs
// each request at debug level.
func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pattern := r.Method + " " + strings.TrimRight(r.URL.Path, "/")
		if r.URL.Path == "/api/v1/cart/" {
			pattern = r.Method + " " + r.URL.Path
		}
		s.mu.Lock()
		s.hits[pattern]++
		fail := s.failures[pattern] > 0
		if fail {
			s.failures[pattern]--
		}
		s.mu.Unlock()

		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		s.logger.Debug("mock request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery, "request_id", r.Header.Get("X-Request-ID"))
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, known := s.opts.Tokens[token]; !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"errors": []any{map[string]any{"code": "auth-001", "message": "Unauthorized."}},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) guestID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"guest_id": s.guestSeq.Add(1)})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	name := s.opts.Tokens[token]
	first, last, _ := strings.Cut(name, " ")
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     1,
		"f_name": first,
		"l_name": last,
		"email":  strings.ToLower(first) + "@example.com",
		"token":  uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "No such data found"})
}

func intParam(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}
