package mockapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// listBrands serves {total_size, limit, offset, brands}. offset is an item
// offset. An id query parameter returns that brand alone.
func (s *Server) listBrands(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, _ := strconv.ParseInt(raw, 10, 64)
		if b := s.findBrand(id); b != nil {
			writeJSON(w, http.StatusOK, map[string]any{"brands": []any{b}})
			return
		}
		notFound(w)
		return
	}

	total := len(s.brands)
	limit := intParam(r, "limit", 200)
	if s.opts.MaxPageSize > 0 && limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	offset := min(max(intParam(r, "offset", 0), 0), total)
	end := min(offset+max(limit, 0), total)

	writeJSON(w, http.StatusOK, map[string]any{
		"total_size": total,
		"limit":      limit,
		"offset":     offset,
		"brands":     s.brands[offset:end],
	})
}

func (s *Server) brandDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	if b := s.findBrand(id); b != nil {
		writeJSON(w, http.StatusOK, map[string]any{"brand": b})
		return
	}
	notFound(w)
}

func (s *Server) findBrand(id int64) map[string]any {
	for _, list := range [][]map[string]any{s.brands, s.hidden} {
		for _, b := range list {
			if int64(b["id"].(int)) == id {
				return b
			}
		}
	}
	return nil
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []any{
		map[string]any{"id": 1, "name": "Shoes", "childes": []any{map[string]any{"id": 4, "name": "Sneakers"}}},
		map[string]any{"id": 2, "name": "Bags", "childes": []any{}},
		map[string]any{"id": 3, "name": "Watches", "childes": []any{}},
	})
}

func (s *Server) productList(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "kind") {
	case "latest", "featured", "top-rated", "best-sellings", "new-arrival",
		"discounted-product", "just-for-you", "clearance-sale":
		writeJSON(w, http.StatusOK, s.productPage(s.products))
	default:
		notFound(w)
	}
}

func (s *Server) productPage(items []map[string]any) map[string]any {
	return map[string]any{"total_size": len(items), "limit": 24, "offset": 1, "products": items}
}

func (s *Server) productsByBrand(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	s.filtered(w, func(p map[string]any) bool { return int64(p["brand_id"].(int)) == id })
}

func (s *Server) productsByCategory(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	s.filtered(w, func(p map[string]any) bool {
		for _, c := range p["category_ids"].([]any) {
			if int64(c.(map[string]any)["id"].(int)) == id {
				return true
			}
		}
		return false
	})
}

func (s *Server) relatedProducts(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	s.filtered(w, func(p map[string]any) bool { return int64(p["id"].(int)) != id })
}

func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("name"))
	s.filtered(w, func(p map[string]any) bool {
		return strings.Contains(strings.ToLower(p["name"].(string)), q)
	})
}

func (s *Server) filterProducts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Brand []int64 `json:"brand"`
	}
	decode(r, &body)
	s.filtered(w, func(p map[string]any) bool {
		if len(body.Brand) == 0 {
			return true
		}
		for _, b := range body.Brand {
			if int64(p["brand_id"].(int)) == b {
				return true
			}
		}
		return false
	})
}

func (s *Server) productDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	for _, p := range s.products {
		if p["slug"] == slug {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	notFound(w)
}

func (s *Server) filtered(w http.ResponseWriter, keep func(map[string]any) bool) {
	out := make([]map[string]any, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, s.productPage(out))
}

func (s *Server) product(id int64) map[string]any {
	for _, p := range s.products {
		if int64(p["id"].(int)) == id {
			return p
		}
	}
	return nil
}
