package mockapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
)

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// numberOf reads a JSON number or numeric string.
func numberOf(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n > 0
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}

func (s *Server) listCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]map[string]any{}, s.cart...))
}

func (s *Server) addCart(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decode(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return
	}
	pid, ok := numberOf(body["id"])
	qty, _ := body["quantity"].(float64)
	p := s.product(pid)
	if !ok || p == nil || qty < 1 {
		writeJSON(w, http.StatusForbidden, map[string]any{"errors": []any{map[string]any{"code": "cart", "message": "Product not found"}}})
		return
	}
	variant, _ := body["variant"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.cart {
		if row["product_id"] == pid && row["variant"] == variant {
			row["quantity"] = row["quantity"].(int64) + int64(qty)
			writeJSON(w, http.StatusOK, map[string]any{"status": 1, "message": "Successfully added!"})
			return
		}
	}
	price, _ := body["price"].(float64)
	if price == 0 {
		price = p["unit_price"].(float64)
	}
	s.cartKey++
	s.cart = append(s.cart, map[string]any{
		"id":         s.cartKey,
		"product_id": pid,
		"name":       p["name"],
		"variant":    variant,
		"quantity":   int64(qty),
		"price":      price,
		"thumbnail":  p["thumbnail"],
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": 1, "message": "Successfully added!"})
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	decode(r, &body)
	key, _ := numberOf(body["key"])
	qty, _ := body["quantity"].(float64)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.cart {
		if row["id"] == key {
			row["quantity"] = int64(qty)
			writeJSON(w, http.StatusOK, map[string]any{"status": 1, "qty": int64(qty)})
			return
		}
	}
	notFound(w)
}

func (s *Server) removeCart(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	decode(r, &body)
	key, _ := numberOf(body["key"])

	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cart)
	s.cart = slices.DeleteFunc(s.cart, func(row map[string]any) bool { return row["id"] == key })
	if len(s.cart) == n {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Successfully removed"})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if decode(r, &body) != nil || body["key"] == nil {
		writeJSON(w, http.StatusForbidden, map[string]any{"errors": []any{map[string]any{"code": "key", "message": "The key field is required."}}})
		return
	}
	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Successfully removed"})
}

func (s *Server) listWishlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.wishlist))
	for i, pid := range s.wishlist {
		out = append(out, map[string]any{
			"id":         i + 1,
			"product_id": pid,
			"product":    s.product(pid),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addWishlist(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	decode(r, &body)
	pid, ok := numberOf(body["product_id"])
	if !ok || s.product(pid) == nil {
		notFound(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.wishlist, pid) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Already in your wishlist"})
		return
	}
	s.wishlist = append(s.wishlist, pid)
	writeJSON(w, http.StatusOK, map[string]any{"message": "successfully added!"})
}

func (s *Server) removeWishlist(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	decode(r, &body)
	pid, _ := numberOf(body["product_id"])

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.wishlist, pid)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "This product is not in your wishlist"})
		return
	}
	s.wishlist = slices.Delete(s.wishlist, i, i+1)
	writeJSON(w, http.StatusOK, map[string]any{"message": "successfully removed!"})
}

func (s *Server) clearWishlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.wishlist = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "successfully removed!"})
}
