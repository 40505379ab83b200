package resource

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Page is one decoded page of a list response.
type Page struct {
	Items []Entry
	Total int  // declared total size of the collection
	Known bool // whether the response declared a total
}

// ListExtractor recognises one list-response envelope. It reports false
// when raw does not have its shape.
type ListExtractor func(raw json.RawMessage) (Page, bool)

// ItemExtractor recognises one single-item envelope. It reports false when
// raw does not have its shape.
type ItemExtractor func(raw json.RawMessage) (Entry, bool)

// KeyedList matches {"<key>": [...], "total_size"|"total": N}.
func KeyedList(key string) ListExtractor {
	return func(raw json.RawMessage) (Page, bool) {
		obj, ok := decodeObject(raw)
		if !ok {
			return Page{}, false
		}
		items, ok := decodeEntries(obj[key])
		if !ok {
			return Page{}, false
		}
		p := Page{Items: items}
		p.Total, p.Known = declaredTotal(obj)
		return p, true
	}
}

// BareList matches a top-level JSON array. The page length is the total,
// so no further pages are fetched.
func BareList(raw json.RawMessage) (Page, bool) {
	items, ok := decodeEntries(raw)
	if !ok {
		return Page{}, false
	}
	return Page{Items: items, Total: len(items), Known: true}, true
}

// DefaultListExtractors returns the envelopes the storefront API uses for
// a collection named plural: {plural: [...]}, {data: [...]}, and a bare
// array, in that order.
func DefaultListExtractors(plural string) []ListExtractor {
	return []ListExtractor{KeyedList(plural), KeyedList("data"), BareList}
}

// KeyedItem matches {"<key>": {...}}.
func KeyedItem(key string) ItemExtractor {
	return func(raw json.RawMessage) (Entry, bool) {
		obj, ok := decodeObject(raw)
		if !ok {
			return nil, false
		}
		return decodeEntry(obj[key])
	}
}

// KeyedFirst matches {"<key>": [...]} and takes the first element.
func KeyedFirst(key string) ItemExtractor {
	return func(raw json.RawMessage) (Entry, bool) {
		obj, ok := decodeObject(raw)
		if !ok {
			return nil, false
		}
		return BareFirst(obj[key])
	}
}

// BareFirst matches a top-level array and takes the first element.
func BareFirst(raw json.RawMessage) (Entry, bool) {
	items, ok := decodeEntries(raw)
	if !ok || len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

// BareObject matches a top-level object carrying an id.
func BareObject(raw json.RawMessage) (Entry, bool) {
	e, ok := decodeEntry(raw)
	if !ok || e.ID() == "" {
		return nil, false
	}
	return e, true
}

// DefaultItemExtractors returns the single-item envelopes the storefront
// API uses: {singular: {...}}, {plural: [...]}, {data: [...]}, {data: {...}},
// a bare array, and a bare object. Envelopes are tried before the bare
// object because every envelope is itself an object.
func DefaultItemExtractors(singular, plural string) []ItemExtractor {
	return []ItemExtractor{
		KeyedItem(singular),
		KeyedFirst(plural),
		KeyedFirst("data"),
		KeyedItem("data"),
		BareFirst,
		BareObject,
	}
}

func extractList(extractors []ListExtractor, raw json.RawMessage) (Page, bool) {
	for _, x := range extractors {
		if p, ok := x(raw); ok {
			return p, true
		}
	}
	return Page{}, false
}

func extractItem(extractors []ItemExtractor, raw json.RawMessage) (Entry, bool) {
	for _, x := range extractors {
		if e, ok := x(raw); ok {
			return e, true
		}
	}
	return nil, false
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// declaredTotal reads total_size, then total. Numeric strings are accepted
// because some backends serialise counts as strings.
func declaredTotal(obj map[string]json.RawMessage) (int, bool) {
	for _, key := range []string{"total_size", "total"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if v, err := strconv.ParseFloat(string(n), 64); err == nil {
				return int(v), true
			}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.Atoi(s); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func unmarshalNumber(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
