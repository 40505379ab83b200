package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Entry is one decoded item of a cached collection. Only the "id" field has
// meaning to the cache; every other attribute is opaque payload.
//
// Entries handed out by a Cache are shared and must be treated as read-only.
type Entry map[string]any

// ID returns the entry's id in string form, or "" if it has none.
func (e Entry) ID() string {
	return IDString(e["id"])
}

// Field returns the value at a dotted path (e.g. "translation.name").
func (e Entry) Field(path string) (any, bool) {
	var cur any = map[string]any(e)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the value at path as a string, or "" when it is missing or
// not a string.
func (e Entry) String(path string) string {
	v, _ := e.Field(path)
	s, _ := v.(string)
	return s
}

// IDString normalises an id so numeric and string forms compare equal:
// 42, 42.0, json.Number("42") and "42" all yield "42". Falsy ids (nil, "",
// zero, false) yield "".
func IDString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return string(v)
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return IDString(float64(v))
	case int:
		return intID(int64(v))
	case int32:
		return intID(int64(v))
	case int64:
		return intID(v)
	case uint:
		return intID(int64(v))
	case uint32:
		return intID(int64(v))
	case uint64:
		if v == 0 {
			return ""
		}
		return strconv.FormatUint(v, 10)
	case bool:
		if !v {
			return ""
		}
		return "true"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func intID(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// decodeEntry decodes raw into an Entry using json.Number for numbers so
// large ids survive intact. It reports false when raw is not an object.
func decodeEntry(raw json.RawMessage) (Entry, bool) {
	var e Entry
	if err := unmarshalNumber(raw, &e); err != nil || e == nil {
		return nil, false
	}
	return e, true
}

func decodeEntries(raw json.RawMessage) ([]Entry, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		if e, ok := decodeEntry(it); ok {
			out = append(out, e)
		}
	}
	return out, true
}
