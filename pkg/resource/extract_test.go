package resource

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestDefaultListExtractors(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLen   int
		wantTotal int
		wantKnown bool
		wantOK    bool
	}{
		{"keyed total_size", `{"brands":[{"id":1},{"id":2}],"total_size":40}`, 2, 40, true, true},
		{"keyed total", `{"brands":[{"id":1}],"total":"7"}`, 1, 7, true, true},
		{"keyed no total", `{"brands":[{"id":1}]}`, 1, 0, false, true},
		{"data envelope", `{"data":[{"id":1},{"id":2},{"id":3}],"total_size":3}`, 3, 3, true, true},
		{"bare array", `[{"id":1},{"id":2}]`, 2, 2, true, true},
		{"plural wins over data", `{"brands":[{"id":1}],"data":[{"id":1},{"id":2}]}`, 1, 0, false, true},
		{"unrecognised", `{"message":"ok"}`, 0, 0, false, false},
		{"scalar", `42`, 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := extractList(DefaultListExtractors("brands"), json.RawMessage(tt.raw))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if len(p.Items) != tt.wantLen || p.Total != tt.wantTotal || p.Known != tt.wantKnown {
				t.Errorf("page = {%d items, total %d, known %v}, want {%d, %d, %v}",
					len(p.Items), p.Total, p.Known, tt.wantLen, tt.wantTotal, tt.wantKnown)
			}
		})
	}
}

func TestDefaultItemExtractors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantID string
		wantOK bool
	}{
		{"singular", `{"brand":{"id":5}}`, "5", true},
		{"plural first", `{"brands":[{"id":6},{"id":7}]}`, "6", true},
		{"data first", `{"data":[{"id":"8"}]}`, "8", true},
		{"data object", `{"data":{"id":9}}`, "9", true},
		{"bare array", `[{"id":10}]`, "10", true},
		{"bare object", `{"id":11,"name":"x"}`, "11", true},
		{"empty array", `[]`, "", false},
		{"object without id", `{"name":"x"}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := extractItem(DefaultItemExtractors("brand", "brands"), json.RawMessage(tt.raw))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && e.ID() != tt.wantID {
				t.Errorf("id = %q, want %q", e.ID(), tt.wantID)
			}
		})
	}
}

func TestIDString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{42, "42"},
		{"42", "42"},
		{42.0, "42"},
		{json.Number("42"), "42"},
		{int64(9007199254740993), "9007199254740993"},
		{nil, ""},
		{"", ""},
		{0, ""},
		{json.Number("0"), ""},
		{false, ""},
		{"  7 ", "7"},
	}
	for _, tt := range tests {
		if got := IDString(tt.in); got != tt.want {
			t.Errorf("IDString(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntryField(t *testing.T) {
	e := Entry{"id": 1, "translation": map[string]any{"name": "Nike"}, "logo": nil}
	if v, ok := e.Field("translation.name"); !ok || v != "Nike" {
		t.Errorf("Field(translation.name) = %v, %v", v, ok)
	}
	if _, ok := e.Field("translation.missing"); ok {
		t.Error("missing nested field reported present")
	}
	if _, ok := e.Field("id.deeper"); ok {
		t.Error("path through a scalar reported present")
	}
	if _, ok := e.Field("logo"); ok {
		t.Error("null field reported present")
	}
	if e.String("id") != "" {
		t.Error("String() of a non-string should be empty")
	}
}

func TestStandardLookups(t *testing.T) {
	lookups := StandardLookups("v1/brands/")
	want := []struct {
		path  string
		query url.Values
	}{
		{"v1/brands/details/12", nil},
		{"v1/brands/12", nil},
		{"v1/brands", url.Values{"id": {"12"}}},
	}
	if len(lookups) != len(want) {
		t.Fatalf("len = %d, want %d", len(lookups), len(want))
	}
	for i, w := range want {
		path, q := lookups[i].Build("12")
		if path != w.path || q.Encode() != w.query.Encode() {
			t.Errorf("lookup %d = %s?%s, want %s?%s", i, path, q.Encode(), w.path, w.query.Encode())
		}
	}
}
