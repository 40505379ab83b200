package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/matzehuels/storekit/internal/mockapi"
	"github.com/matzehuels/storekit/pkg/api"
	"github.com/matzehuels/storekit/pkg/catalog"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func browser(t *testing.T, brands int) BrandListModel {
	t.Helper()
	server := httptest.NewServer(mockapi.New(mockapi.Options{Brands: brands}))
	t.Cleanup(server.Close)
	c, err := api.NewClient(api.Options{BaseURL: server.URL + "/api"})
	if err != nil {
		t.Fatal(err)
	}
	return NewBrandListModel(context.Background(), catalog.NewBrands(c, catalog.BrandOptions{PageSize: 4}))
}

func update(m BrandListModel, msg tea.Msg) BrandListModel {
	next, _ := m.Update(msg)
	return next.(BrandListModel)
}

func TestBrandListModel_Loads(t *testing.T) {
	m := browser(t, 10)
	if !strings.Contains(m.View(), "Loading brands") {
		t.Errorf("initial view = %q", m.View())
	}

	m = update(m, m.Init()())
	if m.Loading || len(m.Brands) != 10 {
		t.Fatalf("loaded %d brands, loading %v", len(m.Brands), m.Loading)
	}
	if view := m.View(); !strings.Contains(view, "Brand 1") || !strings.Contains(view, "[1/10]") {
		t.Errorf("view = %q", view)
	}
}

func TestBrandListModel_Navigation(t *testing.T) {
	m := browser(t, 10)
	m = update(m, m.Init()())
	m = update(m, tea.WindowSizeMsg{Width: 80, Height: 13})

	m = update(m, press("up"))
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first brand: %d", m.Cursor)
	}
	for range 12 {
		m = update(m, press("down"))
	}
	if m.Cursor != 9 {
		t.Errorf("cursor = %d, want 9", m.Cursor)
	}
	if m.Offset != 5 {
		t.Errorf("offset = %d, want 5 for a 5-row window", m.Offset)
	}
	if m.Selected().ID() != "10" {
		t.Errorf("selected = %v", m.Selected())
	}

	m = update(m, press("enter"))
	if !m.Detail || !strings.Contains(m.View(), "brand/10.png") {
		t.Errorf("detail view = %q", m.View())
	}
	m = update(m, press("g"))
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("home: cursor %d offset %d", m.Cursor, m.Offset)
	}
}

func TestBrandListModel_Quit(t *testing.T) {
	m := browser(t, 1)
	_, cmd := m.Update(press("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestBrandListModel_Empty(t *testing.T) {
	var m BrandListModel
	m = update(m, brandsMsg{})
	if m.Selected() != nil || !strings.Contains(m.View(), "No brands") {
		t.Errorf("empty view = %q", m.View())
	}
}

func TestBrandListModel_Program(t *testing.T) {
	tm := teatest.NewTestModel(t, browser(t, 10), teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("[1/10]"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(press("down"))
	tm.Send(press("down"))
	tm.Send(press("enter"))
	tm.Send(press("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(BrandListModel)
	if final.Cursor != 2 || !final.Detail {
		t.Errorf("final cursor %d detail %v, want 2 true", final.Cursor, final.Detail)
	}
	if final.Selected().ID() != "3" {
		t.Errorf("selected = %v, want brand 3", final.Selected())
	}
}

func TestBrandKeysHelp(t *testing.T) {
	keys := defaultBrandKeys()
	if len(keys.ShortHelp()) != 5 {
		t.Errorf("short help has %d bindings", len(keys.ShortHelp()))
	}
	m := browser(t, 1)
	if view := m.View(); !strings.Contains(view, "quit") || !strings.Contains(view, "reload") {
		t.Errorf("view should show key help, got %q", view)
	}
}
