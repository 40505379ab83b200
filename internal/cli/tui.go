package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/storekit/pkg/catalog"
	"github.com/matzehuels/storekit/pkg/resource"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listDetailStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// Key bindings
// =============================================================================

type brandKeys struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Detail   key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

func (k brandKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Detail, k.Reload, k.Quit}
}

func (k brandKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Detail, k.Reload, k.Quit},
	}
}

func defaultBrandKeys() brandKeys {
	return brandKeys{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Detail:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "details")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// =============================================================================
// BrandListModel - Interactive brand browser
// =============================================================================

// brandsMsg carries the state of the brand cache into the model.
type brandsMsg resource.Snapshot

// BrandListModel is the bubbletea model behind `storekit brands browse`.
// It loads brands through the shared cache and shows the selected brand's
// details on enter.
type BrandListModel struct {
	Brands  []resource.Entry
	Cursor  int
	Offset  int
	Height  int
	Loading bool
	Err     error
	Detail  bool

	keys   brandKeys
	help   help.Model
	load   func() tea.Msg
	reload func() tea.Msg
}

// NewBrandListModel creates a browser over brands. The list loads when the
// program starts.
func NewBrandListModel(ctx context.Context, brands *catalog.Brands) BrandListModel {
	load := func() tea.Msg {
		brands.Ensure(ctx)
		return brandsMsg(brands.Cache().Snapshot())
	}
	return BrandListModel{
		Height:  15,
		Loading: true,
		keys:    defaultBrandKeys(),
		help:    help.New(),
		load:    load,
		reload: func() tea.Msg {
			brands.Cache().Invalidate()
			return load()
		},
	}
}

func (m BrandListModel) Init() tea.Cmd {
	return m.load
}

func (m BrandListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case brandsMsg:
		m.Brands = msg.Items
		m.Err = msg.Err
		m.Loading = false
		m.clamp()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.Cursor--
		case key.Matches(msg, m.keys.Down):
			m.Cursor++
		case key.Matches(msg, m.keys.PageUp):
			m.Cursor -= m.Height
		case key.Matches(msg, m.keys.PageDown):
			m.Cursor += m.Height
		case key.Matches(msg, m.keys.Home):
			m.Cursor = 0
		case key.Matches(msg, m.keys.End):
			m.Cursor = len(m.Brands) - 1
		case key.Matches(msg, m.keys.Detail):
			m.Detail = !m.Detail
		case key.Matches(msg, m.keys.Reload):
			if !m.Loading && m.reload != nil {
				m.Loading = true
				return m, m.reload
			}
		}
		m.clamp()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
		m.clamp()
	}
	return m, nil
}

// clamp keeps the cursor on a brand and inside the visible window.
func (m *BrandListModel) clamp() {
	m.Cursor = max(min(m.Cursor, len(m.Brands)-1), 0)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Selected returns the brand under the cursor, or nil.
func (m BrandListModel) Selected() resource.Entry {
	if m.Cursor < len(m.Brands) {
		return m.Brands[m.Cursor]
	}
	return nil
}

func (m BrandListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Brands"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")

	if m.Loading && len(m.Brands) == 0 {
		b.WriteString(listDimStyle.Render("Loading brands…"))
		return b.String()
	}
	if m.Err != nil {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("! %v", m.Err)))
		b.WriteString("\n\n")
	}
	if len(m.Brands) == 0 {
		b.WriteString(listDimStyle.Render("No brands."))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Brands))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		e := m.Brands[i]
		rows = append(rows, []string{cursor, e.ID(), brandName(e), cell(e, "brand_products")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Products").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if m.Detail {
		if e := m.Selected(); e != nil {
			b.WriteString(listDetailStyle.Render(brandDetail(e)))
			b.WriteString("\n")
		}
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Brands))))
	return b.String()
}

// brandName prefers the brand's own name over its translation.
func brandName(e resource.Entry) string {
	if name := e.String("name"); name != "" {
		return name
	}
	return e.String("translation.name")
}

func brandDetail(e resource.Entry) string {
	lines := []string{
		StyleTitle.Render(brandName(e)),
		"id       " + e.ID(),
		"image    " + cell(e, "image"),
		"status   " + cell(e, "status"),
		"products " + cell(e, "brand_products"),
	}
	if tr := e.String("translation.name"); tr != "" && tr != e.String("name") {
		lines = append(lines, "name     "+tr)
	}
	return strings.Join(lines, "\n")
}
