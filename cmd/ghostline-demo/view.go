package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/iw2rmb/ghostline/dom"
	"github.com/iw2rmb/ghostline/internal/grapheme"
	"github.com/iw2rmb/ghostline/overlay"
)

type styles struct {
	Title        lipgloss.Style
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Box          lipgloss.Style
	BoxFocused   lipgloss.Style
	Cursor       lipgloss.Style
	Placeholder  lipgloss.Style
	Status       lipgloss.Style
	Overlay      overlay.Style
}

func defaultStyles() styles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	return styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Label:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		LabelFocused: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Box:          box,
		BoxFocused:   box.BorderForeground(lipgloss.Color("212")),
		Cursor:       lipgloss.NewStyle().Reverse(true),
		Placeholder:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Status:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Overlay:      overlay.DefaultStyle(),
	}
}

// ghost is the overlay painted inside one field, in content cells.
type ghost struct {
	row, col int
	width    int
	painted  string
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("ghostline demo"))
	b.WriteString("\n\n")

	g, gf := m.ghost()
	for _, f := range m.layout.fields {
		focused := m.doc.Focused() == f.el
		lbl := m.styles.Label
		box := m.styles.Box
		if focused {
			lbl, box = m.styles.LabelFocused, m.styles.BoxFocused
		}
		b.WriteString(lbl.Render(f.label))
		b.WriteByte('\n')

		var gp *ghost
		if gf == f.el {
			gp = &g
		}
		b.WriteString(box.Width(int(f.rect.W) - 2).Render(m.renderContent(f, gp)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(m.styles.Status.Render(m.statusLine()))
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// ghost converts the overlay placement into the cells of the field that
// holds the live suggestion.
func (m model) ghost() (ghost, *dom.Element) {
	r := m.coord.Renderer()
	p, ok := r.Placement()
	if !ok {
		return ghost{}, nil
	}
	s, err := r.Live().Surface()
	if err != nil {
		return ghost{}, nil
	}
	for _, f := range m.layout.fields {
		if f.el != s.Element() {
			continue
		}
		x, y := m.layout.contentOrigin(f)
		text := p.Text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		return ghost{
			row:     int(p.Top) - y,
			col:     int(p.Left) - x,
			width:   min(runewidth.StringWidth(text), int(p.MaxWidth)),
			painted: overlay.Paint(p, m.styles.Overlay),
		}, f.el
	}
	return ghost{}, nil
}

func (m model) renderContent(f field, g *ghost) string {
	c := m.layout.contentOf(f)
	width := m.layout.contentWidth(f)
	rows := make([]string, f.rows)
	for i := range rows {
		line := ""
		if i < len(c.lines) {
			line = c.lines[i]
		}
		caret := -1
		if c.hasCaret && c.caretRow == i {
			caret = c.caretCol
		}
		var lg *ghost
		if g != nil && g.row == i {
			lg = g
		}
		if line == "" && i == 0 && caret <= 0 && lg == nil {
			if ph, ok := f.el.Attr("placeholder"); ok && len(c.lines) <= 1 {
				rows[i] = m.composePlaceholder(ph, width, caret == 0)
				continue
			}
		}
		rows[i] = composeLine(line, width, m.layout.tabWidth, caret, lg, m.styles.Cursor)
	}
	return strings.Join(rows, "\n")
}

func (m model) composePlaceholder(ph string, width int, caret bool) string {
	ph = runewidth.Truncate(ph, width, "")
	if caret {
		return m.styles.Cursor.Render(" ") + m.styles.Placeholder.Render(runewidth.FillRight(ph, width-1))
	}
	return m.styles.Placeholder.Render(runewidth.FillRight(ph, width))
}

type cell struct {
	text string
	col  int
	w    int
}

// composeLine draws one content row of width cells. The ghost text is laid
// over the row like the overlay element sits over the page, hiding what it
// covers; the caret is drawn unless the ghost starts at it.
func composeLine(line string, width, tabWidth, caret int, g *ghost, cursor lipgloss.Style) string {
	var cells []cell
	col := 0
	for _, cl := range grapheme.Split(line) {
		w := grapheme.ClusterWidth(cl)
		if cl == "\t" {
			w = grapheme.TabAdvance(col, tabWidth)
			cl = strings.Repeat(" ", w)
		}
		cells = append(cells, cell{text: cl, col: col, w: w})
		col += w
	}

	var b strings.Builder
	out := 0
	pad := func(to int) {
		if to > out {
			b.WriteString(strings.Repeat(" ", to-out))
			out = to
		}
	}
	ghostDone := g == nil || g.col >= width || g.painted == ""
	drawGhost := func() {
		pad(g.col)
		b.WriteString(g.painted)
		out = g.col + g.width
		ghostDone = true
	}
	hideCaret := g != nil && !ghostDone && g.col == caret

	for _, c := range cells {
		if c.col+c.w > width {
			break
		}
		if !ghostDone && c.col >= g.col {
			drawGhost()
		}
		if g != nil && ghostDone && c.col < out {
			continue
		}
		pad(c.col)
		if c.col == caret && !hideCaret {
			b.WriteString(cursor.Render(c.text))
		} else {
			b.WriteString(c.text)
		}
		out = c.col + c.w
	}
	if !ghostDone {
		drawGhost()
	}
	if caret >= col && caret < width && !hideCaret && caret >= out {
		pad(caret)
		b.WriteString(cursor.Render(" "))
		out = caret + 1
	}
	pad(width)
	return b.String()
}

func (m model) statusLine() string {
	parts := []string{"state: " + m.coord.State().String()}
	if s := m.coord.Current(); s != nil {
		parts = append(parts, "surface: "+s.Kind().String())
	}
	if sg := m.coord.Renderer().Live(); sg != nil {
		parts = append(parts, fmt.Sprintf("provider: %s", sg.ProviderID))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, "  ·  ")
}
