package docs

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
)

const svgMargin = 40

// SVGOptions selects how relationships are routed in the drawing.
type SVGOptions struct {
	Style router.Style
	Mode  router.Mode
}

// SVGContent draws every table as a box and every relationship along the
// path the router computes for it, labelled at its midpoint.
func SVGContent(d schema.Diagram, r *router.Router, opts SVGOptions) string {
	g := d.Graph()
	tables := g.Tables()
	m := r.Metrics()

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, t := range tables {
		b := m.Bounds(t)
		minX, minY = math.Min(minX, b.Left), math.Min(minY, b.Top)
		maxX, maxY = math.Max(maxX, b.Right), math.Max(maxY, b.Bottom)
	}
	if len(tables) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	// Routes may leave the table area through rails and waypoints.
	for _, rel := range g.Relationships() {
		for _, p := range r.ComputeRoute(rel, tables, opts.Style, opts.Mode) {
			minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
			maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" font-family="sans-serif" font-size="13">`+"\n",
		num(minX-svgMargin), num(minY-svgMargin), num(maxX-minX+2*svgMargin), num(maxY-minY+2*svgMargin))

	for _, t := range tables {
		box := m.Bounds(t)
		fmt.Fprintf(&b, `  <g class="table" id="%s">`+"\n", html.EscapeString(t.ID))
		fmt.Fprintf(&b, `    <rect x="%s" y="%s" width="%s" height="%s" fill="#ffffff" stroke="#334155"/>`+"\n",
			num(box.Left), num(box.Top), num(box.Width()), num(box.Height()))
		fmt.Fprintf(&b, `    <rect x="%s" y="%s" width="%s" height="%s" fill="#334155"/>`+"\n",
			num(box.Left), num(box.Top), num(box.Width()), num(m.HeaderHeight))
		fmt.Fprintf(&b, `    <text x="%s" y="%s" fill="#ffffff" font-weight="bold">%s</text>`+"\n",
			num(box.Left+10), num(box.Top+m.HeaderHeight/2+5), html.EscapeString(tableName(t, d.ViewMode)))
		for i, c := range t.Columns {
			y := m.RowY(t, i) + 5
			fmt.Fprintf(&b, `    <text x="%s" y="%s">%s%s</text>`+"\n",
				num(box.Left+10), num(y), keyMarker(c), html.EscapeString(columnName(c, d.ViewMode)))
			fmt.Fprintf(&b, `    <text x="%s" y="%s" text-anchor="end" fill="#64748b">%s</text>`+"\n",
				num(box.Right-10), num(y), html.EscapeString(displayType(c)))
		}
		b.WriteString("  </g>\n")
	}

	for _, rel := range g.Relationships() {
		path := r.RenderPath(rel, tables, opts.Style, opts.Mode)
		if path == "" {
			continue
		}
		fmt.Fprintf(&b, `  <path class="relationship" id="%s" d="%s" fill="none" stroke="#0f172a"/>`+"\n",
			html.EscapeString(rel.ID), path)
		if mid, ok := r.Midpoint(rel, tables, opts.Style, opts.Mode); ok {
			fmt.Fprintf(&b, `  <text x="%s" y="%s" text-anchor="middle" font-size="11">%s</text>`+"\n",
				num(mid.X), num(mid.Y-4), html.EscapeString(string(rel.Type)))
		}
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func keyMarker(c schema.Column) string {
	switch {
	case c.IsPK:
		return "PK "
	case c.IsFK:
		return "FK "
	}
	return ""
}

func num(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*100)/100)
}
