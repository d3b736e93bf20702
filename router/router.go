// Package router turns relationships into drawable paths. Every function is
// pure: the same diagram always yields the same points and path string.
package router

import (
	"math"
	"strconv"
	"strings"

	"github.com/ridoystarlord/erdkit/schema"
)

// Style selects how auto routes are shaped.
type Style string

const (
	Curved     Style = "curved"
	Orthogonal Style = "orthogonal"
)

func (s Style) Valid() bool { return s == Curved || s == Orthogonal }

// Mode selects whether anchors sit on column rows or on table edges.
type Mode string

const (
	ColumnLevel Mode = "column"
	TableLevel  Mode = "table"
)

func (m Mode) Valid() bool { return m == ColumnLevel || m == TableLevel }

// Metrics are the layout dimensions of a rendered table.
type Metrics struct {
	HeaderHeight float64
	RowHeight    float64
	TableWidth   float64
	// Widths overrides TableWidth per table id.
	Widths map[string]float64
}

func DefaultMetrics() Metrics {
	return Metrics{HeaderHeight: 40, RowHeight: 28, TableWidth: 250}
}

// Bounds returns the box a table occupies.
func (m Metrics) Bounds(t schema.Table) Rect {
	w := m.TableWidth
	if v, ok := m.Widths[t.ID]; ok && v > 0 {
		w = v
	}
	h := m.HeaderHeight + float64(len(t.Columns))*m.RowHeight
	return Rect{Left: t.X, Top: t.Y, Right: t.X + w, Bottom: t.Y + h}
}

// RowY returns the vertical centre of the column at index i.
func (m Metrics) RowY(t schema.Table, i int) float64 {
	return t.Y + m.HeaderHeight + float64(i)*m.RowHeight + m.RowHeight/2
}

const (
	// railOffset is how far orthogonal detours step away from a table.
	railOffset   = 30
	minCurvature = 40
	maxCurvature = 100
)

// Anchor is where a path meets a table and the side it leaves through.
type Anchor struct {
	Point schema.Point
	Side  schema.Side
}

// Direction is the unit vector pointing out of the anchor's side.
func (a Anchor) Direction() Point {
	switch a.Side {
	case schema.SideLeft:
		return Point{X: -1}
	case schema.SideTop:
		return Point{Y: -1}
	case schema.SideBottom:
		return Point{Y: 1}
	default:
		return Point{X: 1}
	}
}

// Route is a planned path for one relationship.
type Route struct {
	Points []Point
	Style  Style
	Source Anchor
	Target Anchor
}

// Router plans paths with a fixed set of metrics.
type Router struct {
	metrics Metrics
}

func New(m Metrics) *Router {
	return &Router{metrics: m}
}

func (r *Router) Metrics() Metrics { return r.metrics }

// Plan computes the route of rel against tables. It reports false when
// either endpoint table or column is missing.
func (r *Router) Plan(rel schema.Relationship, tables []schema.Table, style Style, mode Mode) (Route, bool) {
	src, tgt, ok := r.Anchors(rel, tables, mode)
	if !ok {
		return Route{}, false
	}
	rt := Route{Style: style, Source: src, Target: tgt}
	switch {
	case rel.Manual():
		pts := make([]Point, 0, len(rel.ControlPoints)+2)
		pts = append(pts, src.Point)
		pts = append(pts, rel.ControlPoints...)
		pts = append(pts, tgt.Point)
		if style == Orthogonal {
			pts = Orthogonalize(pts, src.Side.Horizontal())
		}
		rt.Points = Simplify(pts)
	case style == Orthogonal:
		from, _ := find(tables, rel.FromTable)
		to, _ := find(tables, rel.ToTable)
		rt.Points = Simplify(r.orthogonal(src, tgt, r.metrics.Bounds(from), r.metrics.Bounds(to)))
	default:
		rt.Points = []Point{src.Point, tgt.Point}
	}
	return rt, true
}

// ComputeRoute returns the ordered points of rel's path, or nil when the
// relationship cannot be placed.
func (r *Router) ComputeRoute(rel schema.Relationship, tables []schema.Table, style Style, mode Mode) []Point {
	rt, ok := r.Plan(rel, tables, style, mode)
	if !ok {
		return nil
	}
	return rt.Points
}

// RenderPath returns an SVG path string for rel.
func (r *Router) RenderPath(rel schema.Relationship, tables []schema.Table, style Style, mode Mode) string {
	rt, ok := r.Plan(rel, tables, style, mode)
	if !ok {
		return ""
	}
	return rt.Path()
}

// Midpoint returns the label position for rel.
func (r *Router) Midpoint(rel schema.Relationship, tables []schema.Table, style Style, mode Mode) (Point, bool) {
	rt, ok := r.Plan(rel, tables, style, mode)
	if !ok {
		return Point{}, false
	}
	return rt.Midpoint(), true
}

// Polyline returns the unsimplified manual polyline of rel: its anchors
// around the stored control points. Editing works against this shape.
func (r *Router) Polyline(rel schema.Relationship, tables []schema.Table, mode Mode) ([]Point, bool) {
	src, tgt, ok := r.Anchors(rel, tables, mode)
	if !ok {
		return nil, false
	}
	pts := make([]Point, 0, len(rel.ControlPoints)+2)
	pts = append(pts, src.Point)
	pts = append(pts, rel.ControlPoints...)
	return append(pts, tgt.Point), true
}

// controls returns the Bézier handles of a two-point curved route.
func (rt Route) controls() (Point, Point) {
	start, end := rt.Points[0], rt.Points[len(rt.Points)-1]
	if rt.Style == Orthogonal {
		return start, end
	}
	curvature := clamp(math.Abs(end.Y-start.Y)*0.5, minCurvature, maxCurvature)
	d1, d2 := rt.Source.Direction(), rt.Target.Direction()
	c1 := Point{X: start.X + d1.X*curvature, Y: start.Y + d1.Y*curvature}
	c2 := Point{X: end.X + d2.X*curvature, Y: end.Y + d2.Y*curvature}
	return c1, c2
}

// Path renders the route as an SVG path string.
func (rt Route) Path() string {
	pts := rt.Points
	if len(pts) < 2 {
		return ""
	}
	var b strings.Builder
	b.WriteString("M " + pair(pts[0]))
	switch {
	case rt.Style == Orthogonal:
		for _, p := range pts[1:] {
			b.WriteString(" L " + pair(p))
		}
	case len(pts) == 2:
		c1, c2 := rt.controls()
		b.WriteString(" C " + pair(c1) + ", " + pair(c2) + ", " + pair(pts[1]))
	default:
		// Catmull-Rom through every point, converted to cubic segments.
		for i := 0; i < len(pts)-1; i++ {
			p0 := pts[max(i-1, 0)]
			p1, p2 := pts[i], pts[i+1]
			p3 := pts[min(i+2, len(pts)-1)]
			c1 := Point{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6}
			c2 := Point{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6}
			b.WriteString(" C " + pair(c1) + ", " + pair(c2) + ", " + pair(p2))
		}
	}
	return b.String()
}

// Midpoint is the label position: the curve's halfway point for two-point
// routes, otherwise the middle vertex or the midpoint of the two central ones.
func (rt Route) Midpoint() Point {
	pts := rt.Points
	switch n := len(pts); {
	case n == 0:
		return Point{}
	case n == 1:
		return pts[0]
	case n == 2:
		c1, c2 := rt.controls()
		return bezierAt(pts[0], c1, c2, pts[1], 0.5)
	case n%2 == 1:
		return pts[n/2]
	default:
		a, b := pts[n/2-1], pts[n/2]
		return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	}
}

func pair(p Point) string {
	return num(p.X) + " " + num(p.Y)
}

// num formats with at most two decimals and no trailing zeros.
func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func find(tables []schema.Table, id string) (schema.Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return schema.Table{}, false
}
