package router

import (
	"math"

	"github.com/ridoystarlord/erdkit/schema"
)

// Anchors resolves where rel meets its two tables. Explicit sides stored on
// the relationship override the automatic choice.
func (r *Router) Anchors(rel schema.Relationship, tables []schema.Table, mode Mode) (Anchor, Anchor, bool) {
	from, ok := find(tables, rel.FromTable)
	if !ok {
		return Anchor{}, Anchor{}, false
	}
	to, ok := find(tables, rel.ToTable)
	if !ok {
		return Anchor{}, Anchor{}, false
	}
	if mode == TableLevel {
		return r.tableAnchors(rel, from, to)
	}
	return r.columnAnchors(rel, from, to)
}

func (r *Router) columnAnchors(rel schema.Relationship, from, to schema.Table) (Anchor, Anchor, bool) {
	fi, ti := from.ColumnIndex(rel.FromCol), to.ColumnIndex(rel.ToCol)
	if fi < 0 || ti < 0 {
		return Anchor{}, Anchor{}, false
	}
	fb, tb := r.metrics.Bounds(from), r.metrics.Bounds(to)

	var fs, ts schema.Side
	switch {
	case rel.SelfReferencing():
		fs, ts = schema.SideRight, schema.SideRight
	case fb.Right <= tb.Left:
		fs, ts = schema.SideRight, schema.SideLeft
	case tb.Right <= fb.Left:
		fs, ts = schema.SideLeft, schema.SideRight
	default:
		// Overlapping horizontally: leave both tables on the side whose
		// edges line up best.
		if math.Abs(fb.Left-tb.Left) < math.Abs(fb.Right-tb.Right) {
			fs, ts = schema.SideLeft, schema.SideLeft
		} else {
			fs, ts = schema.SideRight, schema.SideRight
		}
	}
	fs, ts = override(rel, fs, ts)

	src := Anchor{Point: rowPoint(fb, fs, r.metrics.RowY(from, fi)), Side: fs}
	tgt := Anchor{Point: rowPoint(tb, ts, r.metrics.RowY(to, ti)), Side: ts}
	return src, tgt, true
}

// rowPoint places a column anchor on the given side. Rows only meet the
// left and right edges; top and bottom anchors use the edge centre.
func rowPoint(b Rect, side schema.Side, y float64) Point {
	switch side {
	case schema.SideLeft:
		return Point{X: b.Left, Y: y}
	case schema.SideTop:
		return Point{X: b.Center().X, Y: b.Top}
	case schema.SideBottom:
		return Point{X: b.Center().X, Y: b.Bottom}
	default:
		return Point{X: b.Right, Y: y}
	}
}

func (r *Router) tableAnchors(rel schema.Relationship, from, to schema.Table) (Anchor, Anchor, bool) {
	fb, tb := r.metrics.Bounds(from), r.metrics.Bounds(to)

	var fs, ts schema.Side
	if rel.SelfReferencing() {
		fs, ts = schema.SideRight, schema.SideRight
	} else {
		fc, tc := fb.Center(), tb.Center()
		dx, dy := tc.X-fc.X, tc.Y-fc.Y
		apartX := fb.Right < tb.Left || tb.Right < fb.Left
		apartY := fb.Bottom < tb.Top || tb.Bottom < fb.Top
		horizontal := apartX
		if apartX == apartY {
			horizontal = math.Abs(dx) >= math.Abs(dy)
		}
		switch {
		case horizontal && dx >= 0:
			fs, ts = schema.SideRight, schema.SideLeft
		case horizontal:
			fs, ts = schema.SideLeft, schema.SideRight
		case dy >= 0:
			fs, ts = schema.SideBottom, schema.SideTop
		default:
			fs, ts = schema.SideTop, schema.SideBottom
		}
	}
	fs, ts = override(rel, fs, ts)

	src := Anchor{Point: edgePoint(fb, fs, 0.5), Side: fs}
	tgt := Anchor{Point: edgePoint(tb, ts, 0.5), Side: ts}
	if rel.SelfReferencing() && fs == ts {
		// Split the shared edge so the loop has room.
		src.Point = edgePoint(fb, fs, 1.0/3)
		tgt.Point = edgePoint(tb, ts, 2.0/3)
	}
	return src, tgt, true
}

// edgePoint returns the point at fraction f along the given edge, measured
// from its top or left end.
func edgePoint(b Rect, side schema.Side, f float64) Point {
	switch side {
	case schema.SideLeft:
		return Point{X: b.Left, Y: b.Top + f*b.Height()}
	case schema.SideTop:
		return Point{X: b.Left + f*b.Width(), Y: b.Top}
	case schema.SideBottom:
		return Point{X: b.Left + f*b.Width(), Y: b.Bottom}
	default:
		return Point{X: b.Right, Y: b.Top + f*b.Height()}
	}
}

func override(rel schema.Relationship, fs, ts schema.Side) (schema.Side, schema.Side) {
	if rel.SourceSide != schema.SideAuto && rel.SourceSide.Valid() {
		fs = rel.SourceSide
	}
	if rel.TargetSide != schema.SideAuto && rel.TargetSide.Valid() {
		ts = rel.TargetSide
	}
	return fs, ts
}
