package router

import "math"

// orthogonal shapes an auto route from right-angle segments. Parallel exits
// pointing the same way get a C around the further endpoint; facing exits
// get an S through the midpoint, or a Z detour when the S would cut through
// a table; mixed exits get an L.
func (r *Router) orthogonal(src, tgt Anchor, fb, tb Rect) []Point {
	s, t := src.Point, tgt.Point
	d1, d2 := src.Direction(), tgt.Direction()

	switch {
	case src.Side.Horizontal() && tgt.Side.Horizontal():
		if d1.X == d2.X {
			x := math.Max(s.X, t.X) + railOffset
			if d1.X < 0 {
				x = math.Min(s.X, t.X) - railOffset
			}
			return []Point{s, {X: x, Y: s.Y}, {X: x, Y: t.Y}, t}
		}
		mx := (s.X + t.X) / 2
		if ahead(s.X, mx, d1.X) && ahead(t.X, mx, d2.X) &&
			!fb.crossesVertical(mx, s.Y, t.Y) && !tb.crossesVertical(mx, s.Y, t.Y) {
			return []Point{s, {X: mx, Y: s.Y}, {X: mx, Y: t.Y}, t}
		}
		x1, x2 := s.X+d1.X*railOffset, t.X+d2.X*railOffset
		my := (s.Y + t.Y) / 2
		if fb.crossesHorizontal(my, x1, x2) || tb.crossesHorizontal(my, x1, x2) {
			my = math.Max(fb.Bottom, tb.Bottom) + railOffset
		}
		return []Point{s, {X: x1, Y: s.Y}, {X: x1, Y: my}, {X: x2, Y: my}, {X: x2, Y: t.Y}, t}

	case !src.Side.Horizontal() && !tgt.Side.Horizontal():
		if d1.Y == d2.Y {
			y := math.Max(s.Y, t.Y) + railOffset
			if d1.Y < 0 {
				y = math.Min(s.Y, t.Y) - railOffset
			}
			return []Point{s, {X: s.X, Y: y}, {X: t.X, Y: y}, t}
		}
		my := (s.Y + t.Y) / 2
		if ahead(s.Y, my, d1.Y) && ahead(t.Y, my, d2.Y) &&
			!fb.crossesHorizontal(my, s.X, t.X) && !tb.crossesHorizontal(my, s.X, t.X) {
			return []Point{s, {X: s.X, Y: my}, {X: t.X, Y: my}, t}
		}
		y1, y2 := s.Y+d1.Y*railOffset, t.Y+d2.Y*railOffset
		mx := (s.X + t.X) / 2
		if fb.crossesVertical(mx, y1, y2) || tb.crossesVertical(mx, y1, y2) {
			mx = math.Max(fb.Right, tb.Right) + railOffset
		}
		return []Point{s, {X: s.X, Y: y1}, {X: mx, Y: y1}, {X: mx, Y: y2}, {X: t.X, Y: y2}, t}

	default:
		p1 := Point{X: s.X + d1.X*railOffset, Y: s.Y + d1.Y*railOffset}
		p2 := Point{X: t.X + d2.X*railOffset, Y: t.Y + d2.Y*railOffset}
		corner := Point{X: p1.X, Y: p2.Y}
		if src.Side.Horizontal() {
			corner = Point{X: p2.X, Y: p1.Y}
		}
		return []Point{s, p1, corner, p2, t}
	}
}

// ahead reports whether v lies in front of from when leaving in direction d.
func ahead(from, v, d float64) bool {
	return (v-from)*d >= 0
}
