package router

import (
	"math"

	"github.com/ridoystarlord/erdkit/schema"
)

type Point = schema.Point

// Rect is an axis-aligned box in diagram space.
type Rect struct {
	Left, Top, Right, Bottom float64
}

func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// edgeTolerance shrinks boxes before obstruction tests so segments running
// along an edge do not count as crossing it.
const edgeTolerance = 5

// crossesVertical reports whether the vertical segment at x between y1 and
// y2 passes through the box.
func (r Rect) crossesVertical(x, y1, y2 float64) bool {
	lo, hi := math.Min(y1, y2), math.Max(y1, y2)
	return x > r.Left+edgeTolerance && x < r.Right-edgeTolerance &&
		hi > r.Top+edgeTolerance && lo < r.Bottom-edgeTolerance
}

// crossesHorizontal reports whether the horizontal segment at y between x1
// and x2 passes through the box.
func (r Rect) crossesHorizontal(y, x1, x2 float64) bool {
	lo, hi := math.Min(x1, x2), math.Max(x1, x2)
	return y > r.Top+edgeTolerance && y < r.Bottom-edgeTolerance &&
		hi > r.Left+edgeTolerance && lo < r.Right-edgeTolerance
}

func distSq(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// minPointGap is the distance under which consecutive points merge.
const minPointGap = 5

// Simplify drops near-duplicate points (closer than 5 units) and interior
// points collinear with their neighbours. The first and last points always
// survive.
func Simplify(pts []Point) []Point {
	if len(pts) <= 2 {
		return append([]Point(nil), pts...)
	}
	deduped := []Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		p := pts[i]
		last := len(deduped) - 1
		if distSq(deduped[last], p) < minPointGap*minPointGap {
			if i == len(pts)-1 && last > 0 {
				deduped[last] = p
			} else if i == len(pts)-1 {
				deduped = append(deduped, p)
			}
			continue
		}
		deduped = append(deduped, p)
	}
	out := make([]Point, 0, len(deduped))
	for _, p := range deduped {
		for len(out) >= 2 && collinear(out[len(out)-2], out[len(out)-1], p) {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}
	return out
}

// collinear reports whether b lies on the line from a to c, strictly
// between them. A path that doubles back through b keeps it.
func collinear(a, b, c Point) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	dot := (b.X-a.X)*(c.X-b.X) + (b.Y-a.Y)*(c.Y-b.Y)
	return math.Abs(cross) < 1e-9 && dot > 0
}

// Orthogonalize joins consecutive points that are neither horizontally nor
// vertically aligned with a right-angle corner. The first leg runs
// horizontally when horizontalFirst is set; later legs alternate so that no
// corner doubles back on the previous leg's axis.
func Orthogonalize(pts []Point, horizontalFirst bool) []Point {
	if len(pts) < 2 {
		return append([]Point(nil), pts...)
	}
	out := []Point{pts[0]}
	goHorizontal := horizontalFirst
	for _, b := range pts[1:] {
		a := out[len(out)-1]
		switch {
		case a == b:
		case a.Y == b.Y:
			goHorizontal = false
		case a.X == b.X:
			goHorizontal = true
		case goHorizontal:
			// ends on a vertical leg, so the next one starts horizontally
			out = append(out, Point{X: b.X, Y: a.Y})
		default:
			out = append(out, Point{X: a.X, Y: b.Y})
		}
		out = append(out, b)
	}
	return out
}

// InsertionIndex returns where a point clicked near path belongs: the index
// just after the start of the closest segment.
func InsertionIndex(path []Point, click Point) int {
	if len(path) < 2 {
		return len(path)
	}
	best, bestDist := 1, math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		d := distSq(click, closestOnSegment(path[i], path[i+1], click))
		if d < bestDist {
			best, bestDist = i+1, d
		}
	}
	return best
}

func closestOnSegment(a, b, p Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Point{X: a.X + t*dx, Y: a.Y + t*dy}
}

// bezierAt evaluates a cubic Bézier curve at t.
func bezierAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
