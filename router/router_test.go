package router

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/erdkit/schema"
)

func tables(ordersAt Point) []schema.Table {
	return []schema.Table{
		{ID: "users", Name: "users", X: 0, Y: 0, Columns: []schema.Column{
			{ID: "u_id", Name: "id", Type: "INTEGER", IsPK: true},
			{ID: "u_email", Name: "email", Type: "VARCHAR"},
		}},
		{ID: "orders", Name: "orders", X: ordersAt.X, Y: ordersAt.Y, Columns: []schema.Column{
			{ID: "o_id", Name: "id", Type: "INTEGER", IsPK: true},
			{ID: "o_user", Name: "user_id", Type: "INTEGER"},
			{ID: "o_total", Name: "total", Type: "NUMERIC"},
		}},
	}
}

func userOrders() schema.Relationship {
	return schema.Relationship{ID: "r1", FromTable: "users", FromCol: "u_id", ToTable: "orders", ToCol: "o_user", Type: schema.OneToMany}
}

func TestColumnAnchorsFaceEachOther(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	src, tgt, ok := r.Anchors(userOrders(), tables(Point{X: 400}), ColumnLevel)
	require.True(t, ok)
	assert.Equal(t, Anchor{Point: Point{X: 250, Y: 54}, Side: schema.SideRight}, src)
	assert.Equal(t, Anchor{Point: Point{X: 400, Y: 82}, Side: schema.SideLeft}, tgt)

	src, tgt, _ = r.Anchors(userOrders(), tables(Point{X: -400}), ColumnLevel)
	assert.Equal(t, schema.SideLeft, src.Side)
	assert.Equal(t, schema.SideRight, tgt.Side)
}

func TestOverlappingTablesShareASide(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	// Edges are equally far apart on both sides, so the right side wins.
	src, tgt, _ := r.Anchors(userOrders(), tables(Point{X: 100, Y: 300}), ColumnLevel)
	assert.Equal(t, schema.SideRight, src.Side)
	assert.Equal(t, schema.SideRight, tgt.Side)

	// Left edges line up exactly.
	ts := tables(Point{X: 0, Y: 300})
	r = New(Metrics{HeaderHeight: 40, RowHeight: 28, TableWidth: 250, Widths: map[string]float64{"orders": 400}})
	src, tgt, _ = r.Anchors(userOrders(), ts, ColumnLevel)
	assert.Equal(t, schema.SideLeft, src.Side)
	assert.Equal(t, schema.SideLeft, tgt.Side)
}

func TestSideOverride(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	rel := userOrders()
	rel.SourceSide = schema.SideLeft
	rel.TargetSide = schema.SideBottom
	src, tgt, _ := r.Anchors(rel, tables(Point{X: 400}), ColumnLevel)
	assert.Equal(t, Anchor{Point: Point{X: 0, Y: 54}, Side: schema.SideLeft}, src)
	assert.Equal(t, Anchor{Point: Point{X: 525, Y: 124}, Side: schema.SideBottom}, tgt)
}

func TestTableLevelAnchors(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	src, tgt, _ := r.Anchors(userOrders(), tables(Point{X: 400}), TableLevel)
	assert.Equal(t, Anchor{Point: Point{X: 250, Y: 48}, Side: schema.SideRight}, src)
	assert.Equal(t, Anchor{Point: Point{X: 400, Y: 62}, Side: schema.SideLeft}, tgt)

	src, tgt, _ = r.Anchors(userOrders(), tables(Point{X: 0, Y: 300}), TableLevel)
	assert.Equal(t, Anchor{Point: Point{X: 125, Y: 96}, Side: schema.SideBottom}, src)
	assert.Equal(t, Anchor{Point: Point{X: 125, Y: 300}, Side: schema.SideTop}, tgt)

	self := schema.Relationship{ID: "r2", FromTable: "users", FromCol: "u_id", ToTable: "users", ToCol: "u_email"}
	src, tgt, _ = r.Anchors(self, tables(Point{X: 400}), TableLevel)
	assert.Equal(t, Point{X: 250, Y: 32}, src.Point)
	assert.Equal(t, Point{X: 250, Y: 64}, tgt.Point)
}

func TestCurvedRoute(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	ts := tables(Point{X: 400})
	pts := r.ComputeRoute(userOrders(), ts, Curved, ColumnLevel)
	assert.Empty(t, cmp.Diff([]Point{{X: 250, Y: 54}, {X: 400, Y: 82}}, pts))
	assert.Equal(t, "M 250 54 C 290 54, 360 82, 400 82", r.RenderPath(userOrders(), ts, Curved, ColumnLevel))

	mid, ok := r.Midpoint(userOrders(), ts, Curved, ColumnLevel)
	require.True(t, ok)
	assert.Equal(t, Point{X: 325, Y: 68}, mid)
}

func TestCurvatureIsClamped(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	path := r.RenderPath(userOrders(), tables(Point{X: 400, Y: 500}), Curved, ColumnLevel)
	assert.Equal(t, "M 250 54 C 350 54, 300 582, 400 582", path)
}

func TestOrthogonalShapes(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	overrideTarget := func(side schema.Side) schema.Relationship {
		rel := userOrders()
		rel.TargetSide = side
		return rel
	}
	tests := []struct {
		name     string
		rel      schema.Relationship
		ordersAt Point
		want     []Point
	}{
		{
			name:     "s-shape between facing tables",
			rel:      userOrders(),
			ordersAt: Point{X: 400},
			want:     []Point{{X: 250, Y: 54}, {X: 325, Y: 54}, {X: 325, Y: 82}, {X: 400, Y: 82}},
		},
		{
			name:     "c-shape around the further edge",
			rel:      userOrders(),
			ordersAt: Point{X: 100, Y: 300},
			want:     []Point{{X: 250, Y: 54}, {X: 380, Y: 54}, {X: 380, Y: 382}, {X: 350, Y: 382}},
		},
		{
			name:     "z detour when the exits face away",
			rel:      overrideTarget(schema.SideLeft),
			ordersAt: Point{X: 100, Y: 300},
			want: []Point{
				{X: 250, Y: 54}, {X: 280, Y: 54}, {X: 280, Y: 218},
				{X: 70, Y: 218}, {X: 70, Y: 382}, {X: 100, Y: 382},
			},
		},
		{
			name:     "l-shape for mixed exits",
			rel:      overrideTarget(schema.SideTop),
			ordersAt: Point{X: 400, Y: 200},
			want:     []Point{{X: 250, Y: 54}, {X: 525, Y: 54}, {X: 525, Y: 200}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ComputeRoute(tt.rel, tables(tt.ordersAt), Orthogonal, ColumnLevel)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("route mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelfReferenceLoopsRight(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	self := schema.Relationship{ID: "r2", FromTable: "users", FromCol: "u_id", ToTable: "users", ToCol: "u_email"}
	got := r.ComputeRoute(self, tables(Point{X: 400}), Orthogonal, ColumnLevel)
	want := []Point{{X: 250, Y: 54}, {X: 280, Y: 54}, {X: 280, Y: 82}, {X: 250, Y: 82}}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestManualRouteDropsCollinearPoints(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	ts := tables(Point{X: 400})

	rel := userOrders()
	rel.ControlPoints = []Point{{X: 300, Y: 100}, {X: 325, Y: 125}, {X: 350, Y: 150}}
	got := r.ComputeRoute(rel, ts, Curved, ColumnLevel)
	assert.Empty(t, cmp.Diff([]Point{{X: 250, Y: 54}, {X: 300, Y: 100}, {X: 350, Y: 150}, {X: 400, Y: 82}}, got))

	mid, _ := r.Midpoint(rel, ts, Curved, ColumnLevel)
	assert.Equal(t, Point{X: 325, Y: 125}, mid)

	path := r.RenderPath(rel, ts, Curved, ColumnLevel)
	assert.True(t, strings.HasPrefix(path, "M 250 54 C "))
	assert.Equal(t, 3, strings.Count(path, " C "))
}

func TestManualOrthogonalRouteInsertsCorners(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	rel := userOrders()
	rel.ControlPoints = []Point{{X: 300, Y: 100}, {X: 300, Y: 200}, {X: 300, Y: 300}}
	got := r.ComputeRoute(rel, tables(Point{X: 400}), Orthogonal, ColumnLevel)
	want := []Point{{X: 250, Y: 54}, {X: 300, Y: 54}, {X: 300, Y: 300}, {X: 400, Y: 300}, {X: 400, Y: 82}}
	assert.Empty(t, cmp.Diff(want, got))
	assert.Equal(t, "M 250 54 L 300 54 L 300 300 L 400 300 L 400 82",
		r.RenderPath(rel, tables(Point{X: 400}), Orthogonal, ColumnLevel))
}

func TestManualRouteIgnoresTableMoves(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	rel := userOrders()
	rel.ControlPoints = []Point{{X: 320, Y: 10}, {X: 330, Y: 160}}
	for _, at := range []Point{{X: 400}, {X: 600, Y: 250}} {
		pts := r.ComputeRoute(rel, tables(at), Curved, ColumnLevel)
		assert.Equal(t, rel.ControlPoints, pts[1:len(pts)-1])
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	ts := tables(Point{X: 100, Y: 300})
	for _, style := range []Style{Curved, Orthogonal} {
		for _, mode := range []Mode{ColumnLevel, TableLevel} {
			a := r.ComputeRoute(userOrders(), ts, style, mode)
			b := r.ComputeRoute(userOrders(), ts, style, mode)
			assert.Empty(t, cmp.Diff(a, b))
			assert.Equal(t, r.RenderPath(userOrders(), ts, style, mode), r.RenderPath(userOrders(), ts, style, mode))
		}
	}
}

func TestMissingEndpointsYieldNothing(t *testing.T) {
	t.Parallel()

	r := New(DefaultMetrics())
	rel := userOrders()
	rel.ToCol = "gone"
	assert.Nil(t, r.ComputeRoute(rel, tables(Point{X: 400}), Curved, ColumnLevel))
	assert.Equal(t, "", r.RenderPath(rel, tables(Point{X: 400}), Curved, ColumnLevel))
	_, ok := r.Midpoint(rel, tables(Point{X: 400}), Curved, ColumnLevel)
	assert.False(t, ok)
}

func TestSimplify(t *testing.T) {
	t.Parallel()

	got := Simplify([]Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 102, Y: 1}, {X: 100, Y: 100}, {X: 100, Y: 102}})
	assert.Empty(t, cmp.Diff([]Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 102}}, got))
}

func TestSimplifyKeepsDoublingBack(t *testing.T) {
	t.Parallel()

	pts := []Point{{X: 250, Y: 54}, {X: 300, Y: 54}, {X: 280, Y: 54}}
	assert.Empty(t, cmp.Diff(pts, Simplify(pts)))

	between := []Point{{X: 250, Y: 54}, {X: 280, Y: 54}, {X: 300, Y: 54}}
	assert.Empty(t, cmp.Diff([]Point{{X: 250, Y: 54}, {X: 300, Y: 54}}, Simplify(between)))
}

func TestInsertionIndex(t *testing.T) {
	t.Parallel()

	path := []Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}
	assert.Equal(t, 1, InsertionIndex(path, Point{X: 40, Y: 3}))
	assert.Equal(t, 2, InsertionIndex(path, Point{X: 104, Y: 50}))
	assert.Equal(t, 2, InsertionIndex(path, Point{X: 150, Y: 150}))
}

func TestNumberFormatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.35", num(12.3456))
	assert.Equal(t, "100", num(100))
	assert.Equal(t, "0", num(-0.001))
	assert.Equal(t, "-7.5", num(-7.5))
}
