// Package routeedit implements pointer-driven editing of relationship paths.
// An Editor holds only the gesture in progress; every call takes the current
// graph and returns the next one.
package routeedit

import (
	"math"

	"go.uber.org/zap"

	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
)

type gestureKind int

const (
	waypointGesture gestureKind = iota
	segmentGesture
)

type gesture struct {
	kind  gestureKind
	relID string
	// waypoint gestures move index; segment gestures move every index in
	// moved along one axis.
	index      int
	offset     schema.Point
	moved      []int
	origin     []schema.Point
	start      schema.Point
	horizontal bool
}

// Editor tracks a single waypoint or segment drag.
type Editor struct {
	router *router.Router
	style  router.Style
	mode   router.Mode
	logger *zap.Logger
	active *gesture
}

type Option func(*Editor)

func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

func New(r *router.Router, style router.Style, mode router.Mode, opts ...Option) *Editor {
	e := &Editor{router: r, style: style, mode: mode, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetStyle changes the routing style used when an auto route is materialized.
func (e *Editor) SetStyle(s router.Style) { e.style = s }

// SetMode changes where anchors are placed.
func (e *Editor) SetMode(m router.Mode) { e.mode = m }

// Dragging reports whether a gesture is in progress.
func (e *Editor) Dragging() bool { return e.active != nil }

// Polyline returns the editable shape of a relationship: its anchors around
// its control points. Segment indexes used by GrabSegment refer to it.
func (e *Editor) Polyline(g schema.Graph, relID string) ([]schema.Point, bool) {
	rel, ok := g.Relationship(relID)
	if !ok {
		return nil, false
	}
	return e.router.Polyline(rel, g.Tables(), e.mode)
}

// Materialize freezes an auto-routed relationship: the interior points of
// its current route become control points and the resolved sides are
// pinned, so later edits start from exactly what was on screen. Manual
// relationships are returned untouched.
func (e *Editor) Materialize(g schema.Graph, relID string) schema.Graph {
	rel, ok := g.Relationship(relID)
	if !ok || rel.Manual() {
		return g
	}
	rt, ok := e.router.Plan(rel, g.Tables(), e.style, e.mode)
	if !ok {
		return g
	}
	interior := append([]schema.Point(nil), rt.Points[1:len(rt.Points)-1]...)
	return g.UpdateRelationship(relID, schema.RelationshipPatch{
		ControlPoints: &interior,
		SourceSide:    schema.Ptr(rt.Source.Side),
		TargetSide:    schema.Ptr(rt.Target.Side),
	})
}

// GrabWaypoint starts dragging control point index. The pointer's offset
// from the waypoint is kept for the whole drag so it does not jump.
func (e *Editor) GrabWaypoint(g schema.Graph, relID string, index int, pointer schema.Point) (schema.Graph, bool) {
	g = e.Materialize(g, relID)
	rel, ok := g.Relationship(relID)
	if !ok || index < 0 || index >= len(rel.ControlPoints) {
		return g, false
	}
	e.active = &gesture{
		kind:   waypointGesture,
		relID:  relID,
		index:  index,
		offset: pointer.Sub(rel.ControlPoints[index]),
	}
	return g, true
}

// GrabSegment starts dragging segment i of the polyline, the one between
// points i and i+1. The segment's waypoints move together perpendicular to
// it; anchors stay put. Grabbing the bare segment between two anchors
// inserts a waypoint under the pointer and drags that instead.
func (e *Editor) GrabSegment(g schema.Graph, relID string, segment int, pointer schema.Point) (schema.Graph, bool) {
	g = e.Materialize(g, relID)
	rel, ok := g.Relationship(relID)
	if !ok {
		return g, false
	}
	poly, ok := e.router.Polyline(rel, g.Tables(), e.mode)
	if !ok || segment < 0 || segment >= len(poly)-1 {
		return g, false
	}
	if len(rel.ControlPoints) == 0 {
		g = g.UpdateRelationship(relID, schema.RelationshipPatch{ControlPoints: &[]schema.Point{pointer}})
		e.active = &gesture{kind: waypointGesture, relID: relID}
		return g, true
	}

	gs := &gesture{kind: segmentGesture, relID: relID, start: pointer}
	for _, p := range []int{segment, segment + 1} {
		// poly[0] and poly[len-1] are anchors.
		if p == 0 || p == len(poly)-1 {
			continue
		}
		gs.moved = append(gs.moved, p-1)
		gs.origin = append(gs.origin, rel.ControlPoints[p-1])
	}
	a, b := poly[segment], poly[segment+1]
	gs.horizontal = math.Abs(b.X-a.X) >= math.Abs(b.Y-a.Y)
	e.active = gs
	return g, true
}

// Drag moves the grabbed waypoint or segment to follow the pointer. Without
// an active gesture, or when the relationship has gone, g is returned as is.
func (e *Editor) Drag(g schema.Graph, pointer schema.Point) schema.Graph {
	gs := e.active
	if gs == nil {
		return g
	}
	rel, ok := g.Relationship(gs.relID)
	if !ok {
		e.logger.Debug("drag target vanished", zap.String("relationship", gs.relID))
		e.active = nil
		return g
	}
	cps := append([]schema.Point(nil), rel.ControlPoints...)
	switch gs.kind {
	case waypointGesture:
		if gs.index >= len(cps) {
			e.active = nil
			return g
		}
		cps[gs.index] = pointer.Sub(gs.offset)
	case segmentGesture:
		delta := pointer.Sub(gs.start)
		for i, idx := range gs.moved {
			if idx >= len(cps) {
				continue
			}
			p := gs.origin[i]
			if gs.horizontal {
				p.Y += delta.Y
			} else {
				p.X += delta.X
			}
			cps[idx] = p
		}
	}
	return g.UpdateRelationship(gs.relID, schema.RelationshipPatch{ControlPoints: &cps})
}

// Release ends the current gesture.
func (e *Editor) Release() {
	e.active = nil
}

// InsertWaypoint adds a control point at click, placed in the polyline
// segment closest to it.
func (e *Editor) InsertWaypoint(g schema.Graph, relID string, click schema.Point) schema.Graph {
	g = e.Materialize(g, relID)
	rel, ok := g.Relationship(relID)
	if !ok {
		return g
	}
	poly, ok := e.router.Polyline(rel, g.Tables(), e.mode)
	if !ok {
		return g
	}
	at := router.InsertionIndex(poly, click) - 1
	cps := make([]schema.Point, 0, len(rel.ControlPoints)+1)
	cps = append(cps, rel.ControlPoints[:at]...)
	cps = append(cps, click)
	cps = append(cps, rel.ControlPoints[at:]...)
	return g.UpdateRelationship(relID, schema.RelationshipPatch{ControlPoints: &cps})
}

// DeleteWaypoint removes control point index. Removing the last one returns
// the relationship to auto routing.
func (e *Editor) DeleteWaypoint(g schema.Graph, relID string, index int) schema.Graph {
	rel, ok := g.Relationship(relID)
	if !ok || index < 0 || index >= len(rel.ControlPoints) {
		return g
	}
	if len(rel.ControlPoints) == 1 {
		return e.ResetRouting(g, relID)
	}
	cps := append([]schema.Point(nil), rel.ControlPoints[:index]...)
	cps = append(cps, rel.ControlPoints[index+1:]...)
	return g.UpdateRelationship(relID, schema.RelationshipPatch{ControlPoints: &cps})
}

// ResetRouting drops all control points and side overrides.
func (e *Editor) ResetRouting(g schema.Graph, relID string) schema.Graph {
	if e.active != nil && e.active.relID == relID {
		e.active = nil
	}
	return g.UpdateRelationship(relID, schema.RelationshipPatch{
		ControlPoints: &[]schema.Point{},
		SourceSide:    schema.Ptr(schema.SideAuto),
		TargetSide:    schema.Ptr(schema.SideAuto),
	})
}
