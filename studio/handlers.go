package studio

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ridoystarlord/erdkit/resolver"
	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
)

var (
	errTableNotFound        = errors.New("table not found")
	errColumnNotFound       = errors.New("column not found")
	errRelationshipNotFound = errors.New("relationship not found")
)

func (s *Server) GetDiagram(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	Success(c, http.StatusOK, s.store.Diagram(), "")
}

func (s *Server) Save(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.save == nil {
		Fail(c, http.StatusNotImplemented, ErrNoSaver, "Diagram was not saved")
		return
	}
	if err := s.save(s.store.Diagram()); err != nil {
		s.logger.Error("save failed", zap.Error(err))
		Fail(c, http.StatusInternalServerError, err, "Diagram was not saved")
		return
	}
	Success(c, http.StatusOK, nil, "Diagram saved")
}

type EngineRequest struct {
	Engine schema.Engine `json:"engine" binding:"required"`
}

// SetEngine switches the target engine for both the stored diagram and the
// resolver's type checks.
func (s *Server) SetEngine(c *gin.Context) {
	var req EngineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if !req.Engine.Valid() {
		Fail(c, http.StatusBadRequest, nil, "Unknown engine "+string(req.Engine))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.SetEngine(req.Engine)
	s.resolver.SetEngine(req.Engine)
	s.logger.Info("engine changed", zap.String("engine", string(req.Engine)))
	Success(c, http.StatusOK, s.store.Diagram(), "Engine updated")
}

type CreateTableRequest struct {
	Name        string          `json:"name" binding:"required"`
	LogicalName string          `json:"logicalName"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Columns     []schema.Column `json:"columns"`
}

func (s *Server) CreateTable(c *gin.Context) {
	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := schema.Table{ID: s.newID(), Name: req.Name, LogicalName: req.LogicalName, X: req.X, Y: req.Y, Columns: req.Columns}
	for i := range t.Columns {
		if t.Columns[i].ID == "" {
			t.Columns[i].ID = s.newID()
		}
	}
	g := s.store.AddTable(t)
	created, _ := g.Table(t.ID)
	Success(c, http.StatusCreated, created, "Table created successfully")
}

type UpdateTableRequest struct {
	Name               *string  `json:"name"`
	LogicalName        *string  `json:"logicalName"`
	X                  *float64 `json:"x"`
	Y                  *float64 `json:"y"`
	IsManuallyEditable *bool    `json:"isManuallyEditable"`
}

func (s *Server) UpdateTable(c *gin.Context) {
	var req UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Table(id); !ok {
		Fail(c, http.StatusNotFound, errTableNotFound, "Table not found")
		return
	}
	g := s.store.UpdateTable(id, schema.TablePatch{
		Name:               req.Name,
		LogicalName:        req.LogicalName,
		X:                  req.X,
		Y:                  req.Y,
		IsManuallyEditable: req.IsManuallyEditable,
	})
	t, _ := g.Table(id)
	Success(c, http.StatusOK, t, "Table updated successfully")
}

func (s *Server) DeleteTable(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Table(id); !ok {
		Fail(c, http.StatusNotFound, errTableNotFound, "Table not found")
		return
	}
	s.store.DeleteTable(id)
	Success(c, http.StatusOK, nil, "Table deleted successfully")
}

type AddColumnRequest struct {
	Name         string  `json:"name" binding:"required"`
	LogicalName  string  `json:"logicalName"`
	Type         string  `json:"type" binding:"required"`
	Length       string  `json:"length"`
	IsPK         bool    `json:"isPk"`
	IsNullable   bool    `json:"isNullable"`
	IsUnique     bool    `json:"isUnique"`
	IsIdentity   bool    `json:"isIdentity"`
	DefaultValue *string `json:"defaultValue"`
}

func (s *Server) AddColumn(c *gin.Context) {
	var req AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableID := c.Param("id")
	if _, ok := s.store.Graph().Table(tableID); !ok {
		Fail(c, http.StatusNotFound, errTableNotFound, "Table not found")
		return
	}
	col := schema.Column{
		ID:           s.newID(),
		Name:         req.Name,
		LogicalName:  req.LogicalName,
		Type:         req.Type,
		Length:       req.Length,
		IsPK:         req.IsPK,
		IsNullable:   req.IsNullable,
		IsUnique:     req.IsUnique,
		IsIdentity:   req.IsIdentity,
		DefaultValue: req.DefaultValue,
	}
	g := s.store.AddColumn(tableID, col)
	created, _ := g.Column(tableID, col.ID)
	Success(c, http.StatusCreated, created, "Column created successfully")
}

type UpdateColumnRequest struct {
	Name         *string `json:"name"`
	LogicalName  *string `json:"logicalName"`
	Type         *string `json:"type"`
	Length       *string `json:"length"`
	IsPK         *bool   `json:"isPk"`
	IsNullable   *bool   `json:"isNullable"`
	IsUnique     *bool   `json:"isUnique"`
	IsIdentity   *bool   `json:"isIdentity"`
	OriginalType *string `json:"originalType"`
	DefaultValue *string `json:"defaultValue"`
	ClearDefault bool    `json:"clearDefault"`
}

func (s *Server) UpdateColumn(c *gin.Context) {
	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableID, colID := c.Param("id"), c.Param("col")
	if _, ok := s.store.Graph().Column(tableID, colID); !ok {
		Fail(c, http.StatusNotFound, errColumnNotFound, "Column not found")
		return
	}
	g := s.store.UpdateColumn(tableID, colID, schema.ColumnPatch{
		Name:         req.Name,
		LogicalName:  req.LogicalName,
		Type:         req.Type,
		Length:       req.Length,
		IsPK:         req.IsPK,
		IsNullable:   req.IsNullable,
		IsUnique:     req.IsUnique,
		IsIdentity:   req.IsIdentity,
		OriginalType: req.OriginalType,
		DefaultValue: req.DefaultValue,
		ClearDefault: req.ClearDefault,
	})
	col, _ := g.Column(tableID, colID)
	Success(c, http.StatusOK, col, "Column updated successfully")
}

func (s *Server) DeleteColumn(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tableID, colID := c.Param("id"), c.Param("col")
	if _, ok := s.store.Graph().Column(tableID, colID); !ok {
		Fail(c, http.StatusNotFound, errColumnNotFound, "Column not found")
		return
	}
	s.store.DeleteColumn(tableID, colID)
	Success(c, http.StatusOK, nil, "Column deleted successfully")
}

type MoveColumnRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (s *Server) MoveColumn(c *gin.Context) {
	var req MoveColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableID := c.Param("id")
	if _, ok := s.store.Graph().Table(tableID); !ok {
		Fail(c, http.StatusNotFound, errTableNotFound, "Table not found")
		return
	}
	g := s.store.MoveColumn(tableID, req.From, req.To)
	t, _ := g.Table(tableID)
	Success(c, http.StatusOK, t, "Column moved")
}

// ConnectResponse reports what a connection attempt did.
type ConnectResponse struct {
	Outcome      string               `json:"outcome"` // "committed", "needs_decision" or "noop"
	Relationship *schema.Relationship `json:"relationship,omitempty"`
	Created      *schema.Column       `json:"created,omitempty"`
	Conflict     *resolver.Conflict   `json:"conflict,omitempty"`
}

// respond commits a resolver result and writes it out. Callers hold mu.
func (s *Server) respond(c *gin.Context, res resolver.Result) {
	switch res := res.(type) {
	case resolver.Committed:
		s.store.Commit(res.Graph)
		s.logger.Info("relationship committed",
			zap.String("id", res.Relationship.ID),
			zap.String("name", res.Relationship.Name))
		Success(c, http.StatusOK, ConnectResponse{Outcome: "committed", Relationship: &res.Relationship, Created: res.Created}, "Relationship created")
	case resolver.NeedsDecision:
		Success(c, http.StatusAccepted, ConnectResponse{Outcome: "needs_decision", Conflict: &res.Conflict}, "Decision required")
	default:
		Success(c, http.StatusOK, ConnectResponse{Outcome: "noop"}, "Nothing changed")
	}
}

func (s *Server) Connect(c *gin.Context) {
	var req resolver.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if req.SourceTable == "" || req.SourceColumn == "" || req.TargetTable == "" {
		Fail(c, http.StatusBadRequest, nil, "sourceTable, sourceColumn and targetTable are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.respond(c, s.resolver.Connect(s.store.Graph(), req))
}

func (s *Server) GetConflict(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conflict, ok := s.resolver.Pending()
	if !ok {
		Fail(c, http.StatusNotFound, ErrNoPendingDecision, "No conflict")
		return
	}
	Success(c, http.StatusOK, conflict, "")
}

// pending writes a 409 and reports false when no conflict of kind is open.
func (s *Server) pending(c *gin.Context, kind resolver.ConflictKind) bool {
	conflict, ok := s.resolver.Pending()
	if !ok || conflict.Kind != kind {
		Fail(c, http.StatusConflict, ErrNoPendingDecision, "No "+string(kind)+" conflict is pending")
		return false
	}
	return true
}

func (s *Server) ConfirmConflict(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending(c, resolver.Integrity) {
		return
	}
	s.respond(c, s.resolver.Confirm(s.store.Graph()))
}

func (s *Server) CancelConflict(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resolver.Pending(); !ok {
		Fail(c, http.StatusConflict, ErrNoPendingDecision, "No conflict is pending")
		return
	}
	s.resolver.Cancel()
	Success(c, http.StatusOK, nil, "Connection cancelled")
}

func (s *Server) CreateNewColumn(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending(c, resolver.Collision) {
		return
	}
	s.respond(c, s.resolver.CreateNew(s.store.Graph()))
}

type UseExistingRequest struct {
	ColumnID string `json:"columnId" binding:"required"`
}

func (s *Server) UseExistingColumn(c *gin.Context) {
	var req UseExistingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending(c, resolver.Collision) {
		return
	}
	s.respond(c, s.resolver.UseExisting(s.store.Graph(), req.ColumnID))
}

type ReconnectRequest struct {
	End      string `json:"end" binding:"required,oneof=source target"`
	TableID  string `json:"tableId" binding:"required"`
	ColumnID string `json:"columnId"`
}

func (s *Server) Reconnect(c *gin.Context) {
	var req ReconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	end := resolver.TargetEnd
	if req.End == "source" {
		end = resolver.SourceEnd
	}
	s.respond(c, s.resolver.Reconnect(s.store.Graph(), id, end, req.TableID, req.ColumnID))
}

type CardinalityRequest struct {
	Type schema.Cardinality `json:"type" binding:"required"`
}

func (s *Server) UpdateCardinality(c *gin.Context) {
	var req CardinalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if !req.Type.Valid() {
		Fail(c, http.StatusBadRequest, nil, "Unknown relationship type "+string(req.Type))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	g := s.store.Apply(func(g schema.Graph) schema.Graph {
		return resolver.UpdateCardinality(g, id, req.Type)
	})
	rel, _ := g.Relationship(id)
	Success(c, http.StatusOK, rel, "Relationship updated")
}

func (s *Server) DeleteRelationship(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	s.store.DeleteRelationship(id)
	Success(c, http.StatusOK, nil, "Relationship deleted")
}

// RouteResponse is a computed path ready to draw.
type RouteResponse struct {
	Points   []schema.Point `json:"points"`
	Path     string         `json:"path"`
	Midpoint schema.Point   `json:"midpoint"`
	Manual   bool           `json:"manual"`
	Style    router.Style   `json:"style"`
	Mode     router.Mode    `json:"mode"`
}

// GetRoute computes the route of one relationship. The style and mode query
// parameters override the server defaults for this request only.
func (s *Server) GetRoute(c *gin.Context) {
	style := router.Style(c.DefaultQuery("style", string(s.style)))
	mode := router.Mode(c.DefaultQuery("mode", string(s.mode)))
	if !style.Valid() || !mode.Valid() {
		Fail(c, http.StatusBadRequest, nil, "Unknown route style or mode")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.store.Graph()
	rel, ok := g.Relationship(c.Param("id"))
	if !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	rt, ok := s.router.Plan(rel, g.Tables(), style, mode)
	if !ok {
		Fail(c, http.StatusUnprocessableEntity, nil, "Relationship cannot be placed")
		return
	}
	Success(c, http.StatusOK, RouteResponse{
		Points:   rt.Points,
		Path:     rt.Path(),
		Midpoint: rt.Midpoint(),
		Manual:   rel.Manual(),
		Style:    style,
		Mode:     mode,
	}, "")
}

// routed writes the relationship's updated control points. Callers hold mu.
func (s *Server) routed(c *gin.Context, g schema.Graph, id, message string) {
	g = s.store.Commit(g)
	rel, _ := g.Relationship(id)
	Success(c, http.StatusOK, rel, message)
}

func (s *Server) AddWaypoint(c *gin.Context) {
	var p schema.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	s.routed(c, s.editor.InsertWaypoint(s.store.Graph(), id, p), id, "Waypoint added")
}

// MoveWaypoint drops waypoint index at the given point, as a completed drag.
func (s *Server) MoveWaypoint(c *gin.Context) {
	var p schema.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid waypoint index")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	// An auto route only has waypoints once materialized. Grab with the
	// pointer on the waypoint itself so the drop lands on p.
	g := s.editor.Materialize(s.store.Graph(), id)
	rel, _ := g.Relationship(id)
	if index < 0 || index >= len(rel.ControlPoints) {
		Fail(c, http.StatusBadRequest, nil, "Invalid waypoint index")
		return
	}
	g, ok := s.editor.GrabWaypoint(g, id, index, rel.ControlPoints[index])
	if !ok {
		Fail(c, http.StatusBadRequest, nil, "Invalid waypoint index")
		return
	}
	g = s.editor.Drag(g, p)
	s.editor.Release()
	s.routed(c, g, id, "Waypoint moved")
}

type MoveSegmentRequest struct {
	From schema.Point `json:"from"`
	To   schema.Point `json:"to"`
}

// MoveSegment drags polyline segment index from one pointer position to
// another, as a completed drag.
func (s *Server) MoveSegment(c *gin.Context) {
	var req MoveSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid segment index")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	g, ok := s.editor.GrabSegment(s.store.Graph(), id, index, req.From)
	if !ok {
		Fail(c, http.StatusBadRequest, nil, "Invalid segment index")
		return
	}
	g = s.editor.Drag(g, req.To)
	s.editor.Release()
	s.routed(c, g, id, "Segment moved")
}

func (s *Server) DeleteWaypoint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid waypoint index")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	s.routed(c, s.editor.DeleteWaypoint(s.store.Graph(), id, index), id, "Waypoint deleted")
}

func (s *Server) ResetRouting(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Graph().Relationship(id); !ok {
		Fail(c, http.StatusNotFound, errRelationshipNotFound, "Relationship not found")
		return
	}
	s.routed(c, s.editor.ResetRouting(s.store.Graph(), id), id, "Routing reset")
}
