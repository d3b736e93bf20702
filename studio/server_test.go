package studio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/erdkit/resolver"
	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/typeoracle"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func diagram() schema.Diagram {
	return schema.Diagram{
		Engine: schema.Postgres,
		Tables: []schema.Table{
			{ID: "users", Name: "users", Columns: []schema.Column{
				{ID: "u_id", Name: "id", Type: "INTEGER", IsPK: true},
				{ID: "u_email", Name: "email", Type: "VARCHAR", Length: "255"},
			}},
			{ID: "orders", Name: "orders", X: 400, Columns: []schema.Column{
				{ID: "o_id", Name: "id", Type: "INTEGER", IsPK: true},
				{ID: "o_user", Name: "user_id", Type: "INTEGER"},
				{ID: "o_note", Name: "note", Type: "TEXT", IsNullable: true},
			}},
			{ID: "tags", Name: "tags", Y: 400, Columns: []schema.Column{
				{ID: "t_label", Name: "label", Type: "TEXT"},
			}},
		},
	}
}

type testServer struct {
	*Server
	store   *schema.Store
	handler http.Handler
	saved   []schema.Diagram
}

func newTestServer(t *testing.T, d schema.Diagram) *testServer {
	t.Helper()
	n := 0
	ts := &testServer{store: schema.NewStore(d)}
	ts.Server = New(ts.store, typeoracle.Default{},
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithSaver(func(d schema.Diagram) error {
			ts.saved = append(ts.saved, d)
			return nil
		}),
	)
	ts.handler = ts.Handler()
	return ts
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (ts *testServer) connect(t *testing.T, req resolver.Request) (int, ConnectResponse) {
	t.Helper()
	code, env := ts.do(t, http.MethodPost, "/api/connect", req)
	return code, decode[ConnectResponse](t, env)
}

func TestGetDiagram(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, env := ts.do(t, http.MethodGet, "/api/diagram", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	d := decode[schema.Diagram](t, env)
	assert.Len(t, d.Tables, 3)
	assert.Equal(t, schema.Postgres, d.Engine)
}

func TestConnectDirectCommits(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, res := ts.connect(t, resolver.Request{SourceTable: "users", SourceColumn: "u_id", TargetTable: "orders", TargetColumn: "o_user"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "committed", res.Outcome)
	require.NotNil(t, res.Relationship)
	assert.Equal(t, "fk_users_id_orders_user_id", res.Relationship.Name)

	col, ok := ts.store.Graph().Column("orders", "o_user")
	require.True(t, ok)
	assert.True(t, col.IsFK)
	assert.Len(t, ts.store.Graph().Relationships(), 1)
}

func TestConnectNeedsDecisionThenConfirm(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, res := ts.connect(t, resolver.Request{SourceTable: "users", SourceColumn: "u_id", TargetTable: "orders", TargetColumn: "o_note"})
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "needs_decision", res.Outcome)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, resolver.Integrity, res.Conflict.Kind)
	assert.Empty(t, ts.store.Graph().Relationships())

	code, env := ts.do(t, http.MethodGet, "/api/conflict", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, resolver.Integrity, decode[resolver.Conflict](t, env).Kind)

	code, env = ts.do(t, http.MethodPost, "/api/conflict/confirm", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "committed", decode[ConnectResponse](t, env).Outcome)

	note, _ := ts.store.Graph().Column("orders", "o_note")
	assert.False(t, note.IsNullable)
	assert.True(t, note.IsFK)

	code, _ = ts.do(t, http.MethodGet, "/api/conflict", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCancelConflict(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, _ := ts.connect(t, resolver.Request{SourceTable: "users", SourceColumn: "u_id", TargetTable: "orders", TargetColumn: "o_note"})
	require.Equal(t, http.StatusAccepted, code)

	code, _ = ts.do(t, http.MethodPost, "/api/conflict/cancel", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, ts.store.Graph().Relationships())

	code, _ = ts.do(t, http.MethodPost, "/api/conflict/cancel", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestConflictEndpointsWithoutPending(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	for _, path := range []string{"/api/conflict/confirm", "/api/conflict/create-new"} {
		code, env := ts.do(t, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusConflict, code, path)
		assert.Equal(t, ErrNoPendingDecision.Error(), env.Error, path)
	}
	code, _ := ts.do(t, http.MethodPost, "/api/conflict/use-existing", UseExistingRequest{ColumnID: "o_user"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestTableLevelConnectCreatesColumn(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, res := ts.connect(t, resolver.Request{SourceTable: "users", SourceColumn: "u_id", TargetTable: "tags"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "committed", res.Outcome)
	require.NotNil(t, res.Created)
	assert.Equal(t, "id", res.Created.Name)
	assert.Equal(t, "id-1", res.Created.ID)

	tags, _ := ts.store.Graph().Table("tags")
	assert.Len(t, tags.Columns, 2)
}

func TestCollisionUseExisting(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, res := ts.connect(t, resolver.Request{SourceTable: "users", SourceColumn: "u_id", TargetTable: "orders"})
	require.Equal(t, http.StatusAccepted, code)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, resolver.Collision, res.Conflict.Kind)

	code, env := ts.do(t, http.MethodPost, "/api/conflict/use-existing", UseExistingRequest{ColumnID: "o_id"})
	require.Equal(t, http.StatusOK, code)
	out := decode[ConnectResponse](t, env)
	require.NotNil(t, out.Relationship)
	assert.Equal(t, "o_id", out.Relationship.ToCol)
}

func TestConnectValidatesBody(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, env := ts.do(t, http.MethodPost, "/api/connect", resolver.Request{SourceTable: "users"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", env.Status)
}

func withRelationship() schema.Diagram {
	d := diagram()
	d.Relationships = []schema.Relationship{{
		ID: "r1", FromTable: "users", FromCol: "u_id", ToTable: "orders", ToCol: "o_user", Type: schema.OneToMany,
	}}
	return d
}

func TestUpdateCardinalitySyncsNullability(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	code, env := ts.do(t, http.MethodPut, "/api/relationships/r1/cardinality", CardinalityRequest{Type: schema.OneToZeroOrMany})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, schema.OneToZeroOrMany, decode[schema.Relationship](t, env).Type)

	col, _ := ts.store.Graph().Column("orders", "o_user")
	assert.True(t, col.IsNullable)

	code, _ = ts.do(t, http.MethodPut, "/api/relationships/r1/cardinality", CardinalityRequest{Type: "2:3"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReconnect(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	code, env := ts.do(t, http.MethodPost, "/api/relationships/r1/reconnect", ReconnectRequest{End: "target", TableID: "orders", ColumnID: "o_id"})
	require.Equal(t, http.StatusOK, code)
	out := decode[ConnectResponse](t, env)
	require.Equal(t, "committed", out.Outcome)
	assert.NotEqual(t, "r1", out.Relationship.ID)
	assert.Equal(t, "fk_users_id_orders_user_id", out.Relationship.Name)
	_, stale := ts.store.Graph().Relationship("r1")
	assert.False(t, stale)
	assert.Equal(t, "o_id", out.Relationship.ToCol)

	code, _ = ts.do(t, http.MethodPost, "/api/relationships/r1/reconnect", ReconnectRequest{End: "middle", TableID: "orders"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetRoute(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	code, env := ts.do(t, http.MethodGet, "/api/relationships/r1/route", nil)
	require.Equal(t, http.StatusOK, code)
	rt := decode[RouteResponse](t, env)
	require.NotEmpty(t, rt.Points)
	assert.Equal(t, schema.Point{X: 250, Y: 54}, rt.Points[0])
	assert.Equal(t, schema.Point{X: 400, Y: 82}, rt.Points[len(rt.Points)-1])
	assert.NotEmpty(t, rt.Path)
	assert.False(t, rt.Manual)

	code, env = ts.do(t, http.MethodGet, "/api/relationships/r1/route?style=curved", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "M 250 54 C 290 54, 360 82, 400 82", decode[RouteResponse](t, env).Path)

	code, _ = ts.do(t, http.MethodGet, "/api/relationships/r1/route?style=zigzag", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWaypointEditing(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	click := schema.Point{X: 325, Y: 70}
	code, env := ts.do(t, http.MethodPost, "/api/relationships/r1/waypoints", click)
	require.Equal(t, http.StatusOK, code)
	rel := decode[schema.Relationship](t, env)
	assert.Contains(t, rel.ControlPoints, click)

	code, env = ts.do(t, http.MethodPut, "/api/relationships/r1/waypoints/1", schema.Point{X: 340, Y: 70})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, decode[schema.Relationship](t, env).ControlPoints, schema.Point{X: 340, Y: 70})

	n := len(decode[schema.Relationship](t, env).ControlPoints)
	code, env = ts.do(t, http.MethodDelete, "/api/relationships/r1/waypoints/0", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[schema.Relationship](t, env).ControlPoints, n-1)

	code, _ = ts.do(t, http.MethodPut, "/api/relationships/r1/waypoints/abc", click)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodPost, "/api/relationships/r1/routing/reset", nil)
	require.Equal(t, http.StatusOK, code)
	got, _ := ts.store.Graph().Relationship("r1")
	assert.False(t, got.Manual())
	assert.False(t, ts.editor.Dragging())
}

func TestMoveSegmentOnAutoRoute(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	code, env := ts.do(t, http.MethodPut, "/api/relationships/r1/segments/1", MoveSegmentRequest{
		From: schema.Point{X: 325, Y: 70},
		To:   schema.Point{X: 360, Y: 70},
	})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[schema.Relationship](t, env).Manual())
	assert.False(t, ts.editor.Dragging())

	code, _ = ts.do(t, http.MethodPut, "/api/relationships/r1/segments/99", MoveSegmentRequest{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRenameTableRenamesRelationships(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	code, env := ts.do(t, http.MethodPatch, "/api/tables/users", UpdateTableRequest{Name: schema.Ptr("customers")})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "customers", decode[schema.Table](t, env).Name)

	rel, _ := ts.store.Graph().Relationship("r1")
	assert.Equal(t, "fk_customers_id_orders_user_id", rel.Name)
}

func TestTableAndColumnLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, env := ts.do(t, http.MethodPost, "/api/tables", CreateTableRequest{Name: "invoices", X: 800})
	require.Equal(t, http.StatusCreated, code)
	table := decode[schema.Table](t, env)
	assert.Equal(t, "id-1", table.ID)

	code, env = ts.do(t, http.MethodPost, "/api/tables/id-1/columns", AddColumnRequest{Name: "id", Type: "INTEGER", IsPK: true, IsNullable: true})
	require.Equal(t, http.StatusCreated, code)
	col := decode[schema.Column](t, env)
	assert.Equal(t, "id-2", col.ID)
	assert.False(t, col.IsNullable)

	code, env = ts.do(t, http.MethodPatch, "/api/tables/id-1/columns/id-2", UpdateColumnRequest{Name: schema.Ptr("invoice_id")})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "invoice_id", decode[schema.Column](t, env).Name)

	code, _ = ts.do(t, http.MethodPost, "/api/tables/orders/columns/move", MoveColumnRequest{From: 2, To: 0})
	require.Equal(t, http.StatusOK, code)
	orders, _ := ts.store.Graph().Table("orders")
	assert.Equal(t, "o_note", orders.Columns[0].ID)

	code, _ = ts.do(t, http.MethodDelete, "/api/tables/id-1/columns/id-2", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodDelete, "/api/tables/id-1", nil)
	require.Equal(t, http.StatusOK, code)
	_, ok := ts.store.Graph().Table("id-1")
	assert.False(t, ok)
}

func TestDeleteRelationshipClearsFK(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	code, _ := ts.do(t, http.MethodDelete, "/api/relationships/r1", nil)
	require.Equal(t, http.StatusOK, code)

	col, _ := ts.store.Graph().Column("orders", "o_user")
	assert.False(t, col.IsFK)
}

func TestMissingIDs(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	tests := []struct {
		method, path string
		body         any
	}{
		{http.MethodPatch, "/api/tables/nope", UpdateTableRequest{}},
		{http.MethodDelete, "/api/tables/nope", nil},
		{http.MethodPost, "/api/tables/nope/columns", AddColumnRequest{Name: "x", Type: "TEXT"}},
		{http.MethodDelete, "/api/tables/users/columns/nope", nil},
		{http.MethodDelete, "/api/relationships/nope", nil},
		{http.MethodGet, "/api/relationships/nope/route", nil},
		{http.MethodPost, "/api/relationships/nope/routing/reset", nil},
	}
	for _, tt := range tests {
		code, env := ts.do(t, tt.method, tt.path, tt.body)
		assert.Equal(t, http.StatusNotFound, code, "%s %s", tt.method, tt.path)
		assert.Equal(t, "error", env.Status)
	}
}

func TestSave(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, _ := ts.do(t, http.MethodPost, "/api/save", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, ts.saved, 1)
	assert.Len(t, ts.saved[0].Tables, 3)

	bare := New(schema.NewStore(diagram()), typeoracle.Default{})
	w := httptest.NewRecorder()
	bare.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/save", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	failing := New(schema.NewStore(diagram()), typeoracle.Default{}, WithSaver(func(schema.Diagram) error {
		return errors.New("disk full")
	}))
	w = httptest.NewRecorder()
	failing.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/save", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMoveWaypointOnAutoRoute(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, withRelationship())
	drop := schema.Point{X: 340, Y: 70}
	code, env := ts.do(t, http.MethodPut, "/api/relationships/r1/waypoints/0", drop)
	require.Equal(t, http.StatusOK, code)
	rel := decode[schema.Relationship](t, env)
	require.NotEmpty(t, rel.ControlPoints)
	assert.Equal(t, drop, rel.ControlPoints[0])
	assert.False(t, ts.editor.Dragging())

	code, _ = ts.do(t, http.MethodPut, "/api/relationships/r1/waypoints/9", drop)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSetEngineReachesResolver(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, diagram())
	code, env := ts.do(t, http.MethodPut, "/api/engine", EngineRequest{Engine: schema.MySQL})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, schema.MySQL, decode[schema.Diagram](t, env).Engine)
	assert.Equal(t, schema.MySQL, ts.store.Engine())
	assert.Equal(t, schema.MySQL, ts.resolver.Engine())

	code, _ = ts.do(t, http.MethodPut, "/api/engine", EngineRequest{Engine: "oracle"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, schema.MySQL, ts.resolver.Engine())
}
