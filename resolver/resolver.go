// Package resolver turns connect gestures into foreign key relationships,
// raising integrity and collision conflicts for the user to settle.
package resolver

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/typeoracle"
)

// Resolver validates and commits connections against a snapshot. It holds a
// single pending-decision slot: while a conflict is open no other connection
// can start.
type Resolver struct {
	oracle  typeoracle.Oracle
	engine  schema.Engine
	newID   func() string
	logger  *zap.Logger
	pending *Conflict
}

type Option func(*Resolver)

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithIDs replaces the id generator used for new columns and relationships.
func WithIDs(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

func New(oracle typeoracle.Oracle, engine schema.Engine, opts ...Option) *Resolver {
	r := &Resolver{
		oracle: oracle,
		engine: engine,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Engine() schema.Engine { return r.engine }

func (r *Resolver) SetEngine(e schema.Engine) { r.engine = e }

// Pending returns the open conflict, if any.
func (r *Resolver) Pending() (Conflict, bool) {
	if r.pending == nil {
		return Conflict{}, false
	}
	return *r.pending, true
}

// Connect resolves a gesture against g.
func (r *Resolver) Connect(g schema.Graph, req Request) Result {
	if r.pending != nil {
		r.logger.Debug("connect ignored, decision pending", zap.String("kind", string(r.pending.Kind)))
		return Noop{}
	}
	return r.suspend(r.connect(g, req, nil))
}

// End selects which side of a relationship a reconnection moves.
type End int

const (
	SourceEnd End = iota
	TargetEnd
)

// Reconnect moves one end of an existing relationship onto another column
// (or, for the target end with an empty columnID, onto a table). The old
// relationship is replaced by a fresh one carrying the original name, type
// and manual-edit flag. Nothing changes until the new link commits.
func (r *Resolver) Reconnect(g schema.Graph, relID string, end End, tableID, columnID string) Result {
	if r.pending != nil {
		return Noop{}
	}
	orig, ok := g.Relationship(relID)
	if !ok {
		return Noop{}
	}
	req := Request{SourceTable: orig.FromTable, SourceColumn: orig.FromCol, TargetTable: orig.ToTable, TargetColumn: orig.ToCol}
	switch end {
	case SourceEnd:
		if columnID == "" {
			return Noop{}
		}
		req.SourceTable, req.SourceColumn = tableID, columnID
	case TargetEnd:
		req.TargetTable, req.TargetColumn = tableID, columnID
	}
	if req.SourceTable == orig.FromTable && req.SourceColumn == orig.FromCol &&
		req.TargetTable == orig.ToTable && req.TargetColumn == orig.ToCol {
		return Noop{}
	}
	return r.suspend(r.connect(g.DeleteRelationship(relID), req, &orig))
}

// Confirm settles an integrity conflict by overwriting the target column to
// match the source.
func (r *Resolver) Confirm(g schema.Graph) Result {
	c, ok := r.take(Integrity)
	if !ok {
		return Noop{}
	}
	g = c.base(g)
	src, tgt, ok := resolve(g, c.Request)
	if !ok || !linkable(g, src, tgt) || tgt.col.IsFK {
		return Noop{}
	}
	return c.restore(r.apply(g, src, tgt))
}

// Cancel discards the open conflict without touching the graph.
func (r *Resolver) Cancel() {
	if r.pending != nil {
		r.logger.Debug("decision cancelled", zap.String("kind", string(r.pending.Kind)))
	}
	r.pending = nil
}

// CreateNew settles a collision conflict by adding a new foreign key column.
func (r *Resolver) CreateNew(g schema.Graph) Result {
	c, ok := r.take(Collision)
	if !ok {
		return Noop{}
	}
	g = c.base(g)
	src, ok := source(g, c.Request)
	if !ok {
		return Noop{}
	}
	target, ok := g.Table(c.Request.TargetTable)
	if !ok {
		return Noop{}
	}
	return c.restore(r.createNew(g, src, target))
}

// UseExisting settles a collision conflict by linking to one of the offered
// candidates. Choosing a column that was not offered leaves the conflict open.
func (r *Resolver) UseExisting(g schema.Graph, columnID string) Result {
	if r.pending == nil || r.pending.Kind != Collision || !offered(*r.pending, columnID) {
		return Noop{}
	}
	c, _ := r.take(Collision)
	req := c.Request
	if req.TargetTable == req.SourceTable && columnID == req.SourceColumn {
		return Noop{}
	}
	req.TargetColumn = columnID
	g = c.base(g)
	src, tgt, ok := resolve(g, req)
	if !ok || !linkable(g, src, tgt) {
		return Noop{}
	}
	return c.restore(r.apply(g, src, tgt))
}

func offered(c Conflict, columnID string) bool {
	for _, cand := range c.Candidates {
		if cand.ID == columnID {
			return true
		}
	}
	return false
}

func (r *Resolver) take(kind ConflictKind) (Conflict, bool) {
	if r.pending == nil || r.pending.Kind != kind {
		return Conflict{}, false
	}
	c := *r.pending
	r.pending = nil
	return c, true
}

func (r *Resolver) suspend(res Result) Result {
	if d, ok := res.(NeedsDecision); ok {
		c := d.Conflict
		r.pending = &c
		r.logger.Debug("decision required",
			zap.String("kind", string(c.Kind)),
			zap.String("sourceTable", c.Request.SourceTable),
			zap.String("targetTable", c.Request.TargetTable))
	}
	return res
}

// base removes the relationship a reconnection replaces, if it still exists.
func (c Conflict) base(g schema.Graph) schema.Graph {
	if c.replaces == nil {
		return g
	}
	return g.DeleteRelationship(c.replaces.ID)
}

func (c Conflict) restore(res Result) Result {
	return restore(res, c.replaces)
}

// restore copies the replaced relationship's user-facing identity onto the
// freshly created one.
func restore(res Result, orig *schema.Relationship) Result {
	done, ok := res.(Committed)
	if !ok || orig == nil {
		return res
	}
	typ := orig.Type
	done.Graph = done.Graph.UpdateRelationship(done.Relationship.ID, schema.RelationshipPatch{
		Name:             &orig.Name,
		Type:             &typ,
		IsManuallyEdited: &orig.IsManuallyEdited,
	})
	done.Relationship, _ = done.Graph.Relationship(done.Relationship.ID)
	return done
}

// endpoint is a resolved table/column pair.
type endpoint struct {
	table schema.Table
	col   schema.Column
}

func source(g schema.Graph, req Request) (endpoint, bool) {
	t, ok := g.Table(req.SourceTable)
	if !ok {
		return endpoint{}, false
	}
	c, ok := t.Column(req.SourceColumn)
	return endpoint{t, c}, ok
}

func resolve(g schema.Graph, req Request) (src, tgt endpoint, ok bool) {
	if src, ok = source(g, req); !ok {
		return
	}
	t, ok := g.Table(req.TargetTable)
	if !ok {
		return
	}
	c, ok := t.Column(req.TargetColumn)
	return src, endpoint{t, c}, ok
}

// linkable rejects self-links and pairs that are already connected.
func linkable(g schema.Graph, src, tgt endpoint) bool {
	if src.table.ID == tgt.table.ID && src.col.ID == tgt.col.ID {
		return false
	}
	return !g.HasRelationshipBetween(src.table.ID, src.col.ID, tgt.table.ID, tgt.col.ID)
}

func (r *Resolver) connect(g schema.Graph, req Request, replaces *schema.Relationship) Result {
	var res Result
	if req.TableLevel() {
		res = r.connectTable(g, req)
	} else {
		res = r.connectColumn(g, req)
	}
	if d, ok := res.(NeedsDecision); ok {
		d.Conflict.replaces = replaces
		return d
	}
	return restore(res, replaces)
}

func (r *Resolver) connectColumn(g schema.Graph, req Request) Result {
	src, tgt, ok := resolve(g, req)
	if !ok || !linkable(g, src, tgt) || tgt.col.IsFK {
		return Noop{}
	}
	compatible := r.oracle.AreCompatible(src.col.Type, tgt.col.Type, r.engine)
	lengthMismatch := tgt.col.Length != src.col.Length && strings.Contains(strings.ToUpper(src.col.Type), "CHAR")
	if !compatible || lengthMismatch || tgt.col.IsNullable != expectedNullable(src.col) {
		target := tgt.col
		return NeedsDecision{Conflict{Kind: Integrity, Request: req, Source: src.col, Target: &target}}
	}
	return r.apply(g, src, tgt)
}

func (r *Resolver) connectTable(g schema.Graph, req Request) Result {
	src, ok := source(g, req)
	if !ok {
		return Noop{}
	}
	target, ok := g.Table(req.TargetTable)
	if !ok {
		return Noop{}
	}
	fold := cases.Fold()
	want := fold.String(src.col.Name)
	var named *schema.Column
	var compatible []schema.Column
	for _, c := range target.Columns {
		if named == nil && fold.String(c.Name) == want {
			named = &c
		}
		if !c.IsIdentity && r.oracle.AreCompatible(src.col.Type, c.Type, r.engine) {
			compatible = append(compatible, c)
		}
	}
	switch {
	case named != nil:
		return NeedsDecision{Conflict{Kind: Collision, Request: req, Source: src.col, Candidates: []schema.Column{*named}}}
	case len(compatible) > 0:
		return NeedsDecision{Conflict{Kind: Collision, Request: req, Source: src.col, Candidates: compatible}}
	}
	return r.createNew(g, src, target)
}

// expectedNullable is the nullability a column referencing src must have:
// identity and non-nullable sources force a non-nullable reference.
func expectedNullable(src schema.Column) bool {
	return !(src.IsIdentity || !src.IsNullable)
}

// apply links src to an existing target column, aligning the target's type,
// length and nullability with the source.
func (r *Resolver) apply(g schema.Graph, src, tgt endpoint) Result {
	typ := r.oracle.CanonicalType(src.col.Type, r.engine)
	length := src.col.Length
	nullable := expectedNullable(src.col)
	g = g.UpdateColumn(tgt.table.ID, tgt.col.ID, schema.ColumnPatch{
		Type:       &typ,
		Length:     &length,
		IsNullable: &nullable,
	})
	return r.link(g, src, tgt.table, tgt.col.ID, nil)
}

// createNew adds a foreign key column to target and links src to it.
func (r *Resolver) createNew(g schema.Graph, src endpoint, target schema.Table) Result {
	col := schema.Column{
		ID:          r.newID(),
		Name:        UniqueColumnName(target, src.col.Name),
		LogicalName: src.col.LogicalName,
		Type:        r.oracle.CanonicalType(src.col.Type, r.engine),
		Length:      src.col.Length,
		IsNullable:  expectedNullable(src.col),
	}
	g = g.AddColumn(target.ID, col)
	target, _ = g.Table(target.ID)
	return r.link(g, src, target, col.ID, &col)
}

func (r *Resolver) link(g schema.Graph, src endpoint, target schema.Table, colID string, created *schema.Column) Result {
	tgtCol, ok := target.Column(colID)
	if !ok {
		return Noop{}
	}
	rel := schema.Relationship{
		ID:        r.newID(),
		Name:      schema.RelationshipName(src.table.Name, src.col.Name, target.Name, tgtCol.Name),
		FromTable: src.table.ID,
		FromCol:   src.col.ID,
		ToTable:   target.ID,
		ToCol:     colID,
		Type:      schema.OneToMany,
	}
	g = g.AddRelationship(rel)
	committed, ok := g.Relationship(rel.ID)
	if !ok {
		return Noop{}
	}
	if created != nil {
		c, _ := g.Column(target.ID, colID)
		created = &c
	}
	r.logger.Debug("relationship committed", zap.String("name", committed.Name))
	return Committed{Graph: g, Relationship: committed, Created: created}
}

// UniqueColumnName returns base, or base followed by the smallest suffix
// from 2 upward, so that no column of t shares the name case-insensitively.
func UniqueColumnName(t schema.Table, base string) string {
	fold := cases.Fold()
	taken := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		taken[fold.String(c.Name)] = true
	}
	name := base
	for n := 2; taken[fold.String(name)]; n++ {
		name = base + strconv.Itoa(n)
	}
	return name
}

// UpdateCardinality changes a relationship's type. Every type except N:M
// also fixes the target column's nullability to the type's optionality.
func UpdateCardinality(g schema.Graph, relID string, c schema.Cardinality) schema.Graph {
	rel, ok := g.Relationship(relID)
	if !ok || !c.Valid() {
		return g
	}
	g = g.UpdateRelationship(relID, schema.RelationshipPatch{Type: &c})
	if c == schema.ManyToMany {
		return g
	}
	nullable := c.Optional()
	return g.UpdateColumn(rel.ToTable, rel.ToCol, schema.ColumnPatch{IsNullable: &nullable})
}
