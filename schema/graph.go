package schema

// Graph is an immutable snapshot of a diagram's tables and relationships.
// Entities reference each other by id only. Every mutation returns a new
// Graph and leaves the receiver untouched; operations given ids that do not
// resolve return the receiver unchanged.
type Graph struct {
	tables        []Table
	relationships []Relationship
}

// NewGraph builds a snapshot from plain records, repairing anything that
// breaks the structural invariants: duplicate ids are dropped, PK and
// identity columns are made non-nullable, relationships with dangling
// endpoints are removed and every isFk flag is recomputed.
func NewGraph(tables []Table, relationships []Relationship) Graph {
	g := Graph{}
	seenTables := map[string]bool{}
	for _, t := range tables {
		if t.ID == "" || seenTables[t.ID] {
			continue
		}
		seenTables[t.ID] = true
		t = cloneTable(t)
		seenCols := map[string]bool{}
		cols := t.Columns[:0]
		for _, c := range t.Columns {
			if c.ID == "" || seenCols[c.ID] {
				continue
			}
			seenCols[c.ID] = true
			c = normalizeColumn(c)
			c.IsFK = false
			cols = append(cols, c)
		}
		t.Columns = cols
		g.tables = append(g.tables, t)
	}
	for _, r := range relationships {
		if next, ok := g.addRelationship(r); ok {
			g = next
		}
	}
	return g
}

// Tables returns a copy of every table, in diagram order.
func (g Graph) Tables() []Table {
	out := make([]Table, len(g.tables))
	for i, t := range g.tables {
		out[i] = cloneTable(t)
	}
	return out
}

// Relationships returns a copy of every relationship.
func (g Graph) Relationships() []Relationship {
	out := make([]Relationship, len(g.relationships))
	for i, r := range g.relationships {
		out[i] = cloneRelationship(r)
	}
	return out
}

func (g Graph) Table(id string) (Table, bool) {
	if i := g.tableIndex(id); i >= 0 {
		return cloneTable(g.tables[i]), true
	}
	return Table{}, false
}

func (g Graph) Column(tableID, columnID string) (Column, bool) {
	i := g.tableIndex(tableID)
	if i < 0 {
		return Column{}, false
	}
	return g.tables[i].Column(columnID)
}

func (g Graph) Relationship(id string) (Relationship, bool) {
	if i := g.relationshipIndex(id); i >= 0 {
		return cloneRelationship(g.relationships[i]), true
	}
	return Relationship{}, false
}

// RelationshipsOf returns every relationship touching the table.
func (g Graph) RelationshipsOf(tableID string) []Relationship {
	var out []Relationship
	for _, r := range g.relationships {
		if r.FromTable == tableID || r.ToTable == tableID {
			out = append(out, cloneRelationship(r))
		}
	}
	return out
}

// HasRelationshipBetween reports whether any relationship binds the two
// columns, in either direction.
func (g Graph) HasRelationshipBetween(tableA, colA, tableB, colB string) bool {
	for _, r := range g.relationships {
		if r.Connects(tableA, colA, tableB, colB) {
			return true
		}
	}
	return false
}

// AddTable appends a table. Columns arriving with isFk set are cleared since
// no relationship targets them yet.
func (g Graph) AddTable(t Table) Graph {
	if t.ID == "" || g.tableIndex(t.ID) >= 0 {
		return g
	}
	return NewGraph(append(g.Tables(), t), g.relationships)
}

// TablePatch lists the table fields a caller may change; nil means unchanged.
type TablePatch struct {
	Name               *string
	LogicalName        *string
	X                  *float64
	Y                  *float64
	IsManuallyEditable *bool
}

func (g Graph) UpdateTable(id string, p TablePatch) Graph {
	i := g.tableIndex(id)
	if i < 0 {
		return g
	}
	next := g.clone()
	t := &next.tables[i]
	oldName := t.Name
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.LogicalName != nil {
		t.LogicalName = *p.LogicalName
	}
	if p.X != nil {
		t.X = *p.X
	}
	if p.Y != nil {
		t.Y = *p.Y
	}
	if p.IsManuallyEditable != nil {
		t.IsManuallyEditable = *p.IsManuallyEditable
	}
	if t.Name != oldName {
		next.renameDefaults(g)
	}
	return next
}

// MoveTable sets a table's diagram position.
func (g Graph) MoveTable(id string, x, y float64) Graph {
	return g.UpdateTable(id, TablePatch{X: &x, Y: &y})
}

// DeleteTable removes the table and every relationship touching it.
func (g Graph) DeleteTable(id string) Graph {
	i := g.tableIndex(id)
	if i < 0 {
		return g
	}
	next := g.clone()
	next.tables = append(next.tables[:i], next.tables[i+1:]...)
	var targets [][2]string
	kept := next.relationships[:0]
	for _, r := range next.relationships {
		if r.FromTable == id || r.ToTable == id {
			targets = append(targets, [2]string{r.ToTable, r.ToCol})
			continue
		}
		kept = append(kept, r)
	}
	next.relationships = kept
	for _, tc := range targets {
		next.syncFK(tc[0], tc[1])
	}
	return next
}

// AddColumn appends a column to the table. The isFk flag is derived and
// always starts cleared.
func (g Graph) AddColumn(tableID string, c Column) Graph {
	i := g.tableIndex(tableID)
	if i < 0 || c.ID == "" || g.tables[i].ColumnIndex(c.ID) >= 0 {
		return g
	}
	next := g.clone()
	c = normalizeColumn(c)
	c.IsFK = false
	next.tables[i].Columns = append(next.tables[i].Columns, c)
	return next
}

// ColumnPatch lists the column fields a caller may change; nil means
// unchanged. isFk is derived from relationships and cannot be patched.
type ColumnPatch struct {
	Name         *string
	LogicalName  *string
	Type         *string
	Length       *string
	IsPK         *bool
	IsNullable   *bool
	IsUnique     *bool
	IsIdentity   *bool
	OriginalType *string
	DefaultValue *string
	ClearDefault bool
}

// UpdateColumn applies the patch. A PK or identity column stays non-nullable
// whatever the patch asks for.
func (g Graph) UpdateColumn(tableID, columnID string, p ColumnPatch) Graph {
	ti := g.tableIndex(tableID)
	if ti < 0 {
		return g
	}
	ci := g.tables[ti].ColumnIndex(columnID)
	if ci < 0 {
		return g
	}
	next := g.clone()
	c := next.tables[ti].Columns[ci]
	oldName := c.Name
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.LogicalName != nil {
		c.LogicalName = *p.LogicalName
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Length != nil {
		c.Length = *p.Length
	}
	if p.IsPK != nil {
		c.IsPK = *p.IsPK
	}
	if p.IsNullable != nil {
		c.IsNullable = *p.IsNullable
	}
	if p.IsUnique != nil {
		c.IsUnique = *p.IsUnique
	}
	if p.IsIdentity != nil {
		c.IsIdentity = *p.IsIdentity
	}
	if p.OriginalType != nil {
		c.OriginalType = *p.OriginalType
	}
	if p.ClearDefault {
		c.DefaultValue = nil
	} else if p.DefaultValue != nil {
		v := *p.DefaultValue
		c.DefaultValue = &v
	}
	next.tables[ti].Columns[ci] = normalizeColumn(c)
	if c.Name != oldName {
		next.renameDefaults(g)
	}
	return next
}

// DeleteColumn removes the column together with every relationship bound to
// it, clearing the isFk flags those relationships implied.
func (g Graph) DeleteColumn(tableID, columnID string) Graph {
	ti := g.tableIndex(tableID)
	if ti < 0 {
		return g
	}
	ci := g.tables[ti].ColumnIndex(columnID)
	if ci < 0 {
		return g
	}
	next := g.clone()
	cols := next.tables[ti].Columns
	next.tables[ti].Columns = append(cols[:ci], cols[ci+1:]...)
	var targets [][2]string
	kept := next.relationships[:0]
	for _, r := range next.relationships {
		bound := (r.FromTable == tableID && r.FromCol == columnID) || (r.ToTable == tableID && r.ToCol == columnID)
		if bound {
			targets = append(targets, [2]string{r.ToTable, r.ToCol})
			continue
		}
		kept = append(kept, r)
	}
	next.relationships = kept
	for _, tc := range targets {
		next.syncFK(tc[0], tc[1])
	}
	return next
}

// MoveColumn moves the column at index from to index to. Out of range
// indexes are ignored.
func (g Graph) MoveColumn(tableID string, from, to int) Graph {
	ti := g.tableIndex(tableID)
	if ti < 0 {
		return g
	}
	n := len(g.tables[ti].Columns)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return g
	}
	next := g.clone()
	cols := next.tables[ti].Columns
	c := cols[from]
	cols = append(cols[:from], cols[from+1:]...)
	cols = append(cols[:to], append([]Column{c}, cols[to:]...)...)
	next.tables[ti].Columns = cols
	return next
}

// AddRelationship links two existing columns and flags the target as a
// foreign key. Missing endpoints, self-links and duplicate pairs are ignored.
func (g Graph) AddRelationship(r Relationship) Graph {
	next, _ := g.addRelationship(r)
	return next
}

func (g Graph) addRelationship(r Relationship) (Graph, bool) {
	if r.ID == "" || g.relationshipIndex(r.ID) >= 0 {
		return g, false
	}
	if !g.endpointsValid(r.FromTable, r.FromCol, r.ToTable, r.ToCol) {
		return g, false
	}
	if g.HasRelationshipBetween(r.FromTable, r.FromCol, r.ToTable, r.ToCol) {
		return g, false
	}
	r = cloneRelationship(r)
	if !r.Type.Valid() {
		r.Type = OneToMany
	}
	if !r.SourceSide.Valid() {
		r.SourceSide = SideAuto
	}
	if !r.TargetSide.Valid() {
		r.TargetSide = SideAuto
	}
	if r.Name == "" {
		r.Name = g.defaultName(r)
	}
	next := g.clone()
	next.relationships = append(next.relationships, r)
	next.syncFK(r.ToTable, r.ToCol)
	return next, true
}

// RelationshipPatch lists the relationship fields a caller may change; nil
// means unchanged. Setting Name without IsManuallyEdited marks the name as
// user-chosen.
type RelationshipPatch struct {
	Name             *string
	Type             *Cardinality
	SourceSide       *Side
	TargetSide       *Side
	ControlPoints    *[]Point
	IsManuallyEdited *bool
}

func (g Graph) UpdateRelationship(id string, p RelationshipPatch) Graph {
	i := g.relationshipIndex(id)
	if i < 0 {
		return g
	}
	next := g.clone()
	r := &next.relationships[i]
	if p.Name != nil {
		r.Name = *p.Name
		if p.IsManuallyEdited == nil {
			r.IsManuallyEdited = true
		}
	}
	if p.IsManuallyEdited != nil {
		r.IsManuallyEdited = *p.IsManuallyEdited
	}
	if p.Type != nil && p.Type.Valid() {
		r.Type = *p.Type
	}
	if p.SourceSide != nil && p.SourceSide.Valid() {
		r.SourceSide = *p.SourceSide
	}
	if p.TargetSide != nil && p.TargetSide.Valid() {
		r.TargetSide = *p.TargetSide
	}
	if p.ControlPoints != nil {
		r.ControlPoints = clonePoints(*p.ControlPoints)
	}
	return next
}

// DeleteRelationship removes the relationship and clears its target's isFk
// flag unless another relationship still targets that column.
func (g Graph) DeleteRelationship(id string) Graph {
	i := g.relationshipIndex(id)
	if i < 0 {
		return g
	}
	next := g.clone()
	r := next.relationships[i]
	next.relationships = append(next.relationships[:i], next.relationships[i+1:]...)
	next.syncFK(r.ToTable, r.ToCol)
	return next
}

// Endpoints names the two columns a relationship binds.
type Endpoints struct {
	FromTable string
	FromCol   string
	ToTable   string
	ToCol     string
}

// RerouteRelationship rebinds a relationship to new endpoints. Manual routing
// is dropped because it described the old path.
func (g Graph) RerouteRelationship(id string, e Endpoints) Graph {
	i := g.relationshipIndex(id)
	if i < 0 || !g.endpointsValid(e.FromTable, e.FromCol, e.ToTable, e.ToCol) {
		return g
	}
	for j, r := range g.relationships {
		if j != i && r.Connects(e.FromTable, e.FromCol, e.ToTable, e.ToCol) {
			return g
		}
	}
	next := g.clone()
	r := &next.relationships[i]
	oldTable, oldCol := r.ToTable, r.ToCol
	r.FromTable, r.FromCol, r.ToTable, r.ToCol = e.FromTable, e.FromCol, e.ToTable, e.ToCol
	r.ControlPoints = nil
	r.SourceSide, r.TargetSide = SideAuto, SideAuto
	next.syncFK(oldTable, oldCol)
	next.syncFK(e.ToTable, e.ToCol)
	return next
}

func (g Graph) endpointsValid(fromTable, fromCol, toTable, toCol string) bool {
	if _, ok := g.Column(fromTable, fromCol); !ok {
		return false
	}
	if _, ok := g.Column(toTable, toCol); !ok {
		return false
	}
	return !(fromTable == toTable && fromCol == toCol)
}

// syncFK recomputes a column's isFk flag from the relationships targeting it.
// The receiver must already be a private clone.
func (g *Graph) syncFK(tableID, columnID string) {
	ti := g.tableIndex(tableID)
	if ti < 0 {
		return
	}
	ci := g.tables[ti].ColumnIndex(columnID)
	if ci < 0 {
		return
	}
	fk := false
	for _, r := range g.relationships {
		if r.ToTable == tableID && r.ToCol == columnID {
			fk = true
			break
		}
	}
	g.tables[ti].Columns[ci].IsFK = fk
}

// renameDefaults regenerates the names of relationships that still carry the
// default name computed against prev, so renamed tables and columns show up
// in them. User-named relationships are left alone.
func (g *Graph) renameDefaults(prev Graph) {
	for i, r := range g.relationships {
		if r.IsManuallyEdited || r.Name != prev.defaultName(r) {
			continue
		}
		g.relationships[i].Name = g.defaultName(r)
	}
}

func (g Graph) defaultName(r Relationship) string {
	from, _ := g.Table(r.FromTable)
	to, _ := g.Table(r.ToTable)
	fromCol, _ := from.Column(r.FromCol)
	toCol, _ := to.Column(r.ToCol)
	return RelationshipName(from.Name, fromCol.Name, to.Name, toCol.Name)
}

func (g Graph) tableIndex(id string) int {
	for i, t := range g.tables {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (g Graph) relationshipIndex(id string) int {
	for i, r := range g.relationships {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (g Graph) clone() Graph {
	return Graph{tables: g.Tables(), relationships: g.Relationships()}
}

func normalizeColumn(c Column) Column {
	if c.IsPK || c.IsIdentity {
		c.IsNullable = false
	}
	return c
}

func cloneTable(t Table) Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		if c.DefaultValue != nil {
			v := *c.DefaultValue
			c.DefaultValue = &v
		}
		cols[i] = c
	}
	t.Columns = cols
	return t
}

func cloneRelationship(r Relationship) Relationship {
	r.ControlPoints = clonePoints(r.ControlPoints)
	return r
}

func clonePoints(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// Ptr returns a pointer to v, for filling patch records.
func Ptr[T any](v T) *T {
	return &v
}
