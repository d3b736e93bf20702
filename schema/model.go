package schema

import "strings"

// Engine names the SQL dialect a diagram targets.
type Engine string

const (
	Postgres  Engine = "postgres"
	MySQL     Engine = "mysql"
	SQLite    Engine = "sqlite"
	SQLServer Engine = "sqlserver"
)

// Engines lists every supported SQL engine.
var Engines = []Engine{Postgres, MySQL, SQLite, SQLServer}

func (e Engine) Valid() bool {
	for _, v := range Engines {
		if e == v {
			return true
		}
	}
	return false
}

// ViewMode selects which table/column names a renderer shows.
type ViewMode string

const (
	PhysicalView ViewMode = "physical"
	LogicalView  ViewMode = "logical"
)

type Column struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	LogicalName  string  `yaml:"logicalName,omitempty" json:"logicalName,omitempty"`
	Type         string  `yaml:"type" json:"type"`
	Length       string  `yaml:"length,omitempty" json:"length,omitempty"`
	IsPK         bool    `yaml:"isPk,omitempty" json:"isPk,omitempty"`
	IsFK         bool    `yaml:"isFk,omitempty" json:"isFk,omitempty"`
	IsNullable   bool    `yaml:"isNullable,omitempty" json:"isNullable,omitempty"`
	IsUnique     bool    `yaml:"isUnique,omitempty" json:"isUnique,omitempty"`
	IsIdentity   bool    `yaml:"isIdentity,omitempty" json:"isIdentity,omitempty"`
	OriginalType string  `yaml:"originalType,omitempty" json:"originalType,omitempty"` // semantic type hidden by a lossy dialect conversion
	DefaultValue *string `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
}

type Table struct {
	ID                 string   `yaml:"id" json:"id"`
	Name               string   `yaml:"name" json:"name"`
	LogicalName        string   `yaml:"logicalName,omitempty" json:"logicalName,omitempty"`
	X                  float64  `yaml:"x" json:"x"`
	Y                  float64  `yaml:"y" json:"y"`
	Columns            []Column `yaml:"columns" json:"columns"`
	IsManuallyEditable bool     `yaml:"isManuallyEditable,omitempty" json:"isManuallyEditable,omitempty"`
}

// ColumnIndex returns the position of the column in the table, or -1.
func (t Table) ColumnIndex(columnID string) int {
	for i, c := range t.Columns {
		if c.ID == columnID {
			return i
		}
	}
	return -1
}

// Column returns the column with the given id.
func (t Table) Column(columnID string) (Column, bool) {
	if i := t.ColumnIndex(columnID); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// Cardinality is the relationship type vocabulary shown on the diagram.
type Cardinality string

const (
	OneToOne        Cardinality = "1:1"
	OneToMany       Cardinality = "1:N"
	ManyToOne       Cardinality = "N:1"
	ManyToMany      Cardinality = "N:M"
	OneToZeroOrMany Cardinality = "1:0..N"
	OneToZeroOrOne  Cardinality = "1:0..1"
)

// Cardinalities lists every valid relationship type.
var Cardinalities = []Cardinality{OneToOne, OneToMany, ManyToOne, ManyToMany, OneToZeroOrMany, OneToZeroOrOne}

func (c Cardinality) Valid() bool {
	for _, v := range Cardinalities {
		if c == v {
			return true
		}
	}
	return false
}

// Optional reports whether the many side may be absent (the 0..1 and 0..N forms).
func (c Cardinality) Optional() bool {
	return strings.Contains(string(c), "0..")
}

// Side is an edge of a table's bounding box.
type Side string

const (
	SideAuto   Side = ""
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

func (s Side) Valid() bool {
	switch s {
	case SideAuto, SideTop, SideBottom, SideLeft, SideRight:
		return true
	}
	return false
}

// Horizontal reports whether a path leaves the side along the x axis.
func (s Side) Horizontal() bool {
	return s == SideLeft || s == SideRight
}

// Point is a position in diagram space.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

type Relationship struct {
	ID        string      `yaml:"id" json:"id"`
	Name      string      `yaml:"name" json:"name"`
	FromTable string      `yaml:"fromTable" json:"fromTable"`
	FromCol   string      `yaml:"fromCol" json:"fromCol"`
	ToTable   string      `yaml:"toTable" json:"toTable"`
	ToCol     string      `yaml:"toCol" json:"toCol"`
	Type      Cardinality `yaml:"type" json:"type"`

	SourceSide    Side    `yaml:"sourceSide,omitempty" json:"sourceSide,omitempty"`
	TargetSide    Side    `yaml:"targetSide,omitempty" json:"targetSide,omitempty"`
	ControlPoints []Point `yaml:"controlPoints,omitempty" json:"controlPoints,omitempty"`

	// IsManuallyEdited marks a user-chosen name; automatic renames skip it.
	IsManuallyEdited bool `yaml:"isManuallyEdited,omitempty" json:"isManuallyEdited,omitempty"`
}

// Manual reports whether the relationship carries user waypoints.
func (r Relationship) Manual() bool {
	return len(r.ControlPoints) > 0
}

// SelfReferencing reports whether both endpoints live in the same table.
func (r Relationship) SelfReferencing() bool {
	return r.FromTable == r.ToTable
}

// Connects reports whether the relationship binds the two columns, in either direction.
func (r Relationship) Connects(tableA, colA, tableB, colB string) bool {
	if r.FromTable == tableA && r.FromCol == colA && r.ToTable == tableB && r.ToCol == colB {
		return true
	}
	return r.FromTable == tableB && r.FromCol == colB && r.ToTable == tableA && r.ToCol == colA
}

// Diagram is the persisted shape of a whole design.
type Diagram struct {
	Tables        []Table        `yaml:"tables" json:"tables"`
	Relationships []Relationship `yaml:"relationships" json:"relationships"`
	Engine        Engine         `yaml:"engine" json:"engine"`
	ViewMode      ViewMode       `yaml:"viewMode" json:"viewMode"`
}

// Graph returns the diagram's tables and relationships as a normalized snapshot.
func (d Diagram) Graph() Graph {
	return NewGraph(d.Tables, d.Relationships)
}

// WithGraph returns a copy of the diagram holding g's collections.
func (d Diagram) WithGraph(g Graph) Diagram {
	d.Tables = g.Tables()
	d.Relationships = g.Relationships()
	return d
}

// RelationshipName builds the default name of a foreign key relationship.
func RelationshipName(fromTable, fromCol, toTable, toCol string) string {
	return strings.ToLower("fk_" + fromTable + "_" + fromCol + "_" + toTable + "_" + toCol)
}
