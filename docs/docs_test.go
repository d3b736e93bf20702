package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
)

func shop() schema.Diagram {
	return schema.Diagram{
		Engine: schema.Postgres,
		Tables: []schema.Table{
			{ID: "t1", Name: "users", LogicalName: "Customer", Columns: []schema.Column{
				{ID: "c1", Name: "id", Type: "integer", IsPK: true},
				{ID: "c2", Name: "email", LogicalName: "Email Address", Type: "varchar", Length: "255", IsUnique: true},
			}},
			{ID: "t2", Name: "orders", X: 400, Columns: []schema.Column{
				{ID: "c3", Name: "id", Type: "integer", IsPK: true},
				{ID: "c4", Name: "user_id", Type: "integer", IsNullable: true, DefaultValue: schema.Ptr("0")},
			}},
		},
		Relationships: []schema.Relationship{
			{ID: "r1", Name: "fk_users_id_orders_user_id", FromTable: "t1", FromCol: "c1", ToTable: "t2", ToCol: "c4", Type: schema.OneToZeroOrMany},
		},
	}
}

func TestMermaid(t *testing.T) {
	t.Parallel()

	out := MermaidContent(shop())
	assert.Contains(t, out, "```mermaid\nerDiagram\n")
	assert.Contains(t, out, "    users {\n        INTEGER id PK\n")
	assert.Contains(t, out, "        VARCHAR(255) email UK\n")
	assert.Contains(t, out, "        INTEGER user_id FK \"default 0\"\n")
	assert.Contains(t, out, "    users ||--o{ orders : fk_users_id_orders_user_id\n")
}

func TestMermaidLogicalView(t *testing.T) {
	t.Parallel()

	d := shop()
	d.ViewMode = schema.LogicalView
	out := MermaidContent(d)
	assert.Contains(t, out, "    Customer {\n")
	assert.Contains(t, out, "Email_Address UK")
	assert.Contains(t, out, "    Customer ||--o{ orders")
}

func TestPlantUML(t *testing.T) {
	t.Parallel()

	out := PlantUMLContent(shop())
	assert.True(t, strings.HasPrefix(out, "@startuml\n"))
	assert.Contains(t, out, "entity \"users\" as users {\n  id : INTEGER <<PK>> <<NN>>\n")
	assert.Contains(t, out, "  user_id : INTEGER <<FK>> <<DEFAULT: 0>>\n")
	assert.Contains(t, out, "users ||--o{ orders : \"fk_users_id_orders_user_id\"\n")
	assert.True(t, strings.HasSuffix(out, "@enduml\n"))
}

func TestGraphviz(t *testing.T) {
	t.Parallel()

	out := GraphvizContent(shop())
	assert.Contains(t, out, "  t1 [label=\"users|<c1> id: INTEGER (PK) (NN)\\l|<c2> email: VARCHAR(255) (NN)\\l\"];\n")
	assert.Contains(t, out, "  t1:c1 -> t2:c4 [label=\"1:0..N\"];\n")
}

func TestSVGUsesRoutedPaths(t *testing.T) {
	t.Parallel()

	r := router.New(router.DefaultMetrics())
	opts := SVGOptions{Style: router.Orthogonal, Mode: router.ColumnLevel}
	d := shop()
	out := SVGContent(d, r, opts)

	g := d.Graph()
	rel, _ := g.Relationship("r1")
	want := r.RenderPath(rel, g.Tables(), opts.Style, opts.Mode)
	require.NotEmpty(t, want)
	assert.Contains(t, out, `d="`+want+`"`)
	assert.Contains(t, out, `<g class="table" id="t1">`)
	assert.Contains(t, out, ">PK id<")
	assert.Contains(t, out, ">1:0..N<")
	assert.Equal(t, 1, strings.Count(out, "<svg "))
}

func TestRender(t *testing.T) {
	t.Parallel()

	r := router.New(router.DefaultMetrics())
	for _, f := range Formats {
		out, err := Render(f, shop(), r, SVGOptions{Style: router.Curved, Mode: router.TableLevel})
		require.NoError(t, err, f)
		assert.NotEmpty(t, out)
		assert.NotEmpty(t, f.DefaultFilename())
	}
	_, err := Render("pdf", shop(), r, SVGOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
