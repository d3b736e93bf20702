package loader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/erdkit/schema"
)

func sample() schema.Diagram {
	return schema.Diagram{
		Engine:   schema.MySQL,
		ViewMode: schema.LogicalView,
		Tables: []schema.Table{
			{ID: "t1", Name: "users", LogicalName: "User", X: 10, Y: 20.5, Columns: []schema.Column{
				{ID: "c1", Name: "id", Type: "INT", IsPK: true, IsIdentity: true},
				{ID: "c2", Name: "email", Type: "VARCHAR", Length: "255", IsUnique: true, DefaultValue: schema.Ptr("''")},
			}},
			{ID: "t2", Name: "orders", X: 400, Columns: []schema.Column{
				{ID: "c3", Name: "user_id", Type: "INT", IsFK: true, IsNullable: true, OriginalType: "UUID"},
			}},
		},
		Relationships: []schema.Relationship{{
			ID: "r1", Name: "fk_users_id_orders_user_id",
			FromTable: "t1", FromCol: "c1", ToTable: "t2", ToCol: "c3",
			Type: schema.OneToZeroOrMany, SourceSide: schema.SideRight, TargetSide: schema.SideLeft,
			ControlPoints: []schema.Point{{X: 300, Y: 40}, {X: 300, Y: 80}},
		}},
	}
}

func TestSaveLoadPreservesDiagram(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"diagram.yaml", "diagram.yml", "diagram.json", "diagram.msgpack"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveDiagram(path, sample()))

			got, err := LoadDiagram(path)
			require.NoError(t, err)
			if diff := cmp.Diff(sample(), got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("diagram changed on disk (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeHandWrittenYAML(t *testing.T) {
	t.Parallel()

	src := `
engine: postgres
tables:
  - id: t1
    name: users
    x: 0
    y: 0
    columns:
      - id: c1
        name: id
        type: SERIAL
        isPk: true
relationships: []
`
	d, err := Decode([]byte(src), YAML)
	require.NoError(t, err)
	require.Len(t, d.Tables, 1)
	assert.Equal(t, "SERIAL", d.Tables[0].Columns[0].Type)
	assert.True(t, d.Tables[0].Columns[0].IsPK)
	assert.Equal(t, schema.Postgres, d.Engine)
}

func TestUnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := LoadDiagram("diagram.toml")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	err = SaveDiagram(filepath.Join(t.TempDir(), "diagram"), sample())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadDiagram(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading diagram file")
}
