package typeoracle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridoystarlord/erdkit/schema"
)

func TestAreCompatible(t *testing.T) {
	t.Parallel()

	o := Default{}
	tests := []struct {
		a, b string
		want bool
	}{
		{"INTEGER", "integer", true},
		{"SERIAL", "INTEGER", true},
		{"int4", "BIGINT", true},
		{"VARCHAR(255)", "TEXT", true},
		{"character varying", "VARCHAR", true},
		{"UUID", "VARCHAR", false},
		{"INTEGER", "TEXT", false},
		{"TIMESTAMP", "timestamptz", true},
		{"geometry", "GEOMETRY", true},
		{"geometry", "point", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, o.AreCompatible(tt.a, tt.b, schema.Postgres), "%s vs %s", tt.a, tt.b)
	}
}

func TestCanonicalType(t *testing.T) {
	t.Parallel()

	o := Default{}
	tests := []struct {
		typ    string
		engine schema.Engine
		want   string
	}{
		{"SERIAL", schema.Postgres, "INTEGER"},
		{"bigserial", schema.Postgres, "BIGINT"},
		{"varchar", schema.Postgres, "VARCHAR"},
		{"VARCHAR(80)", schema.Postgres, "VARCHAR"},
		{"timestamptz", schema.Postgres, "TIMESTAMPTZ"},
		{"UUID", schema.MySQL, "CHAR"},
		{"jsonb", schema.MySQL, "JSON"},
		{"INT", schema.Postgres, "INTEGER"},
		{"UUID", schema.SQLite, "TEXT"},
		{"BOOLEAN", schema.SQLServer, "BIT"},
		{"geometry", schema.Postgres, "GEOMETRY"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, o.CanonicalType(tt.typ, tt.engine), "%s on %s", tt.typ, tt.engine)
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	o := Default{}
	assert.True(t, o.IsValid("integer[]", schema.Postgres))
	assert.True(t, o.IsValid("int(11) unsigned", schema.MySQL))
	assert.False(t, o.IsValid("widget", schema.Postgres))
	assert.False(t, o.IsValid("INTEGER", schema.Engine("oracle")))
}
