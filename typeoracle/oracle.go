// Package typeoracle answers column type questions for a target engine:
// whether two types can be linked by a foreign key, which type a new foreign
// key column takes, and whether a type name is known at all.
package typeoracle

import (
	"strings"

	"github.com/ridoystarlord/erdkit/schema"
)

// Oracle is the contract the connection engine consumes.
type Oracle interface {
	AreCompatible(typeA, typeB string, engine schema.Engine) bool
	CanonicalType(typeName string, engine schema.Engine) string
	IsValid(typeName string, engine schema.Engine) bool
}

// Family groups type names that hold the same kind of value.
type Family string

const (
	Unknown   Family = ""
	Integer   Family = "integer"
	BigInt    Family = "bigint"
	SmallInt  Family = "smallint"
	Decimal   Family = "decimal"
	Float     Family = "float"
	Character Family = "character"
	Text      Family = "text"
	Boolean   Family = "boolean"
	Date      Family = "date"
	Time      Family = "time"
	Timestamp Family = "timestamp"
	UUID      Family = "uuid"
	JSON      Family = "json"
	Binary    Family = "binary"
)

var families = map[string]Family{
	// integers
	"int": Integer, "integer": Integer, "int4": Integer, "mediumint": Integer,
	"serial": Integer, "serial4": Integer,
	"bigint": BigInt, "int8": BigInt, "bigserial": BigInt, "serial8": BigInt,
	"smallint": SmallInt, "int2": SmallInt, "tinyint": SmallInt, "smallserial": SmallInt, "serial2": SmallInt,

	// exact and approximate numerics
	"decimal": Decimal, "numeric": Decimal, "money": Decimal,
	"real": Float, "float": Float, "float4": Float, "float8": Float, "double": Float,
	"double precision": Float,

	// strings
	"char": Character, "character": Character, "nchar": Character,
	"varchar": Character, "character varying": Character, "nvarchar": Character, "varchar2": Character,
	"text": Text, "ntext": Text, "mediumtext": Text, "longtext": Text, "tinytext": Text, "clob": Text,
	"citext": Text,

	"boolean": Boolean, "bool": Boolean, "bit": Boolean,

	"date":                Date,
	"time":                Time,
	"timetz":              Time,
	"time with time zone": Time,
	"timestamp":           Timestamp, "timestamptz": Timestamp, "datetime": Timestamp, "datetime2": Timestamp,
	"timestamp with time zone": Timestamp, "timestamp without time zone": Timestamp,

	"uuid": UUID, "uniqueidentifier": UUID,
	"json": JSON, "jsonb": JSON,
	"bytea": Binary, "blob": Binary, "binary": Binary, "varbinary": Binary, "longblob": Binary,
}

// serials are auto-incrementing types; a column referencing one stores the
// plain integer.
var serials = map[string]bool{
	"serial": true, "serial2": true, "serial4": true, "serial8": true,
	"bigserial": true, "smallserial": true,
}

// canonical names each family per engine.
var canonical = map[schema.Engine]map[Family]string{
	schema.Postgres: {
		Integer: "INTEGER", BigInt: "BIGINT", SmallInt: "SMALLINT", Decimal: "NUMERIC", Float: "DOUBLE PRECISION",
		Character: "VARCHAR", Text: "TEXT", Boolean: "BOOLEAN", Date: "DATE", Time: "TIME",
		Timestamp: "TIMESTAMP", UUID: "UUID", JSON: "JSONB", Binary: "BYTEA",
	},
	schema.MySQL: {
		Integer: "INT", BigInt: "BIGINT", SmallInt: "SMALLINT", Decimal: "DECIMAL", Float: "DOUBLE",
		Character: "VARCHAR", Text: "TEXT", Boolean: "TINYINT", Date: "DATE", Time: "TIME",
		Timestamp: "DATETIME", UUID: "CHAR", JSON: "JSON", Binary: "BLOB",
	},
	schema.SQLite: {
		Integer: "INTEGER", BigInt: "INTEGER", SmallInt: "INTEGER", Decimal: "NUMERIC", Float: "REAL",
		Character: "TEXT", Text: "TEXT", Boolean: "INTEGER", Date: "TEXT", Time: "TEXT",
		Timestamp: "TEXT", UUID: "TEXT", JSON: "TEXT", Binary: "BLOB",
	},
	schema.SQLServer: {
		Integer: "INT", BigInt: "BIGINT", SmallInt: "SMALLINT", Decimal: "DECIMAL", Float: "FLOAT",
		Character: "NVARCHAR", Text: "NVARCHAR", Boolean: "BIT", Date: "DATE", Time: "TIME",
		Timestamp: "DATETIME2", UUID: "UNIQUEIDENTIFIER", JSON: "NVARCHAR", Binary: "VARBINARY",
	},
}

// Default is the built-in table-driven oracle.
type Default struct{}

var _ Oracle = Default{}

// FamilyOf classifies a type name, ignoring case, size parameters and array
// suffixes.
func FamilyOf(typeName string) Family {
	return families[normalize(typeName)]
}

func normalize(typeName string) string {
	t := strings.ToLower(strings.TrimSpace(typeName))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSuffix(t, "[]")
	t = strings.TrimSuffix(t, " unsigned")
	return strings.Join(strings.Fields(t), " ")
}

// AreCompatible reports whether both types fall in the same family. Integer
// widths are interchangeable so an INTEGER key may feed a BIGINT column, and
// CHAR/VARCHAR may feed TEXT.
func (Default) AreCompatible(typeA, typeB string, engine schema.Engine) bool {
	a, b := FamilyOf(typeA), FamilyOf(typeB)
	if a == Unknown || b == Unknown {
		return strings.EqualFold(normalize(typeA), normalize(typeB)) && normalize(typeA) != ""
	}
	if a == b {
		return true
	}
	return group(a) != "" && group(a) == group(b)
}

func group(f Family) string {
	switch f {
	case Integer, BigInt, SmallInt:
		return "integer"
	case Character, Text:
		return "string"
	}
	return ""
}

// native lists the spellings each engine understands as-is.
var native = map[schema.Engine]map[string]bool{
	schema.Postgres: set("integer", "int4", "int2", "int8", "bigint", "smallint", "numeric", "decimal", "money",
		"real", "float4", "float8", "double precision", "char", "character", "varchar", "character varying",
		"text", "citext", "boolean", "bool", "date", "time", "timetz", "timestamp", "timestamptz",
		"uuid", "json", "jsonb", "bytea"),
	schema.MySQL: set("int", "integer", "bigint", "smallint", "tinyint", "mediumint", "decimal", "numeric",
		"float", "double", "real", "char", "varchar", "text", "tinytext", "mediumtext", "longtext",
		"boolean", "bool", "bit", "date", "time", "datetime", "timestamp", "json", "blob", "longblob",
		"binary", "varbinary"),
	schema.SQLite: set("integer", "real", "text", "blob", "numeric"),
	schema.SQLServer: set("int", "bigint", "smallint", "tinyint", "decimal", "numeric", "money", "float",
		"real", "char", "nchar", "varchar", "nvarchar", "text", "ntext", "bit", "date", "time", "datetime",
		"datetime2", "uniqueidentifier", "binary", "varbinary"),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// CanonicalType names the type a referencing column takes under the engine.
// Native spellings are kept, serial types collapse to their plain integer
// width, foreign spellings are renamed and unknown types come back
// upper-cased.
func (Default) CanonicalType(typeName string, engine schema.Engine) string {
	n := normalize(typeName)
	f := FamilyOf(typeName)
	names, ok := canonical[engine]
	if f == Unknown || !ok {
		return strings.ToUpper(n)
	}
	if native[engine][n] && !serials[n] {
		return strings.ToUpper(n)
	}
	return names[f]
}

// IsValid reports whether the type belongs to a known family.
func (Default) IsValid(typeName string, engine schema.Engine) bool {
	if _, ok := canonical[engine]; !ok && engine != "" {
		return false
	}
	return FamilyOf(typeName) != Unknown
}
