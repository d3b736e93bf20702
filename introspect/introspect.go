package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
)

type ExistingTable struct {
	TableName   string
	Columns     []ExistingColumn
	ForeignKeys []ExistingForeignKey
}

type ExistingColumn struct {
	ColumnName    string
	DataType      string
	MaxLength     *int32
	IsNullable    bool
	ColumnDefault *string
	IsPrimaryKey  bool
	IsUnique      bool
	IsIdentity    bool
}

type ExistingForeignKey struct {
	ConstraintName   string
	ColumnName       string
	ReferencesTable  string
	ReferencesColumn string
}

// Querier is satisfied by *pgxpool.Pool and *pgx.Conn.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func IntrospectDatabase(ctx context.Context, db Querier) ([]ExistingTable, error) {
	tablesQuery := `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type='BASE TABLE'
	ORDER BY table_name;
	`

	rows, err := db.Query(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tableNames = append(tableNames, tableName)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating table rows: %w", rows.Err())
	}

	var tables []ExistingTable
	for _, tableName := range tableNames {
		columns, err := getColumns(ctx, db, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting columns for table %s: %w", tableName, err)
		}

		foreignKeys, err := getForeignKeys(ctx, db, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting foreign keys for table %s: %w", tableName, err)
		}

		tables = append(tables, ExistingTable{
			TableName:   tableName,
			Columns:     columns,
			ForeignKeys: foreignKeys,
		})
	}

	return tables, nil
}

func getColumns(ctx context.Context, db Querier, tableName string) ([]ExistingColumn, error) {
	columnsQuery := `
	SELECT
		c.column_name,
		CASE WHEN c.data_type IN ('USER-DEFINED', 'ARRAY') THEN c.udt_name ELSE c.data_type END,
		c.character_maximum_length,
		(c.is_nullable = 'YES') as is_nullable,
		c.column_default,
		(c.is_identity = 'YES') as is_identity,
		(CASE WHEN tc.constraint_type = 'PRIMARY KEY' THEN true ELSE false END) as is_primary,
		(CASE WHEN tc.constraint_type = 'UNIQUE' THEN true ELSE false END) as is_unique
	FROM information_schema.columns c
	LEFT JOIN information_schema.key_column_usage kcu
		ON c.table_name = kcu.table_name AND c.column_name = kcu.column_name
	LEFT JOIN information_schema.table_constraints tc
		ON kcu.constraint_name = tc.constraint_name AND kcu.table_name = tc.table_name
	WHERE c.table_schema = 'public' AND c.table_name = $1
	ORDER BY c.ordinal_position;
	`

	rows, err := db.Query(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	// A column in several constraints comes back once per constraint.
	var columns []ExistingColumn
	seen := make(map[string]int)
	for rows.Next() {
		var col ExistingColumn
		if err := rows.Scan(
			&col.ColumnName,
			&col.DataType,
			&col.MaxLength,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.IsIdentity,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		if i, ok := seen[col.ColumnName]; ok {
			columns[i].IsPrimaryKey = columns[i].IsPrimaryKey || col.IsPrimaryKey
			columns[i].IsUnique = columns[i].IsUnique || col.IsUnique
			continue
		}
		seen[col.ColumnName] = len(columns)
		columns = append(columns, col)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %w", rows.Err())
	}

	return columns, nil
}

func getForeignKeys(ctx context.Context, db Querier, tableName string) ([]ExistingForeignKey, error) {
	foreignKeysQuery := `
	SELECT
		tc.constraint_name,
		kcu.column_name,
		ccu.table_name AS foreign_table_name,
		ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1;
	`

	rows, err := db.Query(ctx, foreignKeysQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(
			&fk.ConstraintName,
			&fk.ColumnName,
			&fk.ReferencesTable,
			&fk.ReferencesColumn,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %w", rows.Err())
	}

	return foreignKeys, nil
}

// Layout controls where introspected tables land on the canvas.
type Layout struct {
	PerRow  int
	Gap     float64
	Metrics router.Metrics
}

func DefaultLayout() Layout {
	return Layout{PerRow: 4, Gap: 100, Metrics: router.DefaultMetrics()}
}

// ToDiagram turns introspected tables into a diagram laid out on a grid.
// Table ids are table names and column ids are "table.column", so running
// it twice against the same database yields the same file.
func ToDiagram(tables []ExistingTable, layout Layout) schema.Diagram {
	if layout.PerRow <= 0 {
		layout.PerRow = 1
	}
	d := schema.Diagram{Engine: schema.Postgres, ViewMode: schema.PhysicalView}

	var y, rowHeight float64
	for i, et := range tables {
		if i > 0 && i%layout.PerRow == 0 {
			y += rowHeight + layout.Gap
			rowHeight = 0
		}
		t := schema.Table{
			ID:   et.TableName,
			Name: et.TableName,
			X:    float64(i%layout.PerRow) * (layout.Metrics.TableWidth + layout.Gap),
			Y:    y,
		}
		for _, ec := range et.Columns {
			t.Columns = append(t.Columns, toColumn(et.TableName, ec))
		}
		rowHeight = max(rowHeight, layout.Metrics.Bounds(t).Height())
		d.Tables = append(d.Tables, t)
	}

	g := schema.NewGraph(d.Tables, nil)
	for _, et := range tables {
		for _, fk := range et.ForeignKeys {
			child, ok := g.Column(et.TableName, columnID(et.TableName, fk.ColumnName))
			if !ok {
				continue
			}
			typ := schema.OneToMany
			if child.IsNullable {
				typ = schema.OneToZeroOrMany
			}
			def := schema.RelationshipName(fk.ReferencesTable, fk.ReferencesColumn, et.TableName, fk.ColumnName)
			g = g.AddRelationship(schema.Relationship{
				ID:               et.TableName + "." + fk.ConstraintName,
				Name:             fk.ConstraintName,
				FromTable:        fk.ReferencesTable,
				FromCol:          columnID(fk.ReferencesTable, fk.ReferencesColumn),
				ToTable:          et.TableName,
				ToCol:            child.ID,
				Type:             typ,
				IsManuallyEdited: fk.ConstraintName != def,
			})
		}
	}
	return d.WithGraph(g)
}

func columnID(table, column string) string {
	return table + "." + column
}

func toColumn(table string, ec ExistingColumn) schema.Column {
	c := schema.Column{
		ID:         columnID(table, ec.ColumnName),
		Name:       ec.ColumnName,
		Type:       strings.ToUpper(ec.DataType),
		IsPK:       ec.IsPrimaryKey,
		IsNullable: ec.IsNullable,
		IsUnique:   ec.IsUnique && !ec.IsPrimaryKey,
		IsIdentity: ec.IsIdentity,
	}
	if ec.MaxLength != nil {
		c.Length = strconv.Itoa(int(*ec.MaxLength))
	}
	if ec.ColumnDefault != nil {
		if strings.HasPrefix(*ec.ColumnDefault, "nextval(") {
			c.IsIdentity = true
		} else {
			v := *ec.ColumnDefault
			c.DefaultValue = &v
		}
	}
	return c
}
