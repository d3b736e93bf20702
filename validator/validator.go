package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/cases"

	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/typeoracle"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Type         string `json:"type"`
	Table        string `json:"table,omitempty"`
	Column       string `json:"column,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Message      string `json:"message"`
	Severity     string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}
}

func (r *ValidationResult) errorf(e ValidationError, format string, args ...any) {
	e.Message = fmt.Sprintf(format, args...)
	e.Severity = "error"
	r.Errors = append(r.Errors, e)
}

func (r *ValidationResult) warnf(e ValidationError, format string, args ...any) {
	e.Message = fmt.Sprintf(format, args...)
	e.Severity = "warning"
	r.Warnings = append(r.Warnings, e)
}

func (r *ValidationResult) infof(e ValidationError, format string, args ...any) {
	e.Message = fmt.Sprintf(format, args...)
	e.Severity = "info"
	r.Info = append(r.Info, e)
}

// Querier is the part of a pgx pool the database check needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DiagramValidator checks a diagram file before it is loaded into a store.
// Loading repairs what it can silently, so this is where the user hears
// about dangling references and drifted flags.
type DiagramValidator struct {
	oracle typeoracle.Oracle
	engine schema.Engine
}

// NewDiagramValidator creates a validator that checks types with oracle.
func NewDiagramValidator(oracle typeoracle.Oracle, engine schema.Engine) *DiagramValidator {
	return &DiagramValidator{oracle: oracle, engine: engine}
}

// ValidateDiagram validates tables, columns and relationships of d.
func (v *DiagramValidator) ValidateDiagram(d schema.Diagram) *ValidationResult {
	result := newResult()

	tableIDs := make(map[string]schema.Table)
	tableNames := make(map[string]bool)
	fold := cases.Fold()
	for _, t := range d.Tables {
		if _, dup := tableIDs[t.ID]; dup || t.ID == "" {
			result.errorf(ValidationError{Type: "duplicate_id", Table: t.Name},
				"Table '%s' has a missing or duplicate id '%s'", t.Name, t.ID)
			continue
		}
		tableIDs[t.ID] = t

		key := fold.String(t.Name)
		if tableNames[key] {
			result.warnf(ValidationError{Type: "duplicate_table", Table: t.Name},
				"Duplicate table name '%s'", t.Name)
		}
		tableNames[key] = true

		v.validateTable(t, result)
	}

	v.validateRelationships(d.Relationships, tableIDs, result)
	v.validateFKFlags(d, tableIDs, result)

	// Update overall validity
	result.Valid = len(result.Errors) == 0
	return result
}

// validateTable validates a table's name and columns
func (v *DiagramValidator) validateTable(t schema.Table, result *ValidationResult) {
	if err := validateTableName(t.Name); err != nil {
		result.warnf(ValidationError{Type: "table_name", Table: t.Name}, "%v", err)
	}

	if len(t.Columns) == 0 {
		result.warnf(ValidationError{Type: "no_columns", Table: t.Name},
			"Table '%s' has no columns", t.Name)
		return
	}

	fold := cases.Fold()
	columnIDs := make(map[string]bool)
	columnNames := make(map[string]bool)
	hasPrimaryKey := false

	for _, column := range t.Columns {
		at := ValidationError{Table: t.Name, Column: column.Name}

		if columnIDs[column.ID] || column.ID == "" {
			at.Type = "duplicate_id"
			result.errorf(at, "Column '%s' in table '%s' has a missing or duplicate id '%s'", column.Name, t.Name, column.ID)
			continue
		}
		columnIDs[column.ID] = true

		// Check for duplicate column names
		key := fold.String(column.Name)
		if columnNames[key] {
			at.Type = "duplicate_column"
			result.warnf(at, "Duplicate column name '%s' in table '%s'", column.Name, t.Name)
		}
		columnNames[key] = true

		if err := validateColumnName(column.Name); err != nil {
			at.Type = "column_name"
			result.warnf(at, "%v", err)
		}

		if !v.oracle.IsValid(column.Type, v.engine) {
			at.Type = "data_type"
			result.warnf(at, "Unsupported data type '%s' for %s", column.Type, v.engine)
		}

		if (column.IsPK || column.IsIdentity) && column.IsNullable {
			at.Type = "nullable_primary_key"
			result.errorf(at, "Column '%s' in table '%s' is a key or identity column and cannot be nullable", column.Name, t.Name)
		}

		if column.IsPK {
			hasPrimaryKey = true
		}

		if column.DefaultValue != nil {
			if err := validateDefaultValue(column.Type, *column.DefaultValue); err != nil {
				at.Type = "default_value"
				result.warnf(at, "%v", err)
			}
		}
	}

	// Check for primary key
	if !hasPrimaryKey {
		result.warnf(ValidationError{Type: "no_primary_key", Table: t.Name},
			"Table '%s' has no primary key defined", t.Name)
	}
}

// validateRelationships checks that every relationship binds two existing,
// distinct columns and appears once.
func (v *DiagramValidator) validateRelationships(rels []schema.Relationship, tables map[string]schema.Table, result *ValidationResult) {
	seen := make(map[string]bool)
	var kept []schema.Relationship
	for _, r := range rels {
		at := ValidationError{Relationship: r.Name}

		if seen[r.ID] || r.ID == "" {
			at.Type = "duplicate_id"
			result.errorf(at, "Relationship '%s' has a missing or duplicate id '%s'", r.Name, r.ID)
			continue
		}
		seen[r.ID] = true

		from, fromOK := column(tables, r.FromTable, r.FromCol)
		target, toOK := column(tables, r.ToTable, r.ToCol)
		if !fromOK || !toOK {
			at.Type = "dangling_relationship"
			result.errorf(at, "Relationship '%s' references a table or column that does not exist", r.Name)
			continue
		}
		if r.FromTable == r.ToTable && r.FromCol == r.ToCol {
			at.Type = "self_relationship"
			result.errorf(at, "Relationship '%s' connects column '%s' to itself", r.Name, from.Name)
			continue
		}
		if dup := duplicateOf(kept, r); dup != nil {
			at.Type = "duplicate_relationship"
			result.errorf(at, "Relationship '%s' duplicates '%s'", r.Name, dup.Name)
			continue
		}
		kept = append(kept, r)

		if r.Type != "" && !r.Type.Valid() {
			at.Type = "cardinality"
			result.errorf(at, "Relationship '%s' has unknown type '%s'", r.Name, r.Type)
			continue
		}

		if r.Type != schema.ManyToMany && r.Type != "" && !target.IsPK && !target.IsIdentity &&
			target.IsNullable != r.Type.Optional() {
			at.Type = "nullability_mismatch"
			at.Table = tables[r.ToTable].Name
			at.Column = target.Name
			result.warnf(at, "Column '%s' nullability does not match relationship type '%s'", target.Name, r.Type)
		}

		if r.Manual() {
			at.Type = "manual_routing"
			result.infof(at, "Relationship '%s' uses %d manual waypoint(s)", r.Name, len(r.ControlPoints))
		}
	}
}

// validateFKFlags reports columns whose isFk flag disagrees with the
// relationships that target them.
func (v *DiagramValidator) validateFKFlags(d schema.Diagram, tables map[string]schema.Table, result *ValidationResult) {
	targeted := make(map[[2]string]bool)
	for _, r := range d.Relationships {
		targeted[[2]string{r.ToTable, r.ToCol}] = true
	}
	for _, t := range d.Tables {
		if _, ok := tables[t.ID]; !ok {
			continue
		}
		for _, c := range t.Columns {
			if c.IsFK == targeted[[2]string{t.ID, c.ID}] {
				continue
			}
			result.errorf(ValidationError{Type: "fk_flag_drift", Table: t.Name, Column: c.Name},
				"Column '%s' in table '%s' has isFk=%t but is targeted by %s", c.Name, t.Name, c.IsFK, plural(targeted[[2]string{t.ID, c.ID}]))
		}
	}
}

func duplicateOf(kept []schema.Relationship, r schema.Relationship) *schema.Relationship {
	for i := range kept {
		if kept[i].Connects(r.FromTable, r.FromCol, r.ToTable, r.ToCol) {
			return &kept[i]
		}
	}
	return nil
}

func plural(targeted bool) string {
	if targeted {
		return "a relationship"
	}
	return "no relationship"
}

func column(tables map[string]schema.Table, tableID, columnID string) (schema.Column, bool) {
	t, ok := tables[tableID]
	if !ok {
		return schema.Column{}, false
	}
	return t.Column(columnID)
}

// CheckDatabase adds an info entry for every diagram table that already
// exists in the connected database.
func (v *DiagramValidator) CheckDatabase(ctx context.Context, db Querier, d schema.Diagram, result *ValidationResult) error {
	dbTables, err := getDatabaseTables(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get database tables: %w", err)
	}
	for _, t := range d.Tables {
		if dbTables[t.Name] {
			result.infof(ValidationError{Type: "table_exists", Table: t.Name},
				"Table '%s' already exists in database", t.Name)
		}
	}
	return nil
}

// validateTableName validates table name format
func validateTableName(tableName string) error {
	if tableName == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	if len(tableName) > 63 {
		return fmt.Errorf("table name '%s' is too long (max 63 characters)", tableName)
	}

	// Check for valid characters (PostgreSQL identifier rules)
	for _, char := range tableName {
		if !validIdentifierRune(char) {
			return fmt.Errorf("table name '%s' contains invalid character '%c'", tableName, char)
		}
	}

	// Check for reserved keywords
	reservedKeywords := []string{"user", "order", "group", "table", "index", "view", "schema"}
	for _, keyword := range reservedKeywords {
		if strings.ToLower(tableName) == keyword {
			return fmt.Errorf("table name '%s' is a reserved keyword", tableName)
		}
	}

	return nil
}

// validateColumnName validates column name format
func validateColumnName(columnName string) error {
	if columnName == "" {
		return fmt.Errorf("column name cannot be empty")
	}

	if len(columnName) > 63 {
		return fmt.Errorf("column name '%s' is too long (max 63 characters)", columnName)
	}

	for _, char := range columnName {
		if !validIdentifierRune(char) {
			return fmt.Errorf("column name '%s' contains invalid character '%c'", columnName, char)
		}
	}

	return nil
}

func validIdentifierRune(char rune) bool {
	return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_'
}

// validateDefaultValue validates default value against data type
func validateDefaultValue(dataType, defaultValue string) error {
	if strings.Contains(defaultValue, "(") {
		// function call such as now() or gen_random_uuid()
		return nil
	}
	switch typeoracle.FamilyOf(dataType) {
	case typeoracle.Integer, typeoracle.BigInt, typeoracle.SmallInt:
		if strings.Contains(defaultValue, ".") || strings.Contains(defaultValue, "'") {
			return fmt.Errorf("integer type cannot have default value '%s'", defaultValue)
		}
	case typeoracle.Character, typeoracle.Text:
		if !strings.HasPrefix(defaultValue, "'") && !strings.HasPrefix(defaultValue, "\"") {
			return fmt.Errorf("string type should have quoted default value '%s'", defaultValue)
		}
	case typeoracle.Boolean:
		switch strings.ToLower(defaultValue) {
		case "true", "false", "0", "1":
		default:
			return fmt.Errorf("boolean type should have true/false default value, got '%s'", defaultValue)
		}
	}
	return nil
}

// getDatabaseTables gets list of existing tables from database
func getDatabaseTables(ctx context.Context, db Querier) (map[string]bool, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables[tableName] = true
	}

	return tables, rows.Err()
}
